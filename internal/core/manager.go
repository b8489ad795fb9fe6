package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DeviceManager enrolls and looks up devices of one device type.
type DeviceManager interface {
	// EnrollDevice reports true when the device was newly enrolled and false
	// when it was already enrolled. Rejections are *EnrollmentError.
	EnrollDevice(ctx context.Context, device *Device) (bool, error)
	IsEnrolled(ctx context.Context, id DeviceIdentifier) (bool, error)
	GetDevice(ctx context.Context, id DeviceIdentifier) (*Device, error)
	ListDevices(ctx context.Context) ([]*Device, error)
}

type deviceManager struct {
	deviceType string
	store      DeviceStore
	cache      DeviceCache
	events     EventPublisher
	logger     *logrus.Logger
	now        func() time.Time

	// mu serializes enrollment; lookups share it.
	mu sync.RWMutex
}

func newDeviceManager(deviceType string, cfg ServiceConfig) *deviceManager {
	return &deviceManager{
		deviceType: deviceType,
		store:      cfg.Store,
		cache:      cfg.Cache,
		events:     cfg.Events,
		logger:     cfg.Logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (m *deviceManager) EnrollDevice(ctx context.Context, device *Device) (bool, error) {
	if device == nil {
		return false, &EnrollmentError{DeviceType: m.deviceType, Reason: "device is nil"}
	}
	if strings.TrimSpace(device.ID) == "" {
		return false, &EnrollmentError{DeviceType: m.deviceType, Reason: "device id is empty"}
	}
	if device.Type != m.deviceType {
		return false, &EnrollmentError{
			DeviceID:   device.ID,
			DeviceType: m.deviceType,
			Reason:     fmt.Sprintf("device type %q does not match", device.Type),
		}
	}

	ownership, ok := NormalizeOwnership(device.Enrolment.Ownership)
	if !ok {
		return false, &EnrollmentError{
			DeviceID:   device.ID,
			DeviceType: m.deviceType,
			Reason:     fmt.Sprintf("unknown ownership %q", device.Enrolment.Ownership),
		}
	}

	record := device.Clone()
	record.Enrolment.Status = StatusEnrolled
	record.Enrolment.Ownership = ownership
	record.Enrolment.EnrolledAt = m.now()

	m.mu.Lock()
	added, err := m.store.AddDevice(ctx, record)
	m.mu.Unlock()
	if err != nil {
		return false, fmt.Errorf("failed to enroll device: %w", err)
	}

	fields := logrus.Fields{
		"device_id":   record.ID,
		"device_type": m.deviceType,
	}
	if !added {
		m.logger.WithFields(fields).Info("Device already enrolled")
		return false, nil
	}

	device.Enrolment = record.Enrolment
	m.cacheDevice(ctx, record)
	m.publishEnrolled(ctx, record)
	m.logger.WithFields(fields).WithField("owner", record.Owner).Info("Device enrolled successfully")

	return true, nil
}

func (m *deviceManager) IsEnrolled(ctx context.Context, id DeviceIdentifier) (bool, error) {
	if id.Type != m.deviceType || strings.TrimSpace(id.ID) == "" {
		return false, nil
	}

	if cached, err := m.getCachedDevice(ctx, id); err == nil && cached != nil {
		return cached.Enrolment.Status == StatusEnrolled, nil
	}

	m.mu.RLock()
	device, err := m.store.GetDevice(ctx, id)
	m.mu.RUnlock()
	if errors.Is(err, ErrDeviceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	m.cacheDevice(ctx, device)
	return device.Enrolment.Status == StatusEnrolled, nil
}

func (m *deviceManager) GetDevice(ctx context.Context, id DeviceIdentifier) (*Device, error) {
	if id.Type != m.deviceType {
		return nil, ErrDeviceNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.GetDevice(ctx, id)
}

func (m *deviceManager) ListDevices(ctx context.Context) ([]*Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.ListDevices(ctx, m.deviceType)
}

func (m *deviceManager) cacheDevice(ctx context.Context, device *Device) {
	if m.cache == nil {
		return
	}
	if err := m.cache.PutDevice(ctx, device); err != nil {
		m.logger.WithError(err).WithField("device_id", device.ID).Warn("Failed to cache device")
	}
}

func (m *deviceManager) getCachedDevice(ctx context.Context, id DeviceIdentifier) (*Device, error) {
	if m.cache == nil {
		return nil, errors.New("cache not available")
	}
	return m.cache.GetDevice(ctx, id)
}

func (m *deviceManager) publishEnrolled(ctx context.Context, device *Device) {
	if m.events == nil {
		return
	}
	event := DeviceEvent{
		EventID:    uuid.New().String(),
		Event:      TopicDeviceEnrolled,
		DeviceID:   device.ID,
		DeviceType: device.Type,
		Owner:      device.Owner,
		OccurredAt: device.Enrolment.EnrolledAt,
	}
	if err := m.events.Publish(ctx, TopicDeviceEnrolled, event); err != nil {
		m.logger.WithError(err).WithFields(logrus.Fields{
			"device_id":   device.ID,
			"device_type": device.Type,
		}).Warn("Failed to publish enrollment event")
	}
}
