package core

import (
	"context"
	"sort"
	"sync"
)

// DeviceStore persists enrolled devices. Implementations must be safe for
// concurrent use.
type DeviceStore interface {
	// AddDevice inserts the device. It reports false, leaving the stored
	// record untouched, when the identifier is already present.
	AddDevice(ctx context.Context, device *Device) (bool, error)
	// GetDevice returns ErrDeviceNotFound for unknown identifiers.
	GetDevice(ctx context.Context, id DeviceIdentifier) (*Device, error)
	ListDevices(ctx context.Context, deviceType string) ([]*Device, error)
}

// MemoryDeviceStore keeps devices in process memory.
type MemoryDeviceStore struct {
	mu      sync.RWMutex
	devices map[DeviceIdentifier]*Device
}

// NewMemoryDeviceStore creates an empty in-memory store.
func NewMemoryDeviceStore() *MemoryDeviceStore {
	return &MemoryDeviceStore{devices: make(map[DeviceIdentifier]*Device)}
}

func (s *MemoryDeviceStore) AddDevice(_ context.Context, device *Device) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := device.Identifier()
	if _, exists := s.devices[key]; exists {
		return false, nil
	}
	s.devices[key] = device.Clone()
	return true, nil
}

func (s *MemoryDeviceStore) GetDevice(_ context.Context, id DeviceIdentifier) (*Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return d.Clone(), nil
}

// ListDevices returns the devices of deviceType ordered by ID.
func (s *MemoryDeviceStore) ListDevices(_ context.Context, deviceType string) ([]*Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	devices := make([]*Device, 0)
	for key, d := range s.devices {
		if key.Type == deviceType {
			devices = append(devices, d.Clone())
		}
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices, nil
}
