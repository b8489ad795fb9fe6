package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultMaxDeliveryAttempts bounds how often a scheduled operation is tried
// before it is marked FAILED and dropped.
const DefaultMaxDeliveryAttempts = 5

// PushNotifier delivers operations through one push-notification provider.
type PushNotifier interface {
	Push(ctx context.Context, op *Operation) error
}

// OperationDispatcher routes feature operations to enrolled devices.
// Device types with a scheduled provider have their operations queued until
// FlushScheduled runs.
type OperationDispatcher struct {
	registry    *ServiceRegistry
	logger      *logrus.Logger
	maxAttempts int
	mu          sync.Mutex
	notifiers   map[string]PushNotifier
	pending     []*Operation
}

// NewOperationDispatcher creates a dispatcher without any notifiers.
func NewOperationDispatcher(registry *ServiceRegistry, logger *logrus.Logger) *OperationDispatcher {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &OperationDispatcher{
		registry:    registry,
		logger:      logger,
		maxAttempts: DefaultMaxDeliveryAttempts,
		notifiers:   make(map[string]PushNotifier),
	}
}

// SetMaxDeliveryAttempts changes the retry bound for scheduled operations.
// Values below one are ignored.
func (d *OperationDispatcher) SetMaxDeliveryAttempts(n int) {
	if n < 1 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.maxAttempts = n
}

// RegisterNotifier binds a notifier to a provider type such as "MQTT".
func (d *OperationDispatcher) RegisterNotifier(providerType string, n PushNotifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers[strings.ToUpper(providerType)] = n
}

// Send validates and dispatches an operation. The returned operation is
// DELIVERED when pushed immediately and PENDING when queued.
func (d *OperationDispatcher) Send(ctx context.Context, id DeviceIdentifier, code string, payload json.RawMessage) (*Operation, error) {
	svc, err := d.registry.Lookup(id.Type)
	if err != nil {
		return nil, err
	}

	def := svc.Definition()
	if def == nil {
		return nil, fmt.Errorf("%w: %s", ErrFeatureNotSupported, code)
	}
	if _, ok := def.Feature(code); !ok {
		return nil, fmt.Errorf("%w: %s", ErrFeatureNotSupported, code)
	}

	enrolled, err := svc.DeviceManager().IsEnrolled(ctx, id)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, fmt.Errorf("%w: %s/%s", ErrDeviceNotFound, id.Type, id.ID)
	}

	push := svc.PushNotificationConfig()
	if push == nil {
		return nil, fmt.Errorf("%w: %s has no provider", ErrPushProviderUnavailable, id.Type)
	}

	notifier, err := d.notifier(push.Type)
	if err != nil {
		return nil, err
	}

	op := NewOperation(code, id, payload)
	if push.Scheduled {
		d.mu.Lock()
		d.pending = append(d.pending, op)
		d.mu.Unlock()
		d.logOperation(op).Info("Operation queued for scheduled delivery")
		queued := *op
		return &queued, nil
	}

	return op, d.deliver(ctx, notifier, op)
}

// Pending returns the number of queued operations.
func (d *OperationDispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// FlushScheduled pushes every queued operation. Operations that fail stay
// queued for the next flush until they reach the attempt limit, then they are
// marked FAILED and dropped. It returns the number delivered.
func (d *OperationDispatcher) FlushScheduled(ctx context.Context) int {
	d.mu.Lock()
	batch := d.pending
	d.pending = nil
	maxAttempts := d.maxAttempts
	d.mu.Unlock()

	delivered := 0
	var retry []*Operation
	for _, op := range batch {
		svc, err := d.registry.Lookup(op.Device.Type)
		if err != nil {
			op.Status = OperationStatusFailed
			d.logOperation(op).WithError(err).Warn("Dropping operation for unregistered device type")
			continue
		}
		push := svc.PushNotificationConfig()
		if push == nil {
			op.Status = OperationStatusFailed
			continue
		}

		notifier, err := d.notifier(push.Type)
		if err == nil {
			err = d.deliver(ctx, notifier, op)
		} else {
			op.Attempts++
		}
		if err == nil {
			delivered++
			continue
		}

		if op.Attempts >= maxAttempts {
			op.Status = OperationStatusFailed
			d.logOperation(op).WithError(err).WithField("attempts", op.Attempts).
				Error("Dropping operation after repeated delivery failures")
			continue
		}
		op.Status = OperationStatusPending
		retry = append(retry, op)
	}

	if len(retry) > 0 {
		d.mu.Lock()
		d.pending = append(retry, d.pending...)
		d.mu.Unlock()
	}
	return delivered
}

// RunScheduler flushes queued operations every interval until ctx is done.
// A non-positive interval disables scheduled delivery.
func (d *OperationDispatcher) RunScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		d.logger.Warn("Scheduled delivery disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := d.FlushScheduled(ctx); n > 0 {
				d.logger.WithField("delivered", n).Info("Scheduled operations delivered")
			}
		}
	}
}

func (d *OperationDispatcher) notifier(providerType string) (PushNotifier, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.notifiers[strings.ToUpper(providerType)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPushProviderUnavailable, providerType)
	}
	return n, nil
}

func (d *OperationDispatcher) deliver(ctx context.Context, n PushNotifier, op *Operation) error {
	op.Attempts++
	if err := n.Push(ctx, op); err != nil {
		op.Status = OperationStatusFailed
		d.logOperation(op).WithError(err).Error("Failed to push operation")
		return fmt.Errorf("failed to push operation: %w", err)
	}
	now := time.Now().UTC()
	op.Status = OperationStatusDelivered
	op.DeliveredAt = &now
	d.logOperation(op).Debug("Operation delivered")
	return nil
}

func (d *OperationDispatcher) logOperation(op *Operation) *logrus.Entry {
	return d.logger.WithFields(logrus.Fields{
		"operation_id": op.ID,
		"code":         op.Code,
		"device_id":    op.Device.ID,
		"device_type":  op.Device.Type,
	})
}
