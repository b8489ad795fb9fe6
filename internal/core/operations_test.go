package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatcherFixture(t *testing.T, push *PushNotificationConfig) (*OperationDispatcher, *fakeNotifier, DeviceManagementService) {
	t.Helper()
	ctx := context.Background()

	def := androidSenseDefinition(t)
	def.PushNotificationConfig = push

	reg := NewServiceRegistry()
	svc, err := NewDeviceTypeGenerator(ServiceConfig{Logger: testLogger()}).PopulateDeviceManagementService(androidSenseDeviceType, def)
	require.NoError(t, err)
	require.NoError(t, reg.Register(svc))

	_, err = svc.DeviceManager().EnrollDevice(ctx, &Device{ID: "testdevice1", Type: androidSenseDeviceType})
	require.NoError(t, err)

	notifier := &fakeNotifier{}
	d := NewOperationDispatcher(reg, testLogger())
	d.RegisterNotifier("mqtt", notifier)
	return d, notifier, svc
}

func TestOperationDispatcher_SendDelivers(t *testing.T) {
	d, notifier, _ := newDispatcherFixture(t, &PushNotificationConfig{Type: PushTypeMQTT})

	id := DeviceIdentifier{ID: "testdevice1", Type: androidSenseDeviceType}
	op, err := d.Send(context.Background(), id, "ring", json.RawMessage(`{"duration":3}`))
	require.NoError(t, err)

	assert.Equal(t, OperationStatusDelivered, op.Status)
	assert.NotNil(t, op.DeliveredAt)
	assert.NotEmpty(t, op.ID)
	require.Equal(t, 1, notifier.count())
	assert.Equal(t, "ring", notifier.pushed[0].Code)
	assert.Equal(t, id, notifier.pushed[0].Device)
	assert.JSONEq(t, `{"duration":3}`, string(notifier.pushed[0].Payload))
}

func TestOperationDispatcher_SendRejects(t *testing.T) {
	ctx := context.Background()
	d, notifier, _ := newDispatcherFixture(t, &PushNotificationConfig{Type: PushTypeMQTT})

	_, err := d.Send(ctx, DeviceIdentifier{ID: "testdevice1", Type: "unknown"}, "ring", nil)
	assert.ErrorIs(t, err, ErrDeviceTypeNotFound)

	_, err = d.Send(ctx, DeviceIdentifier{ID: "testdevice1", Type: androidSenseDeviceType}, "explode", nil)
	assert.ErrorIs(t, err, ErrFeatureNotSupported)

	_, err = d.Send(ctx, DeviceIdentifier{ID: "ghost", Type: androidSenseDeviceType}, "ring", nil)
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	assert.Zero(t, notifier.count())
}

func TestOperationDispatcher_UnknownProvider(t *testing.T) {
	d, _, _ := newDispatcherFixture(t, &PushNotificationConfig{Type: "FCM"})

	_, err := d.Send(context.Background(), DeviceIdentifier{ID: "testdevice1", Type: androidSenseDeviceType}, "ring", nil)
	assert.ErrorIs(t, err, ErrPushProviderUnavailable)
}

func TestOperationDispatcher_PushFailure(t *testing.T) {
	d, notifier, _ := newDispatcherFixture(t, &PushNotificationConfig{Type: PushTypeMQTT})
	notifier.err = errors.New("broker unreachable")

	op, err := d.Send(context.Background(), DeviceIdentifier{ID: "testdevice1", Type: androidSenseDeviceType}, "ring", nil)
	require.Error(t, err)
	assert.Equal(t, OperationStatusFailed, op.Status)
}

func TestOperationDispatcher_ScheduledQueuesUntilFlush(t *testing.T) {
	ctx := context.Background()
	d, notifier, _ := newDispatcherFixture(t, &PushNotificationConfig{Type: PushTypeMQTT, Scheduled: true})
	id := DeviceIdentifier{ID: "testdevice1", Type: androidSenseDeviceType}

	op, err := d.Send(ctx, id, "ring", nil)
	require.NoError(t, err)
	assert.Equal(t, OperationStatusPending, op.Status)
	assert.Equal(t, 1, d.Pending())
	assert.Zero(t, notifier.count())

	notifier.err = errors.New("broker unreachable")
	assert.Zero(t, d.FlushScheduled(ctx))
	assert.Equal(t, 1, d.Pending(), "failed deliveries stay queued")

	notifier.err = nil
	assert.Equal(t, 1, d.FlushScheduled(ctx))
	assert.Zero(t, d.Pending())
	assert.Equal(t, 1, notifier.count())
}

func TestOperationDispatcher_ScheduledGivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	d, notifier, _ := newDispatcherFixture(t, &PushNotificationConfig{Type: PushTypeMQTT, Scheduled: true})
	d.SetMaxDeliveryAttempts(3)
	notifier.err = errors.New("broker unreachable")

	_, err := d.Send(ctx, DeviceIdentifier{ID: "testdevice1", Type: androidSenseDeviceType}, "ring", nil)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		assert.Zero(t, d.FlushScheduled(ctx))
		assert.Equal(t, 1, d.Pending(), "attempt %d keeps the operation queued", i+1)
	}

	assert.Zero(t, d.FlushScheduled(ctx))
	assert.Zero(t, d.Pending(), "third failure drops the operation")

	notifier.err = nil
	assert.Zero(t, d.FlushScheduled(ctx))
	assert.Zero(t, notifier.count())
}

func TestOperationDispatcher_MissingNotifierCountsAsAttempt(t *testing.T) {
	ctx := context.Background()
	d, _, _ := newDispatcherFixture(t, &PushNotificationConfig{Type: PushTypeMQTT, Scheduled: true})
	d.SetMaxDeliveryAttempts(1)

	_, err := d.Send(ctx, DeviceIdentifier{ID: "testdevice1", Type: androidSenseDeviceType}, "ring", nil)
	require.NoError(t, err)

	d.mu.Lock()
	delete(d.notifiers, PushTypeMQTT)
	d.mu.Unlock()

	assert.Zero(t, d.FlushScheduled(ctx))
	assert.Zero(t, d.Pending())
}

func TestOperationDispatcher_SetMaxDeliveryAttemptsIgnoresInvalid(t *testing.T) {
	d := NewOperationDispatcher(NewServiceRegistry(), nil)
	d.SetMaxDeliveryAttempts(0)
	assert.Equal(t, DefaultMaxDeliveryAttempts, d.maxAttempts)
}

func TestOperationDispatcher_RunScheduler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d, notifier, _ := newDispatcherFixture(t, &PushNotificationConfig{Type: PushTypeMQTT, Scheduled: true})
	_, err := d.Send(ctx, DeviceIdentifier{ID: "testdevice1", Type: androidSenseDeviceType}, "ring", nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		d.RunScheduler(ctx, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return notifier.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, d.Pending())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestOperationDispatcher_RunSchedulerDisabled(t *testing.T) {
	d := NewOperationDispatcher(NewServiceRegistry(), nil)

	done := make(chan struct{})
	go func() {
		d.RunScheduler(context.Background(), 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler with zero interval should return")
	}
}
