package core

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"example.com/backstage/services/devicetype/internal/devicetype"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const (
	androidSenseDeviceType = "androidsense"
	sampleDeviceType       = "sample"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// androidSenseDefinition mirrors how the service builds metadata at startup.
func androidSenseDefinition(t *testing.T) *DeviceTypeDefinition {
	t.Helper()
	cfg, err := devicetype.LoadFile(filepath.Join("..", "devicetype", "testdata", "android_sense.xml"))
	require.NoError(t, err)
	return BuildDefinition(cfg, DefaultBuildOptions())
}

type fakeCache struct {
	mu     sync.Mutex
	values map[DeviceIdentifier]*Device
	gets   int
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[DeviceIdentifier]*Device)}
}

func (c *fakeCache) GetDevice(_ context.Context, id DeviceIdentifier) (*Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	d, ok := c.values[id]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return d.Clone(), nil
}

func (c *fakeCache) PutDevice(_ context.Context, device *Device) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.values[device.Identifier()] = device.Clone()
	return nil
}

type publishedEvent struct {
	topic   string
	message interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{topic: topic, message: message})
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	pushed []*Operation
	err    error
}

func (n *fakeNotifier) Push(_ context.Context, op *Operation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.pushed = append(n.pushed, op)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pushed)
}
