// services/devicetype/internal/core/service.go
package core

import (
	"context"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// DeviceCache short-circuits enrollment lookups. GetDevice returns an error
// for devices it does not hold.
type DeviceCache interface {
	PutDevice(ctx context.Context, device *Device) error
	GetDevice(ctx context.Context, id DeviceIdentifier) (*Device, error)
}

// EventPublisher delivers device lifecycle events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, message interface{}) error
}

// ServiceConfig wires the collaborators shared by every device-type service.
// Only Store is required; a nil Store falls back to process memory.
type ServiceConfig struct {
	Store  DeviceStore
	Cache  DeviceCache
	Events EventPublisher
	Logger *logrus.Logger
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.Store == nil {
		c.Store = NewMemoryDeviceStore()
	}
	if c.Logger == nil {
		c.Logger = logrus.New()
		c.Logger.SetOutput(io.Discard)
	}
	return c
}

// DeviceManagementService exposes one device type to the management registry.
type DeviceManagementService interface {
	// Type returns the name the service was constructed with.
	Type() string
	// Family names the variant, e.g. "http" or "generic".
	Family() string
	Definition() *DeviceTypeDefinition
	PushNotificationConfig() *PushNotificationConfig
	DeviceManager() DeviceManager
}

// DeviceTypeManagerService is the generic variant.
type DeviceTypeManagerService struct {
	deviceType string
	definition *DeviceTypeDefinition
	manager    *deviceManager
}

// NewDeviceTypeManagerService binds typeName to def. The definition is copied;
// later changes to def are not observed.
func NewDeviceTypeManagerService(typeName string, def *DeviceTypeDefinition, cfg ServiceConfig) *DeviceTypeManagerService {
	cfg = cfg.withDefaults()
	return &DeviceTypeManagerService{
		deviceType: typeName,
		definition: def.Clone(),
		manager:    newDeviceManager(typeName, cfg),
	}
}

func (s *DeviceTypeManagerService) Type() string { return s.deviceType }

func (s *DeviceTypeManagerService) Family() string { return "generic" }

// Definition returns a copy of the bound metadata.
func (s *DeviceTypeManagerService) Definition() *DeviceTypeDefinition {
	return s.definition.Clone()
}

func (s *DeviceTypeManagerService) PushNotificationConfig() *PushNotificationConfig {
	if s.definition == nil {
		return nil
	}
	return s.Definition().PushNotificationConfig
}

func (s *DeviceTypeManagerService) DeviceManager() DeviceManager { return s.manager }

// HTTPDeviceTypeManagerService is the variant for device types whose agents
// talk to the platform over HTTP. Features without an explicit operation get
// one derived from their code, and operations are pushed over HTTP unless the
// definition names another provider.
type HTTPDeviceTypeManagerService struct {
	*DeviceTypeManagerService
}

// NewHTTPDeviceTypeManagerService binds typeName to def for an HTTP device type.
func NewHTTPDeviceTypeManagerService(typeName string, def *DeviceTypeDefinition, cfg ServiceConfig) *HTTPDeviceTypeManagerService {
	base := NewDeviceTypeManagerService(typeName, def, cfg)

	d := base.definition
	if d == nil {
		d = &DeviceTypeDefinition{Name: typeName}
		base.definition = d
	}
	for i := range d.Features {
		if d.Features[i].Operation == nil {
			d.Features[i].Operation = &FeatureOperation{
				Context:     "/" + strings.ToLower(d.Features[i].Code),
				Method:      "POST",
				ContentType: "application/json",
			}
		}
	}
	if d.PushNotificationConfig == nil {
		d.PushNotificationConfig = &PushNotificationConfig{Type: PushTypeHTTP}
	}

	return &HTTPDeviceTypeManagerService{DeviceTypeManagerService: base}
}

func (s *HTTPDeviceTypeManagerService) Family() string { return "http" }
