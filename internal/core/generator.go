package core

import "strings"

// DeviceTypeGenerator turns device-type definitions into registrable services.
type DeviceTypeGenerator struct {
	config ServiceConfig
}

// NewDeviceTypeGenerator returns a generator whose services share cfg.
func NewDeviceTypeGenerator(cfg ServiceConfig) *DeviceTypeGenerator {
	return &DeviceTypeGenerator{config: cfg.withDefaults()}
}

// PopulateDeviceManagementService builds the service descriptor for typeName.
// Definitions pushing over HTTP get the HTTP variant, all others the generic one.
func (g *DeviceTypeGenerator) PopulateDeviceManagementService(typeName string, def *DeviceTypeDefinition) (DeviceManagementService, error) {
	if strings.TrimSpace(typeName) == "" {
		return nil, &InvalidDefinitionError{Reason: "device type name is empty"}
	}
	if def == nil {
		return nil, &InvalidDefinitionError{DeviceType: typeName, Reason: "definition is absent"}
	}

	if def.PushNotificationConfig != nil && strings.EqualFold(def.PushNotificationConfig.Type, PushTypeHTTP) {
		return NewHTTPDeviceTypeManagerService(typeName, def, g.config), nil
	}
	return NewDeviceTypeManagerService(typeName, def, g.config), nil
}
