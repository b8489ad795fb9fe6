package core

import (
	"fmt"
	"sort"
	"sync"
)

// ServiceRegistry holds the device-management services known to the process.
type ServiceRegistry struct {
	mu       sync.RWMutex
	services map[string]DeviceManagementService
}

// NewServiceRegistry creates an empty registry.
func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{services: make(map[string]DeviceManagementService)}
}

// Register adds svc under its type name. Names are unique.
func (r *ServiceRegistry) Register(svc DeviceManagementService) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.services[svc.Type()]; exists {
		return fmt.Errorf("%w: %s", ErrDeviceTypeExists, svc.Type())
	}
	r.services[svc.Type()] = svc
	return nil
}

// Lookup returns the service registered for deviceType.
func (r *ServiceRegistry) Lookup(deviceType string) (DeviceManagementService, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.services[deviceType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceTypeNotFound, deviceType)
	}
	return svc, nil
}

// List returns all services ordered by type name.
func (r *ServiceRegistry) List() []DeviceManagementService {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]DeviceManagementService, 0, len(r.services))
	for _, svc := range r.services {
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type() < out[j].Type() })
	return out
}
