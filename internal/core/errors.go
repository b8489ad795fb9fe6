// services/devicetype/internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// Business errors.
var (
	// Device errors.
	ErrDeviceNotFound = errors.New("device not found")

	// Device type errors.
	ErrDeviceTypeNotFound = errors.New("device type not found")
	ErrDeviceTypeExists   = errors.New("device type already registered")

	// Operation errors.
	ErrFeatureNotSupported     = errors.New("feature not supported by device type")
	ErrPushProviderUnavailable = errors.New("push notification provider unavailable")
)

// EnrollmentError reports a device that cannot be enrolled against a type.
type EnrollmentError struct {
	DeviceID   string
	DeviceType string
	Reason     string
}

func (e *EnrollmentError) Error() string {
	return fmt.Sprintf("cannot enroll device %q as %q: %s", e.DeviceID, e.DeviceType, e.Reason)
}

// InvalidDefinitionError reports a registration attempt with bad input.
type InvalidDefinitionError struct {
	DeviceType string
	Reason     string
}

func (e *InvalidDefinitionError) Error() string {
	return fmt.Sprintf("invalid device type definition %q: %s", e.DeviceType, e.Reason)
}

// BusinessError represents a business logic error with a code.
type BusinessError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e BusinessError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ToBusinessError maps a domain error onto its API error code.
func ToBusinessError(err error) BusinessError {
	var enrollErr *EnrollmentError
	var defErr *InvalidDefinitionError

	switch {
	case errors.As(err, &enrollErr):
		return BusinessError{"ENROLL_001", enrollErr.Error()}
	case errors.As(err, &defErr):
		return BusinessError{"TYPE_003", defErr.Error()}
	case errors.Is(err, ErrDeviceNotFound):
		return BusinessError{"DEVICE_001", err.Error()}
	case errors.Is(err, ErrDeviceTypeNotFound):
		return BusinessError{"TYPE_001", err.Error()}
	case errors.Is(err, ErrDeviceTypeExists):
		return BusinessError{"TYPE_002", err.Error()}
	case errors.Is(err, ErrFeatureNotSupported):
		return BusinessError{"OPERATION_001", err.Error()}
	case errors.Is(err, ErrPushProviderUnavailable):
		return BusinessError{"OPERATION_002", err.Error()}
	default:
		return BusinessError{"INTERNAL", err.Error()}
	}
}
