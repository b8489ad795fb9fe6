// services/devicetype/internal/core/models.go
package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DeviceTypeDefinition is the runtime metadata of a device type.
type DeviceTypeDefinition struct {
	Name                    string                  `json:"name"`
	Description             string                  `json:"description"`
	Claimable               bool                    `json:"claimable"`
	License                 License                 `json:"license"`
	Features                []Feature               `json:"features"`
	PushNotificationConfig  *PushNotificationConfig `json:"push_notification_config,omitempty"`
	SharedWithAllTenants    bool                    `json:"shared_with_all_tenants"`
	PolicyMonitoringEnabled bool                    `json:"policy_monitoring_enabled"`
}

// License is the end-user license attached to a device type.
type License struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Version  string `json:"version,omitempty"`
}

// Feature is a capability declared by a device type.
type Feature struct {
	Code        string            `json:"code"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Operation   *FeatureOperation `json:"operation,omitempty"`
}

// FeatureOperation describes the HTTP shape of a feature invocation.
type FeatureOperation struct {
	Context     string `json:"context"`
	Method      string `json:"method"`
	ContentType string `json:"content_type"`
}

// PushNotificationConfig selects how operations reach enrolled devices.
type PushNotificationConfig struct {
	Type       string            `json:"type"`
	Scheduled  bool              `json:"scheduled"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Feature returns the feature declared under code.
func (d *DeviceTypeDefinition) Feature(code string) (Feature, bool) {
	for _, f := range d.Features {
		if f.Code == code {
			return f, true
		}
	}
	return Feature{}, false
}

// Clone returns a deep copy of the definition.
func (d *DeviceTypeDefinition) Clone() *DeviceTypeDefinition {
	if d == nil {
		return nil
	}
	out := *d
	out.Features = make([]Feature, len(d.Features))
	for i, f := range d.Features {
		out.Features[i] = f
		if f.Operation != nil {
			op := *f.Operation
			out.Features[i].Operation = &op
		}
	}
	if d.PushNotificationConfig != nil {
		push := *d.PushNotificationConfig
		if d.PushNotificationConfig.Properties != nil {
			push.Properties = make(map[string]string, len(d.PushNotificationConfig.Properties))
			for k, v := range d.PushNotificationConfig.Properties {
				push.Properties[k] = v
			}
		}
		out.PushNotificationConfig = &push
	}
	return &out
}

// DeviceIdentifier addresses one device of one type.
type DeviceIdentifier struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Device is an enrolled device instance.
type Device struct {
	ID          string        `json:"id" gorm:"primaryKey;column:device_id"`
	Type        string        `json:"type" gorm:"primaryKey;column:device_type"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Owner       string        `json:"owner" gorm:"index"`
	Properties  []Property    `json:"properties,omitempty" gorm:"serializer:json"`
	Enrolment   EnrolmentInfo `json:"enrolment" gorm:"embedded;embeddedPrefix:enrolment_"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Property is a free-form device attribute.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// EnrolmentInfo records how and when a device was enrolled.
type EnrolmentInfo struct {
	Ownership  string    `json:"ownership"`
	Status     string    `json:"status"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// Identifier returns the lookup key of the device.
func (d *Device) Identifier() DeviceIdentifier {
	return DeviceIdentifier{ID: d.ID, Type: d.Type}
}

// Clone returns a deep copy of the device.
func (d *Device) Clone() *Device {
	out := *d
	if d.Properties != nil {
		out.Properties = append([]Property(nil), d.Properties...)
	}
	return &out
}

// TableName overrides for GORM
func (Device) TableName() string { return "devices" }

// Operation is a feature invocation addressed to one enrolled device.
type Operation struct {
	ID          string           `json:"id"`
	Code        string           `json:"code"`
	Device      DeviceIdentifier `json:"device"`
	Payload     json.RawMessage  `json:"payload,omitempty"`
	Status      string           `json:"status"`
	Attempts    int              `json:"attempts"`
	CreatedAt   time.Time        `json:"created_at"`
	DeliveredAt *time.Time       `json:"delivered_at,omitempty"`
}

// NewOperation creates a pending operation with a fresh ID.
func NewOperation(code string, device DeviceIdentifier, payload json.RawMessage) *Operation {
	return &Operation{
		ID:        uuid.New().String(),
		Code:      code,
		Device:    device,
		Payload:   payload,
		Status:    OperationStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// DeviceEvent is published after a device changes enrollment state.
type DeviceEvent struct {
	EventID    string    `json:"event_id"`
	Event      string    `json:"event"`
	DeviceID   string    `json:"device_id"`
	DeviceType string    `json:"device_type"`
	Owner      string    `json:"owner"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Constants for enrollment and operation processing
const (
	// Enrollment statuses
	StatusNotEnrolled = "NOT_ENROLLED"
	StatusEnrolled    = "ENROLLED"

	// Ownership
	OwnershipBYOD = "BYOD"
	OwnershipCOPE = "COPE"

	// Operation statuses
	OperationStatusPending   = "PENDING"
	OperationStatusDelivered = "DELIVERED"
	OperationStatusFailed    = "FAILED"

	// Push-notification provider types
	PushTypeHTTP = "HTTP"
	PushTypeMQTT = "MQTT"

	// Event topics
	TopicDeviceEnrolled = "device.enrolled"
)

// NormalizeOwnership upper-cases an ownership model, defaulting empty input
// to BYOD. It reports false for models other than BYOD and COPE.
func NormalizeOwnership(s string) (string, bool) {
	switch o := strings.ToUpper(strings.TrimSpace(s)); o {
	case "":
		return OwnershipBYOD, true
	case OwnershipBYOD, OwnershipCOPE:
		return o, true
	default:
		return "", false
	}
}
