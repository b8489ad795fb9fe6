package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"example.com/backstage/services/devicetype/internal/core"
	"github.com/gin-gonic/gin"
)

// APIHandlers holds all HTTP handlers
type APIHandlers struct {
	registry   *core.ServiceRegistry
	dispatcher *core.OperationDispatcher
}

// NewAPIHandlers creates a new handler instance
func NewAPIHandlers(registry *core.ServiceRegistry, dispatcher *core.OperationDispatcher) *APIHandlers {
	return &APIHandlers{registry: registry, dispatcher: dispatcher}
}

// DeviceTypeSummary is the list view of a registered device type.
type DeviceTypeSummary struct {
	Name         string `json:"name"`
	Family       string `json:"family"`
	Description  string `json:"description"`
	Claimable    bool   `json:"claimable"`
	PushProvider string `json:"push_provider,omitempty"`
	FeatureCount int    `json:"feature_count"`
}

// EnrollRequest is the body accepted by EnrollDevice.
type EnrollRequest struct {
	ID          string          `json:"id" binding:"required"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Owner       string          `json:"owner"`
	Ownership   string          `json:"ownership"`
	Properties  []core.Property `json:"properties"`
}

// OperationRequest is the body accepted by SendOperation.
type OperationRequest struct {
	Code    string          `json:"code" binding:"required"`
	Payload json.RawMessage `json:"payload"`
}

// HealthCheck returns service health status
func (h *APIHandlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"timestamp":    time.Now(),
		"service":      "device-type-api",
		"device_types": len(h.registry.List()),
	})
}

// --- Device Type Endpoints ---

// ListDeviceTypes returns every registered device type
func (h *APIHandlers) ListDeviceTypes(c *gin.Context) {
	services := h.registry.List()
	out := make([]DeviceTypeSummary, 0, len(services))
	for _, svc := range services {
		out = append(out, summarize(svc))
	}
	c.JSON(http.StatusOK, out)
}

// GetDeviceType returns the full definition of one device type
func (h *APIHandlers) GetDeviceType(c *gin.Context) {
	svc, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"type":       svc.Type(),
		"family":     svc.Family(),
		"definition": svc.Definition(),
	})
}

// --- Device Endpoints ---

// EnrollDevice enrolls a device against the type in the path
func (h *APIHandlers) EnrollDevice(c *gin.Context) {
	svc, ok := h.lookup(c)
	if !ok {
		return
	}

	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format", "details": err.Error()})
		return
	}

	device := &core.Device{
		ID:          strings.TrimSpace(req.ID),
		Type:        svc.Type(),
		Name:        req.Name,
		Description: req.Description,
		Owner:       req.Owner,
		Properties:  req.Properties,
		Enrolment:   core.EnrolmentInfo{Ownership: req.Ownership},
	}

	enrolled, err := svc.DeviceManager().EnrollDevice(c.Request.Context(), device)
	if err != nil {
		c.Error(err)
		return
	}

	status := http.StatusOK
	if enrolled {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"enrolled": enrolled, "device": device.Identifier()})
}

// ListDevices returns the enrolled devices of a type
func (h *APIHandlers) ListDevices(c *gin.Context) {
	svc, ok := h.lookup(c)
	if !ok {
		return
	}

	devices, err := svc.DeviceManager().ListDevices(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, devices)
}

// GetDevice returns one enrolled device
func (h *APIHandlers) GetDevice(c *gin.Context) {
	svc, ok := h.lookup(c)
	if !ok {
		return
	}

	device, err := svc.DeviceManager().GetDevice(c.Request.Context(), identifier(c, svc))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, device)
}

// IsEnrolled reports whether a device is enrolled
func (h *APIHandlers) IsEnrolled(c *gin.Context) {
	svc, ok := h.lookup(c)
	if !ok {
		return
	}

	enrolled, err := svc.DeviceManager().IsEnrolled(c.Request.Context(), identifier(c, svc))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrolled": enrolled})
}

// SendOperation pushes a feature operation to an enrolled device
func (h *APIHandlers) SendOperation(c *gin.Context) {
	svc, ok := h.lookup(c)
	if !ok {
		return
	}

	var req OperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format", "details": err.Error()})
		return
	}

	op, err := h.dispatcher.Send(c.Request.Context(), identifier(c, svc), req.Code, req.Payload)
	if err != nil {
		c.Error(err)
		return
	}

	status := http.StatusOK
	if op.Status == core.OperationStatusPending {
		status = http.StatusAccepted
	}
	c.JSON(status, op)
}

func (h *APIHandlers) lookup(c *gin.Context) (core.DeviceManagementService, bool) {
	svc, err := h.registry.Lookup(c.Param("type"))
	if err != nil {
		c.Error(err)
		return nil, false
	}
	return svc, true
}

func identifier(c *gin.Context, svc core.DeviceManagementService) core.DeviceIdentifier {
	return core.DeviceIdentifier{ID: c.Param("id"), Type: svc.Type()}
}

func summarize(svc core.DeviceManagementService) DeviceTypeSummary {
	s := DeviceTypeSummary{Name: svc.Type(), Family: svc.Family()}
	if def := svc.Definition(); def != nil {
		s.Description = def.Description
		s.Claimable = def.Claimable
		s.FeatureCount = len(def.Features)
	}
	if push := svc.PushNotificationConfig(); push != nil {
		s.PushProvider = push.Type
	}
	return s
}
