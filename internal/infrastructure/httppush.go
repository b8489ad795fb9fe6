package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"example.com/backstage/services/devicetype/config"
	"example.com/backstage/services/devicetype/internal/core"
	"github.com/sirupsen/logrus"
)

// HTTPPushNotifier delivers operations by POSTing them to a per-device URL.
type HTTPPushNotifier struct {
	endpoint   string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewHTTPPushNotifier(cfg config.HTTPPushConfig, logger *logrus.Logger) (*HTTPPushNotifier, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("HTTP push endpoint is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &HTTPPushNotifier{
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// URLFor expands the endpoint template for one device.
func (n *HTTPPushNotifier) URLFor(id core.DeviceIdentifier) string {
	return strings.NewReplacer(
		"{type}", url.PathEscape(id.Type),
		"{id}", url.PathEscape(id.ID),
	).Replace(n.endpoint)
}

func (n *HTTPPushNotifier) Push(ctx context.Context, op *core.Operation) error {
	body, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("failed to marshal operation: %w", err)
	}

	target := n.URLFor(op.Device)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Operation-ID", op.ID)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("device endpoint returned %d", resp.StatusCode)
	}

	n.logger.WithFields(logrus.Fields{
		"url":          target,
		"operation_id": op.ID,
		"status":       resp.StatusCode,
	}).Debug("Operation pushed over HTTP")
	return nil
}
