// services/devicetype/internal/infrastructure/mqtt.go
package infrastructure

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"example.com/backstage/services/devicetype/internal/core"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// MQTTConfig holds MQTT connection settings
type MQTTConfig struct {
	BrokerURL         string
	ClientID          string
	Username          string
	Password          string
	QoS               byte
	CleanSession      bool
	KeepAlive         time.Duration
	ConnectTimeout    time.Duration
	MaxReconnectDelay time.Duration
	TLSConfig         *tls.Config
}

// MQTTPushNotifier delivers operations to devices over MQTT. Each operation
// is published to "<device type>/<device id>/operation".
type MQTTPushNotifier struct {
	config    MQTTConfig
	client    mqtt.Client
	logger    *logrus.Logger
	mu        sync.RWMutex
	connected bool
}

// NewMQTTPushNotifier creates a notifier; Start connects it.
func NewMQTTPushNotifier(config MQTTConfig, logger *logrus.Logger) (*MQTTPushNotifier, error) {
	if config.BrokerURL == "" {
		return nil, fmt.Errorf("MQTT broker URL is required")
	}

	if config.ClientID == "" {
		config.ClientID = fmt.Sprintf("devicetype-service-%d", time.Now().UnixNano())
	}

	return &MQTTPushNotifier{
		config: config,
		logger: logger,
	}, nil
}

// Start connects to the MQTT broker
func (n *MQTTPushNotifier) Start() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(n.config.BrokerURL)
	opts.SetClientID(n.config.ClientID)

	if n.config.Username != "" {
		opts.SetUsername(n.config.Username)
	}
	if n.config.Password != "" {
		opts.SetPassword(n.config.Password)
	}

	opts.SetCleanSession(n.config.CleanSession)
	opts.SetKeepAlive(n.config.KeepAlive)
	opts.SetConnectTimeout(n.config.ConnectTimeout)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(n.config.MaxReconnectDelay)

	if n.config.TLSConfig != nil {
		opts.SetTLSConfig(n.config.TLSConfig)
	}

	opts.SetOnConnectHandler(n.onConnect)
	opts.SetConnectionLostHandler(n.onConnectionLost)
	opts.SetReconnectingHandler(n.onReconnecting)

	n.client = mqtt.NewClient(opts)

	if token := n.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	n.logger.Info("MQTT push notifier started")
	return nil
}

// Stop disconnects from the broker
func (n *MQTTPushNotifier) Stop() {
	if n.client != nil && n.client.IsConnected() {
		n.client.Disconnect(250)
	}
	n.logger.Info("MQTT push notifier stopped")
}

// IsConnected returns the connection status
func (n *MQTTPushNotifier) IsConnected() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.connected
}

// Push publishes op to the device's operation topic.
func (n *MQTTPushNotifier) Push(ctx context.Context, op *core.Operation) error {
	if !n.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	payload, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("failed to marshal operation: %w", err)
	}

	topic := OperationTopic(op.Device)
	token := n.client.Publish(topic, n.config.QoS, false, payload)

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish operation: %w", err)
	}

	n.logger.WithFields(logrus.Fields{
		"topic":        topic,
		"operation_id": op.ID,
		"qos":          n.config.QoS,
	}).Debug("Operation published")
	return nil
}

// OperationTopic returns the topic a device subscribes to for operations.
func OperationTopic(id core.DeviceIdentifier) string {
	return fmt.Sprintf("%s/%s/operation", id.Type, id.ID)
}

func (n *MQTTPushNotifier) onConnect(client mqtt.Client) {
	n.mu.Lock()
	n.connected = true
	n.mu.Unlock()

	n.logger.Info("Connected to MQTT broker")
}

func (n *MQTTPushNotifier) onConnectionLost(client mqtt.Client, err error) {
	n.mu.Lock()
	n.connected = false
	n.mu.Unlock()

	n.logger.WithError(err).Warn("Lost connection to MQTT broker")
}

func (n *MQTTPushNotifier) onReconnecting(client mqtt.Client, opts *mqtt.ClientOptions) {
	n.logger.Info("Attempting to reconnect to MQTT broker...")
}
