// services/devicetype/internal/infrastructure/cache.go
package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"example.com/backstage/services/devicetype/config"
	"example.com/backstage/services/devicetype/internal/core"
	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned for devices that are not cached.
var ErrCacheMiss = errors.New("cache miss")

const defaultDeviceTTL = 24 * time.Hour

// DeviceCache keeps enrolled devices in Redis under "device:<type>:<id>".
type DeviceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDeviceCache connects to Redis and verifies the connection.
func NewDeviceCache(cfg config.RedisConfig) (*DeviceCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &DeviceCache{client: client, ttl: deviceTTL(cfg.TTL)}, nil
}

func deviceTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return defaultDeviceTTL
	}
	return ttl
}

func deviceKey(id core.DeviceIdentifier) string {
	return fmt.Sprintf("device:%s:%s", id.Type, id.ID)
}

// PutDevice caches the device until the configured TTL expires.
func (c *DeviceCache) PutDevice(ctx context.Context, device *core.Device) error {
	data, err := json.Marshal(device)
	if err != nil {
		return fmt.Errorf("failed to encode device: %w", err)
	}
	return c.client.Set(ctx, deviceKey(device.Identifier()), data, c.ttl).Err()
}

// GetDevice returns the cached device or ErrCacheMiss.
func (c *DeviceCache) GetDevice(ctx context.Context, id core.DeviceIdentifier) (*core.Device, error) {
	data, err := c.client.Get(ctx, deviceKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var device core.Device
	if err := json.Unmarshal(data, &device); err != nil {
		return nil, fmt.Errorf("failed to decode cached device: %w", err)
	}
	return &device, nil
}

func (c *DeviceCache) Close() error {
	return c.client.Close()
}
