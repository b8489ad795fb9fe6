// services/devicetype/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds the complete configuration for the service.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	ServiceBus  ServiceBusConfig  `mapstructure:"service_bus"`
	MQTT        MQTTConfig        `mapstructure:"mqtt"`
	HTTPPush    HTTPPushConfig    `mapstructure:"http_push"`
	DeviceTypes DeviceTypesConfig `mapstructure:"device_types"`
	Logger      *logrus.Logger    `mapstructure:"-"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DatabaseConfig holds the device store connection settings.
// An empty Driver keeps enrolled devices in memory.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // "postgres", "sqlite" or ""
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	EnableTracing   bool          `mapstructure:"enable_tracing"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	TTL          time.Duration `mapstructure:"ttl"`
}

// ServiceBusConfig holds the Azure Service Bus settings.
type ServiceBusConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	ConnectionString string `mapstructure:"connection_string"`
	QueueName        string `mapstructure:"queue_name"`
}

// MQTTConfig holds the broker used by the MQTT push-notification provider.
type MQTTConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	BrokerURL         string        `mapstructure:"broker_url"`
	ClientID          string        `mapstructure:"client_id"`
	Username          string        `mapstructure:"username"`
	Password          string        `mapstructure:"password"`
	QoS               byte          `mapstructure:"qos"`
	CleanSession      bool          `mapstructure:"clean_session"`
	KeepAlive         time.Duration `mapstructure:"keep_alive"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	MaxReconnectDelay time.Duration `mapstructure:"max_reconnect_delay"`
}

// HTTPPushConfig holds the endpoint used by the HTTP push-notification provider.
// Endpoint may contain {type} and {id} placeholders.
type HTTPPushConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DeviceTypesConfig controls where device-type documents are read from.
type DeviceTypesConfig struct {
	Dir              string        `mapstructure:"dir"`
	DefaultClaimable bool          `mapstructure:"default_claimable"`
	FlushInterval    time.Duration `mapstructure:"flush_interval"` // scheduled push providers
	MaxAttempts      int           `mapstructure:"max_delivery_attempts"`
}

// Load reads configuration from a file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("DEVICETYPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; defaults and env vars apply
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("log.level", "info")

	v.SetDefault("database.driver", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.enable_tracing", false)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 5)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.ttl", "24h")

	v.SetDefault("service_bus.enabled", false)
	v.SetDefault("service_bus.queue_name", "device-events")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("mqtt.clean_session", true)
	v.SetDefault("mqtt.keep_alive", "30s")
	v.SetDefault("mqtt.connect_timeout", "10s")
	v.SetDefault("mqtt.max_reconnect_delay", "2m")

	v.SetDefault("http_push.enabled", false)
	v.SetDefault("http_push.endpoint", "http://localhost:9000/devices/{type}/{id}/operations")
	v.SetDefault("http_push.timeout", "10s")

	v.SetDefault("device_types.dir", "./device-types")
	v.SetDefault("device_types.default_claimable", true)
	v.SetDefault("device_types.flush_interval", "1m")
	v.SetDefault("device_types.max_delivery_attempts", 5)
}

// ParseLevel maps the configured level onto logrus, falling back to info.
func (c LogConfig) ParseLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
