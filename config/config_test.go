package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "./device-types", cfg.DeviceTypes.Dir)
	assert.True(t, cfg.DeviceTypes.DefaultClaimable)
	assert.Equal(t, time.Minute, cfg.DeviceTypes.FlushInterval)
	assert.Equal(t, 5, cfg.DeviceTypes.MaxAttempts)
	assert.False(t, cfg.HTTPPush.Enabled)
	assert.Contains(t, cfg.HTTPPush.Endpoint, "{type}/{id}")
	assert.Empty(t, cfg.Database.Driver)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: 9090
database:
  driver: sqlite
  dsn: "file::memory:"
mqtt:
  enabled: true
  broker_url: tcp://broker:1883
  qos: 2
device_types:
  dir: /etc/device-types
  default_claimable: false
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, byte(2), cfg.MQTT.QoS)
	assert.Equal(t, "/etc/device-types", cfg.DeviceTypes.Dir)
	assert.False(t, cfg.DeviceTypes.DefaultClaimable)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [port"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLogConfig_ParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, LogConfig{Level: "debug"}.ParseLevel())
	assert.Equal(t, logrus.InfoLevel, LogConfig{Level: "nonsense"}.ParseLevel())
}

func TestLoad_EnvironmentOverridesNestedKeys(t *testing.T) {
	t.Setenv("DEVICETYPE_DATABASE_DRIVER", "sqlite")
	t.Setenv("DEVICETYPE_SERVER_PORT", "9999")
	t.Setenv("DEVICETYPE_DEVICE_TYPES_DEFAULT_CLAIMABLE", "false")
	t.Setenv("DEVICETYPE_MQTT_BROKER_URL", "tcp://broker:1883")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.False(t, cfg.DeviceTypes.DefaultClaimable)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.BrokerURL)
}
