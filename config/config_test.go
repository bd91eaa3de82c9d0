package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
devices:
  - name: Ventilation
    host: 192.168.1.20
    mac: "00:11:22:33:44:55"
  - name: Cellar
    host: /dev/ttyUSB0
    mac: "00:11:22:33:44:66"
    transport: rtu
    baud_rate: 19200
mqtt:
  ip_address: 192.168.1.2
  username: bridge
polling:
  interval: 10s
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	require.Len(t, cfg.Devices, 2)
	assert.Equal(t, TransportTCP, cfg.Devices[0].Transport)
	assert.Equal(t, TransportRTU, cfg.Devices[1].Transport)
	assert.Equal(t, 19200, cfg.Devices[1].BaudRate)
	assert.Equal(t, 1883, cfg.Mqtt.Port)
	assert.Equal(t, ":8080", cfg.Http.Listen)
	assert.Equal(t, 10*time.Second, cfg.Polling.Interval)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("EASYCONTROLS_MQTT_IP_ADDRESS", "10.0.0.1")
	t.Setenv("EASYCONTROLS_POLLING_INTERVAL", "1m")

	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1", cfg.Mqtt.IpAddress)
	assert.Equal(t, time.Minute, cfg.Polling.Interval)
}

func TestParseRejectsDuplicateMac(t *testing.T) {
	_, err := Parse([]byte(`
devices:
  - {name: a, host: h1, mac: "AA:BB:CC:DD:EE:FF"}
  - {name: b, host: h2, mac: "aa:bb:cc:dd:ee:ff"}
mqtt: {ip_address: broker}
`))
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = Parse([]byte(`
devices:
  - {name: a, host: h1, mac: "00:11:22:aa:bb:cc"}
  - {name: b, host: h2, mac: "00-11-22-AA-BB-CC"}
mqtt: {ip_address: broker}
`))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestParseRejectsIncompleteDevice(t *testing.T) {
	_, err := Parse([]byte(`
devices:
  - {name: a, mac: "AA:BB:CC:DD:EE:FF"}
mqtt: {ip_address: broker}
`))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestParseRejectsUnknownTransport(t *testing.T) {
	_, err := Parse([]byte(`
devices:
  - {name: a, host: h, mac: "AA:BB:CC:DD:EE:FF", transport: udp}
mqtt: {ip_address: broker}
`))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestLoadConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "easycontrols.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := LoadConfiguration(path)
	require.NoError(t, err)
	assert.Equal(t, "Ventilation", cfg.Devices[0].Name)

	_, err = LoadConfiguration(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
