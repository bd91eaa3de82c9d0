package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/victorjacobs/go-easycontrols/easycontrols"
)

const HomeAssistantPrefix = "homeassistant"
const TopicPrefix = "easycontrols"

const (
	TransportTCP = "tcp"
	TransportRTU = "rtu"
)

const envPrefix = "EASYCONTROLS_"

var ErrInvalidConfiguration = errors.New("invalid configuration")

type Configuration struct {
	Devices  []Device `yaml:"devices"`
	Mqtt     Mqtt     `yaml:"mqtt"`
	Http     Http     `yaml:"http"`
	Polling  Polling  `yaml:"polling"`
	Logging  Logging  `yaml:"logging"`
	InfluxDB InfluxDB `yaml:"influxdb"`
}

// Device is one configured ventilation unit.
type Device struct {
	Name      string `yaml:"name"`
	Host      string `yaml:"host"`
	Mac       string `yaml:"mac"`
	Transport string `yaml:"transport"`
	BaudRate  int    `yaml:"baud_rate"`
}

type Mqtt struct {
	IpAddress string `yaml:"ip_address"`
	Port      int    `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	ClientId  string `yaml:"client_id"`
}

type Http struct {
	Listen string `yaml:"listen"`
}

type Polling struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type InfluxDB struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

func defaults() *Configuration {
	return &Configuration{
		Mqtt: Mqtt{
			Port:     1883,
			ClientId: "easycontrols",
		},
		Http: Http{
			Listen: ":8080",
		},
		Polling: Polling{
			Interval: 30 * time.Second,
			Timeout:  5 * time.Second,
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfiguration reads the YAML file, applies EASYCONTROLS_* environment
// overrides and validates the result.
func LoadConfiguration(filename string) (*Configuration, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

func Parse(data []byte) (*Configuration, error) {
	configuration := defaults()
	if err := yaml.Unmarshal(data, configuration); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	configuration.applyEnvOverrides()

	for i := range configuration.Devices {
		if configuration.Devices[i].Transport == "" {
			configuration.Devices[i].Transport = TransportTCP
		}
	}

	if err := configuration.Validate(); err != nil {
		return nil, err
	}

	return configuration, nil
}

func (c *Configuration) applyEnvOverrides() {
	if v := os.Getenv(envPrefix + "MQTT_IP_ADDRESS"); v != "" {
		c.Mqtt.IpAddress = v
	}
	if v := os.Getenv(envPrefix + "MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Mqtt.Port = port
		}
	}
	if v := os.Getenv(envPrefix + "MQTT_USERNAME"); v != "" {
		c.Mqtt.Username = v
	}
	if v := os.Getenv(envPrefix + "MQTT_PASSWORD"); v != "" {
		c.Mqtt.Password = v
	}
	if v := os.Getenv(envPrefix + "HTTP_LISTEN"); v != "" {
		c.Http.Listen = v
	}
	if v := os.Getenv(envPrefix + "POLLING_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Polling.Interval = d
		}
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(envPrefix + "INFLUXDB_TOKEN"); v != "" {
		c.InfluxDB.Token = v
	}
}

// Validate rejects incomplete devices and duplicate MAC addresses.
func (c *Configuration) Validate() error {
	if c.Mqtt.IpAddress == "" {
		return fmt.Errorf("%w: mqtt.ip_address is required", ErrInvalidConfiguration)
	}
	if c.Polling.Interval <= 0 {
		return fmt.Errorf("%w: polling.interval must be positive", ErrInvalidConfiguration)
	}

	seen := make(map[string]bool)
	for i, device := range c.Devices {
		if device.Name == "" || device.Host == "" || device.Mac == "" {
			return fmt.Errorf("%w: devices[%v] needs name, host and mac", ErrInvalidConfiguration, i)
		}
		if device.Transport != TransportTCP && device.Transport != TransportRTU {
			return fmt.Errorf("%w: devices[%v] has unknown transport %q", ErrInvalidConfiguration, i, device.Transport)
		}

		mac := easycontrols.NormalizeMAC(device.Mac)
		if seen[mac] {
			return fmt.Errorf("%w: duplicate mac %v", ErrInvalidConfiguration, device.Mac)
		}
		seen[mac] = true
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		return fmt.Errorf("%w: influxdb needs url and bucket when enabled", ErrInvalidConfiguration)
	}

	return nil
}

func (m *Mqtt) ClientOptions(logger *zap.SugaredLogger) *mqtt.ClientOptions {
	return mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%v:%v", m.IpAddress, m.Port)).
		SetClientID(m.ClientId).
		SetUsername(m.Username).
		SetPassword(m.Password).
		SetAutoReconnect(true).
		SetWill(TopicPrefix+"/status", "offline", 1, true).
		SetConnectionLostHandler(func(client mqtt.Client, err error) {
			logger.Warnw("MQTT connection lost", "error", err)
		}).
		SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
			logger.Infow("MQTT reconnecting")
		})
}
