package homeassistant

import (
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/victorjacobs/go-easycontrols/config"
)

const (
	ComponentFan          = "fan"
	ComponentSensor       = "sensor"
	ComponentBinarySensor = "binary_sensor"

	PayloadOnline  = "online"
	PayloadOffline = "offline"
	PayloadOn      = "ON"
	PayloadOff     = "OFF"
)

// StatusTopic carries the bridge availability, "offline" is also the last
// will.
const StatusTopic = config.TopicPrefix + "/status"

// MQTT is the part of mqtt.Client the discovery client uses.
type MQTT interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
}

type Client struct {
	mqtt MQTT
}

func NewClient(mqtt MQTT) *Client {
	return &Client{
		mqtt: mqtt,
	}
}

// NodeID is the discovery node of a unit, its MAC address without
// separators.
func NodeID(mac string) string {
	return strings.ReplaceAll(strings.ToLower(mac), ":", "")
}

func Topic(nodeID string, parts ...string) string {
	return strings.Join(append([]string{config.TopicPrefix, nodeID}, parts...), "/")
}

// Register publishes a retained discovery configuration.
func (h *Client) Register(component string, nodeID string, objectID string, configuration interface{}) error {
	payload, err := json.Marshal(configuration)
	if err != nil {
		return err
	}

	configTopic := fmt.Sprintf("%v/%v/%v/%v/config", config.HomeAssistantPrefix, component, nodeID, objectID)

	if t := h.mqtt.Publish(configTopic, 0, true, payload); t.Wait() && t.Error() != nil {
		return t.Error()
	}

	return nil
}

// Publish sends a retained state message.
func (h *Client) Publish(topic string, payload string) error {
	if t := h.mqtt.Publish(topic, 0, true, payload); t.Wait() && t.Error() != nil {
		return t.Error()
	}

	return nil
}

func (h *Client) PublishStatus(online bool) error {
	if online {
		return h.Publish(StatusTopic, PayloadOnline)
	}

	return h.Publish(StatusTopic, PayloadOffline)
}

func (h *Client) Subscribe(topic string, handler func(payload string)) error {
	if t := h.mqtt.Subscribe(topic, 0, func(client mqtt.Client, msg mqtt.Message) {
		handler(string(msg.Payload()))
	}); t.Wait() && t.Error() != nil {
		return t.Error()
	}

	return nil
}

func (h *Client) Unsubscribe(topics ...string) error {
	if len(topics) == 0 {
		return nil
	}

	if t := h.mqtt.Unsubscribe(topics...); t.Wait() && t.Error() != nil {
		return t.Error()
	}

	return nil
}
