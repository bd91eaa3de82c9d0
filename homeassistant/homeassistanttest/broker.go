// Package homeassistanttest provides an in-memory MQTT broker for tests.
package homeassistanttest

import (
	"encoding/json"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type token struct {
	err error
}

func (t *token) Wait() bool                     { return true }
func (t *token) WaitTimeout(time.Duration) bool { return true }
func (t *token) Done() <-chan struct{} {
	done := make(chan struct{})
	close(done)
	return done
}
func (t *token) Error() error { return t.err }

type message struct {
	topic   string
	payload []byte
}

func (m *message) Duplicate() bool   { return false }
func (m *message) Qos() byte         { return 0 }
func (m *message) Retained() bool    { return false }
func (m *message) Topic() string     { return m.topic }
func (m *message) MessageID() uint16 { return 0 }
func (m *message) Payload() []byte   { return m.payload }
func (m *message) Ack()              {}

// Broker keeps the last payload per topic and the active subscriptions.
type Broker struct {
	mutex         sync.Mutex
	retained      map[string][]byte
	published     int
	subscriptions map[string]mqtt.MessageHandler
	err           error
}

func NewBroker() *Broker {
	return &Broker{
		retained:      make(map[string][]byte),
		subscriptions: make(map[string]mqtt.MessageHandler),
	}
}

func (b *Broker) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.err != nil {
		return &token{err: b.err}
	}

	switch p := payload.(type) {
	case string:
		b.retained[topic] = []byte(p)
	case []byte:
		b.retained[topic] = p
	}
	b.published++

	return &token{}
}

func (b *Broker) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.err != nil {
		return &token{err: b.err}
	}
	b.subscriptions[topic] = callback

	return &token{}
}

func (b *Broker) Unsubscribe(topics ...string) mqtt.Token {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for _, topic := range topics {
		delete(b.subscriptions, topic)
	}

	return &token{}
}

// SetError makes every publish and subscribe fail with err.
func (b *Broker) SetError(err error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.err = err
}

// Payload returns the last payload published to topic.
func (b *Broker) Payload(topic string) (string, bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	payload, ok := b.retained[topic]
	return string(payload), ok
}

// Decode unmarshals the last JSON payload published to topic.
func (b *Broker) Decode(topic string, v interface{}) error {
	b.mutex.Lock()
	payload := b.retained[topic]
	b.mutex.Unlock()

	return json.Unmarshal(payload, v)
}

func (b *Broker) Published() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return b.published
}

func (b *Broker) Subscribed(topic string) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	_, ok := b.subscriptions[topic]
	return ok
}

// Deliver hands payload to the subscriber of topic. It reports whether
// there was one.
func (b *Broker) Deliver(topic string, payload string) bool {
	b.mutex.Lock()
	handler, ok := b.subscriptions[topic]
	b.mutex.Unlock()

	if !ok {
		return false
	}
	handler(nil, &message{topic: topic, payload: []byte(payload)})

	return true
}
