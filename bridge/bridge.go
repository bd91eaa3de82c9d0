// Package bridge exposes set up ventilation units to Home Assistant as fan,
// sensor and binary sensor entities over MQTT discovery.
package bridge

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/victorjacobs/go-easycontrols/easycontrols"
	"github.com/victorjacobs/go-easycontrols/homeassistant"
	"github.com/victorjacobs/go-easycontrols/integration"
)

var ErrNoCoordinator = errors.New("bridge: no coordinator for entry")

const entityCategoryDiagnostic = "diagnostic"

// platform keeps what was set up per entry so it can be undone on unload.
type platform struct {
	name     string
	registry *integration.Registry
	client   *homeassistant.Client
	logger   *zap.SugaredLogger

	mutex         sync.Mutex
	registrations map[string]*registration
}

type registration struct {
	removers      []func()
	subscriptions map[string]func(payload string)
	entities      []*entity
}

func newPlatform(name string, registry *integration.Registry, client *homeassistant.Client, logger *zap.SugaredLogger) platform {
	return platform{
		name:          name,
		registry:      registry,
		client:        client,
		logger:        logger.Named(name),
		registrations: make(map[string]*registration),
	}
}

func (p *platform) coordinator(entry integration.ConfigEntry) (integration.Coordinator, error) {
	coordinator, ok := p.registry.GetCoordinator(entry.MAC)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNoCoordinator, entry)
	}

	return coordinator, nil
}

// deviceInfo is the full device record when the controller is known, the
// MAC connection otherwise.
func (p *platform) deviceInfo(mac string) homeassistant.DeviceInfo {
	if controller, ok := p.registry.GetController(mac); ok {
		return integration.DeviceInfo(controller)
	}

	return homeassistant.DeviceInfo{
		Connections: [][2]string{{"mac", mac}},
	}
}

// register stores r for mac. A previous setup of the same entry must have
// been released, its topics are shared with r.
func (p *platform) register(mac string, r *registration) {
	p.mutex.Lock()
	p.registrations[mac] = r
	p.mutex.Unlock()
}

// release undoes a previous setup of mac before it is set up again.
func (p *platform) release(mac string) {
	if err := p.unload(mac); err != nil {
		p.logger.Warnw("Releasing previous setup failed", "mac", mac, "error", err)
	}
}

func (p *platform) unload(mac string) error {
	p.mutex.Lock()
	r := p.registrations[mac]
	delete(p.registrations, mac)
	p.mutex.Unlock()

	if r == nil {
		return nil
	}

	p.logger.Infow("Unloading entities", "mac", mac, "count", len(r.entities))
	return p.undo(r)
}

// Resubscribe renews the command subscriptions of every entry, e.g. after
// the MQTT connection was re-established.
func (p *platform) Resubscribe() error {
	p.mutex.Lock()
	subscriptions := make(map[string]func(string))
	for _, r := range p.registrations {
		for topic, handler := range r.subscriptions {
			subscriptions[topic] = handler
		}
	}
	p.mutex.Unlock()

	var errs []error
	for topic, handler := range subscriptions {
		if err := p.client.Subscribe(topic, handler); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (p *platform) undo(r *registration) error {
	for _, remove := range r.removers {
		remove()
	}

	topics := make([]string, 0, len(r.subscriptions))
	for topic := range r.subscriptions {
		topics = append(topics, topic)
	}

	var errs []error
	if err := p.client.Unsubscribe(topics...); err != nil {
		errs = append(errs, err)
	}
	for _, e := range r.entities {
		if err := e.setAvailable(false); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// entity is one discovered Home Assistant entity of a unit. State is
// published to stateTopic and availability to stateTopic/availability.
type entity struct {
	client     *homeassistant.Client
	component  string
	nodeID     string
	objectID   string
	name       string
	uniqueID   string
	stateTopic string

	mutex     sync.Mutex
	available *bool
}

func newEntity(client *homeassistant.Client, component string, coordinator integration.Coordinator, key string, suffix string) *entity {
	name := coordinator.DeviceName()
	if suffix != "" {
		name += " " + suffix
	}
	nodeID := homeassistant.NodeID(coordinator.MAC())

	return &entity{
		client:     client,
		component:  component,
		nodeID:     nodeID,
		objectID:   key,
		name:       name,
		uniqueID:   coordinator.MAC() + name,
		stateTopic: homeassistant.Topic(nodeID, key),
	}
}

func (e *entity) availabilityTopic() string {
	return e.stateTopic + "/availability"
}

func (e *entity) base(device homeassistant.DeviceInfo, icon string, category string, enabled bool) homeassistant.Entity {
	base := homeassistant.Entity{
		UniqueId:       e.uniqueID,
		Name:           e.name,
		Icon:           icon,
		EntityCategory: category,
		Availability: []homeassistant.Availability{
			{Topic: homeassistant.StatusTopic},
			{Topic: e.availabilityTopic()},
		},
		AvailabilityMode: "all",
		Device:           device,
	}
	if !enabled {
		base.EnabledByDefault = &enabled
	}

	return base
}

func (e *entity) register(configuration interface{}) error {
	return e.client.Register(e.component, e.nodeID, e.objectID, configuration)
}

// setAvailable publishes availability when it changed.
func (e *entity) setAvailable(available bool) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.available != nil && *e.available == available {
		return nil
	}

	payload := homeassistant.PayloadOffline
	if available {
		payload = homeassistant.PayloadOnline
	}
	if err := e.client.Publish(e.availabilityTopic(), payload); err != nil {
		return err
	}
	e.available = &available

	return nil
}

// publish sends state, or marks the entity unavailable for a nil value.
func (e *entity) publish(value interface{}) error {
	if value == nil {
		return e.setAvailable(false)
	}

	if err := e.client.Publish(e.stateTopic, formatState(value)); err != nil {
		return err
	}

	return e.setAvailable(true)
}

func formatState(value interface{}) string {
	switch v := value.(type) {
	case bool:
		if v {
			return homeassistant.PayloadOn
		}
		return homeassistant.PayloadOff
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// values collects the latest values of the variables an entity derives its
// state from.
type values struct {
	mutex  sync.Mutex
	values map[easycontrols.Variable]interface{}
}

func newValues() *values {
	return &values{values: make(map[easycontrols.Variable]interface{})}
}

// update stores value and returns a copy of every known value.
func (v *values) update(variable easycontrols.Variable, value interface{}) map[easycontrols.Variable]interface{} {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	if value == nil {
		delete(v.values, variable)
	} else {
		v.values[variable] = value
	}

	current := make(map[easycontrols.Variable]interface{}, len(v.values))
	for variable, value := range v.values {
		current[variable] = value
	}

	return current
}
