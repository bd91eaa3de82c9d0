// Package integrationtest provides fakes of the integration collaborators.
package integrationtest

import (
	"context"
	"sync"
	"time"

	"github.com/victorjacobs/go-easycontrols/coordinator"
	"github.com/victorjacobs/go-easycontrols/easycontrols"
	"github.com/victorjacobs/go-easycontrols/integration"
)

type Controller struct {
	Name    string
	Address string
	Mac     string
	InitErr error

	mutex  sync.Mutex
	inits  int
	closed bool
}

func NewController(entry integration.ConfigEntry) *Controller {
	return &Controller{
		Name:    entry.Name,
		Address: entry.Host,
		Mac:     entry.MAC,
	}
}

func (c *Controller) Init(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.inits++
	return c.InitErr
}

func (c *Controller) MAC() string          { return c.Mac }
func (c *Controller) DeviceName() string   { return c.Name }
func (c *Controller) Model() string        { return "KWL EC 370 W" }
func (c *Controller) Version() string      { return "2.27" }
func (c *Controller) Host() string         { return c.Address }
func (c *Controller) SerialNumber() string { return "SN0123456789" }

func (c *Controller) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.closed = true
	return nil
}

func (c *Controller) Closed() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.closed
}

// Coordinator records listeners and writes. Values are pushed by the test
// and replayed to listeners added later.
type Coordinator struct {
	Mac     string
	Name    string
	AirFlow float64
	SetErr  error

	mutex     sync.Mutex
	listeners map[easycontrols.Variable]map[int]coordinator.Listener
	nextID    int
	values    map[easycontrols.Variable]interface{}
	writes    []Write
	unloads   int
}

type Write struct {
	Variable easycontrols.Variable
	Value    interface{}
}

func NewCoordinator(entry integration.ConfigEntry) *Coordinator {
	return &Coordinator{
		Mac:       entry.MAC,
		Name:      entry.Name,
		AirFlow:   370,
		listeners: make(map[easycontrols.Variable]map[int]coordinator.Listener),
		values:    make(map[easycontrols.Variable]interface{}),
	}
}

func (c *Coordinator) MAC() string             { return c.Mac }
func (c *Coordinator) DeviceName() string      { return c.Name }
func (c *Coordinator) MaximumAirFlow() float64 { return c.AirFlow }

func (c *Coordinator) AddListener(variable easycontrols.Variable, listener coordinator.Listener) func() {
	c.mutex.Lock()
	if c.listeners[variable] == nil {
		c.listeners[variable] = make(map[int]coordinator.Listener)
	}
	id := c.nextID
	c.nextID++
	c.listeners[variable][id] = listener
	value, known := c.values[variable]
	c.mutex.Unlock()

	if known {
		listener(variable, value)
	}

	return func() {
		c.mutex.Lock()
		defer c.mutex.Unlock()

		delete(c.listeners[variable], id)
		if len(c.listeners[variable]) == 0 {
			delete(c.listeners, variable)
		}
	}
}

func (c *Coordinator) SetVariable(ctx context.Context, variable easycontrols.Variable, value interface{}) error {
	c.mutex.Lock()
	if c.SetErr != nil {
		c.mutex.Unlock()
		return c.SetErr
	}
	c.writes = append(c.writes, Write{Variable: variable, Value: value})
	c.mutex.Unlock()

	c.Push(variable, value)
	return nil
}

func (c *Coordinator) Snapshot() (map[easycontrols.Variable]interface{}, time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	values := make(map[easycontrols.Variable]interface{}, len(c.values))
	for variable, value := range c.values {
		values[variable] = value
	}

	return values, time.Unix(1700000000, 0)
}

func (c *Coordinator) Unload() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.unloads++
}

// Push delivers value to the listeners of variable.
func (c *Coordinator) Push(variable easycontrols.Variable, value interface{}) {
	c.mutex.Lock()
	if value == nil {
		delete(c.values, variable)
	} else {
		c.values[variable] = value
	}
	listeners := make([]coordinator.Listener, 0, len(c.listeners[variable]))
	for _, listener := range c.listeners[variable] {
		listeners = append(listeners, listener)
	}
	c.mutex.Unlock()

	for _, listener := range listeners {
		listener(variable, value)
	}
}

func (c *Coordinator) Listened(variable easycontrols.Variable) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return len(c.listeners[variable]) > 0
}

func (c *Coordinator) ListenerCount() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	count := 0
	for _, listeners := range c.listeners {
		count += len(listeners)
	}
	return count
}

func (c *Coordinator) Writes() []Write {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return append([]Write(nil), c.writes...)
}

func (c *Coordinator) Unloads() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.unloads
}

// Platform counts setups and unloads per MAC address.
type Platform struct {
	SetupErr error

	mutex   sync.Mutex
	setups  map[string]int
	unloads map[string]int
}

func NewPlatform() *Platform {
	return &Platform{
		setups:  make(map[string]int),
		unloads: make(map[string]int),
	}
}

func (p *Platform) SetupEntry(ctx context.Context, entry integration.ConfigEntry) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.setups[entry.MAC]++
	return p.SetupErr
}

func (p *Platform) UnloadEntry(ctx context.Context, entry integration.ConfigEntry) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.unloads[entry.MAC]++
	return nil
}

func (p *Platform) Setups(mac string) int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.setups[mac]
}

func (p *Platform) Unloads(mac string) int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.unloads[mac]
}
