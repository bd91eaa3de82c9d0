package coordinator

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/victorjacobs/go-easycontrols/easycontrols"
)

const (
	DefaultInterval = 30 * time.Second
	defaultTimeout  = 5 * time.Second
)

// Listener receives the latest value of a variable. A nil value means the
// variable could not be read.
type Listener func(variable easycontrols.Variable, value interface{})

// Observer is notified of every poll cycle and value update. Used for
// metrics and history.
type Observer interface {
	Polled(mac string, duration time.Duration, err error)
	Updated(mac string, variable easycontrols.Variable, value interface{})
}

type Option func(*Coordinator)

func WithInterval(interval time.Duration) Option {
	return func(c *Coordinator) {
		c.interval = interval
	}
}

func WithDialer(dialer easycontrols.Dialer) Option {
	return func(c *Coordinator) {
		c.dialer = dialer
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func WithObserver(observer Observer) Option {
	return func(c *Coordinator) {
		c.observers = append(c.observers, observer)
	}
}

// Coordinator polls one unit for the variables that have listeners and fans
// the values out to them.
type Coordinator struct {
	name           string
	host           string
	mac            string
	maximumAirFlow float64

	client    *easycontrols.Client
	dialer    easycontrols.Dialer
	interval  time.Duration
	logger    *zap.SugaredLogger
	observers []Observer

	refreshMutex sync.Mutex

	mutex      sync.Mutex
	listeners  map[easycontrols.Variable]map[int]Listener
	nextID     int
	values     map[easycontrols.Variable]interface{}
	lastUpdate time.Time

	refresh    chan struct{}
	cancel     context.CancelFunc
	done       chan struct{}
	unloadOnce sync.Once
}

// Create connects to the unit at host, reads its identity and starts polling.
func Create(ctx context.Context, name string, host string, opts ...Option) (*Coordinator, error) {
	c := &Coordinator{
		name:      name,
		host:      host,
		dialer:    easycontrols.TCPDialer(defaultTimeout),
		interval:  DefaultInterval,
		logger:    zap.NewNop().Sugar(),
		listeners: make(map[easycontrols.Variable]map[int]Listener),
		values:    make(map[easycontrols.Variable]interface{}),
		refresh:   make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	transport, err := c.dialer(ctx, host)
	if err != nil {
		return nil, err
	}
	c.client = easycontrols.NewClient(transport)

	mac, err := c.client.Get(ctx, easycontrols.VariableMacAddress)
	if err != nil {
		c.client.Close()
		return nil, err
	}
	model, err := c.client.Get(ctx, easycontrols.VariableArticleDescription)
	if err != nil {
		c.client.Close()
		return nil, err
	}

	c.mac = easycontrols.NormalizeMAC(mac.(string))
	c.maximumAirFlow = parseMaximumAirFlow(model.(string))
	c.logger = c.logger.With("mac", c.mac)

	loopCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.run(loopCtx)

	return c, nil
}

var airFlowPattern = regexp.MustCompile(`\d+`)

// parseMaximumAirFlow takes the nominal air flow from the model name, e.g.
// "KWL EC 370 W" is 370 m³/h.
func parseMaximumAirFlow(model string) float64 {
	match := airFlowPattern.FindString(model)
	if match == "" {
		return 0
	}

	airFlow, _ := strconv.Atoi(match)
	return float64(airFlow)
}

func (c *Coordinator) MAC() string {
	return c.mac
}

func (c *Coordinator) DeviceName() string {
	return c.name
}

func (c *Coordinator) Host() string {
	return c.host
}

// MaximumAirFlow is the nominal air flow in m³/h at 100% fan speed.
func (c *Coordinator) MaximumAirFlow() float64 {
	return c.maximumAirFlow
}

// AddListener registers listener for variable and returns a function that
// removes it. A known value is delivered right away and a poll is requested.
func (c *Coordinator) AddListener(variable easycontrols.Variable, listener Listener) func() {
	c.mutex.Lock()
	if c.listeners[variable] == nil {
		c.listeners[variable] = make(map[int]Listener)
	}
	id := c.nextID
	c.nextID++
	c.listeners[variable][id] = listener
	value, known := c.values[variable]
	c.mutex.Unlock()

	if known {
		listener(variable, value)
	}

	select {
	case c.refresh <- struct{}{}:
	default:
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

// SetVariable writes value to the unit and notifies the listeners of
// variable with it.
func (c *Coordinator) SetVariable(ctx context.Context, variable easycontrols.Variable, value interface{}) error {
	if err := c.client.Set(ctx, variable, value); err != nil {
		return err
	}

	c.logger.Debugw("Variable set", "variable", variable.Name, "value", value)
	c.update(variable, value)

	return nil
}

// Refresh polls every variable that has listeners once. Variables sharing a
// name are read with a single request.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.refreshMutex.Lock()
	defer c.refreshMutex.Unlock()

	groups := c.polledGroups()
	if len(groups) == 0 {
		return nil
	}

	start := time.Now()
	var firstErr error

	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := c.client.GetRaw(ctx, group.name, group.size)
		if err != nil {
			c.logger.Warnw("Reading variable failed", "variable", group.name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}

		for _, variable := range group.variables {
			if err != nil {
				c.update(variable, nil)
				continue
			}
			c.update(variable, c.parse(variable, raw))
		}
	}

	duration := time.Since(start)
	for _, observer := range c.observers {
		observer.Polled(c.mac, duration, firstErr)
	}

	c.mutex.Lock()
	c.lastUpdate = time.Now()
	c.mutex.Unlock()

	return firstErr
}

// Snapshot returns the last known value of every polled or written
// variable.
func (c *Coordinator) Snapshot() (map[easycontrols.Variable]interface{}, time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	values := make(map[easycontrols.Variable]interface{}, len(c.values))
	for variable, value := range c.values {
		values[variable] = value
	}

	return values, c.lastUpdate
}

// Unload stops polling and closes the connection. It returns once the poll
// loop has exited.
func (c *Coordinator) Unload() {
	c.unloadOnce.Do(func() {
		c.cancel()
		<-c.done

		if err := c.client.Close(); err != nil {
			c.logger.Warnw("Closing connection failed", "error", err)
		}
		c.logger.Infow("Coordinator unloaded")
	})
}

func (c *Coordinator) run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-c.refresh:
		}

		c.refreshSafely(ctx)
	}
}

func (c *Coordinator) refreshSafely(ctx context.Context) {
	defer func() {
		if v := recover(); v != nil {
			c.logger.Errorw("Panic during refresh", "panic", v)
		}
	}()

	if err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
		c.logger.Warnw("Refresh failed", "error", err)
	}
}

type variableGroup struct {
	name      string
	size      int
	variables []easycontrols.Variable
}

func (c *Coordinator) polledGroups() []*variableGroup {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	byName := make(map[string]*variableGroup)
	for variable := range c.listeners {
		group, ok := byName[variable.Name]
		if !ok {
			group = &variableGroup{name: variable.Name}
			byName[variable.Name] = group
		}
		if variable.Size > group.size {
			group.size = variable.Size
		}
		group.variables = append(group.variables, variable)
	}

	groups := make([]*variableGroup, 0, len(byName))
	for _, group := range byName {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].name < groups[j].name
	})

	return groups
}

func (c *Coordinator) parse(variable easycontrols.Variable, raw string) interface{} {
	value, err := variable.Parse(raw)
	if err != nil {
		c.logger.Warnw("Parsing variable failed", "variable", variable.Name, "raw", raw, "error", err)
		return nil
	}

	return value
}

func (c *Coordinator) update(variable easycontrols.Variable, value interface{}) {
	c.mutex.Lock()
	if value == nil {
		delete(c.values, variable)
	} else {
		c.values[variable] = value
	}
	listeners := make([]Listener, 0, len(c.listeners[variable]))
	for _, listener := range c.listeners[variable] {
		listeners = append(listeners, listener)
	}
	c.mutex.Unlock()

	for _, listener := range listeners {
		listener(variable, value)
	}

	for _, observer := range c.observers {
		observer.Updated(c.mac, variable, value)
	}
}
