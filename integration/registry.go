package integration

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/victorjacobs/go-easycontrols/coordinator"
	"github.com/victorjacobs/go-easycontrols/easycontrols"
)

// Controller is the session to one unit and holds its device attributes.
type Controller interface {
	Init(ctx context.Context) error
	MAC() string
	DeviceName() string
	Model() string
	Version() string
	Host() string
	SerialNumber() string
	Close() error
}

// Coordinator polls one unit on behalf of the platforms.
type Coordinator interface {
	MAC() string
	DeviceName() string
	MaximumAirFlow() float64
	AddListener(variable easycontrols.Variable, listener coordinator.Listener) func()
	SetVariable(ctx context.Context, variable easycontrols.Variable, value interface{}) error
	Snapshot() (map[easycontrols.Variable]interface{}, time.Time)
	Unload()
}

// Registry holds the controller and coordinator of every set up unit, keyed
// by MAC address.
type Registry struct {
	mutex        sync.RWMutex
	controllers  map[string]Controller
	coordinators map[string]Coordinator
}

func NewRegistry() *Registry {
	return &Registry{
		controllers:  make(map[string]Controller),
		coordinators: make(map[string]Coordinator),
	}
}

func key(mac string) string {
	return easycontrols.NormalizeMAC(mac)
}

func (r *Registry) IsControllerExists(mac string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, ok := r.controllers[key(mac)]
	return ok
}

func (r *Registry) SetController(controller Controller) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.controllers[key(controller.MAC())] = controller
}

func (r *Registry) GetController(mac string) (Controller, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	controller, ok := r.controllers[key(mac)]
	return controller, ok
}

func (r *Registry) IsCoordinatorExists(mac string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, ok := r.coordinators[key(mac)]
	return ok
}

func (r *Registry) SetCoordinator(coordinator Coordinator) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.coordinators[key(coordinator.MAC())] = coordinator
}

func (r *Registry) GetCoordinator(mac string) (Coordinator, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	coordinator, ok := r.coordinators[key(mac)]
	return coordinator, ok
}

func (r *Registry) removeCoordinator(mac string) (Coordinator, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	coordinator, ok := r.coordinators[key(mac)]
	delete(r.coordinators, key(mac))
	return coordinator, ok
}

// Controllers returns the registered controllers ordered by MAC address.
func (r *Registry) Controllers() []Controller {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	controllers := make([]Controller, 0, len(r.controllers))
	for _, controller := range r.controllers {
		controllers = append(controllers, controller)
	}
	sort.Slice(controllers, func(i, j int) bool {
		return controllers[i].MAC() < controllers[j].MAC()
	})

	return controllers
}

// drain empties the registry and returns what it held.
func (r *Registry) drain() ([]Controller, []Coordinator) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	controllers := make([]Controller, 0, len(r.controllers))
	for _, controller := range r.controllers {
		controllers = append(controllers, controller)
	}
	coordinators := make([]Coordinator, 0, len(r.coordinators))
	for _, coordinator := range r.coordinators {
		coordinators = append(coordinators, coordinator)
	}

	r.controllers = make(map[string]Controller)
	r.coordinators = make(map[string]Coordinator)

	return controllers, coordinators
}
