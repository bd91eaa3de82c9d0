// Package integration sets up and tears down configured ventilation units
// and forwards them to the fan, sensor and binary sensor platforms.
package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/victorjacobs/go-easycontrols/coordinator"
	"github.com/victorjacobs/go-easycontrols/easycontrols"
	"github.com/victorjacobs/go-easycontrols/homeassistant"
)

const (
	PlatformFan          = "fan"
	PlatformSensor       = "sensor"
	PlatformBinarySensor = "binary_sensor"

	Manufacturer = "Helios"
)

// Platforms are forwarded to in this order.
var Platforms = []string{PlatformFan, PlatformSensor, PlatformBinarySensor}

var ErrEntryNotReady = errors.New("integration: entry not ready")

// Platform exposes the entities of a set up entry.
type Platform interface {
	SetupEntry(ctx context.Context, entry ConfigEntry) error
	UnloadEntry(ctx context.Context, entry ConfigEntry) error
}

type ControllerFactory func(entry ConfigEntry) Controller

type CoordinatorFactory func(ctx context.Context, entry ConfigEntry) (Coordinator, error)

// NewControllerFactory builds controllers that dial with the transport of
// their entry.
func NewControllerFactory(timeout time.Duration, logger *zap.SugaredLogger) ControllerFactory {
	return func(entry ConfigEntry) Controller {
		opts := []easycontrols.Option{
			easycontrols.WithLogger(logger.With("mac", entry.MAC)),
		}
		if dialer, err := easycontrols.DialerFor(entry.Transport, entry.BaudRate, timeout); err == nil {
			opts = append(opts, easycontrols.WithDialer(dialer))
		} else {
			opts = append(opts, easycontrols.WithDialer(failingDialer(err)))
		}

		return easycontrols.NewController(entry.Name, entry.Host, entry.MAC, opts...)
	}
}

// NewCoordinatorFactory creates coordinators with opts, dialing with the
// transport of their entry.
func NewCoordinatorFactory(timeout time.Duration, opts ...coordinator.Option) CoordinatorFactory {
	return func(ctx context.Context, entry ConfigEntry) (Coordinator, error) {
		dialer, err := easycontrols.DialerFor(entry.Transport, entry.BaudRate, timeout)
		if err != nil {
			return nil, err
		}

		return coordinator.Create(ctx, entry.Name, entry.Host, append([]coordinator.Option{coordinator.WithDialer(dialer)}, opts...)...)
	}
}

func failingDialer(err error) easycontrols.Dialer {
	return func(context.Context, string) (easycontrols.Transport, error) {
		return nil, err
	}
}

type Option func(*Integration)

func WithControllerFactory(factory ControllerFactory) Option {
	return func(i *Integration) {
		i.newController = factory
	}
}

func WithCoordinatorFactory(factory CoordinatorFactory) Option {
	return func(i *Integration) {
		i.newCoordinator = factory
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(i *Integration) {
		i.logger = logger
	}
}

type Integration struct {
	registry       *Registry
	platforms      map[string]Platform
	newController  ControllerFactory
	newCoordinator CoordinatorFactory
	logger         *zap.SugaredLogger

	setupMutex sync.Mutex
}

func New(opts ...Option) *Integration {
	i := &Integration{
		platforms:      make(map[string]Platform),
		newController:  NewControllerFactory(5*time.Second, zap.NewNop().Sugar()),
		newCoordinator: NewCoordinatorFactory(5 * time.Second),
		logger:         zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Setup creates an empty registry. It always succeeds.
func (i *Integration) Setup() bool {
	i.registry = NewRegistry()
	return true
}

func (i *Integration) Registry() *Registry {
	return i.registry
}

func (i *Integration) RegisterPlatform(name string, platform Platform) {
	i.platforms[name] = platform
}

// SetupEntry connects to the unit of entry unless it is already set up and
// forwards the entry to every platform. Connection failures are returned
// wrapped in ErrEntryNotReady and leave the registry untouched.
func (i *Integration) SetupEntry(ctx context.Context, entry ConfigEntry) error {
	if err := i.setupDevice(ctx, entry); err != nil {
		return err
	}

	return i.forwardSetup(ctx, entry)
}

func (i *Integration) setupDevice(ctx context.Context, entry ConfigEntry) error {
	i.setupMutex.Lock()
	defer i.setupMutex.Unlock()

	if i.registry.IsCoordinatorExists(entry.MAC) {
		return nil
	}

	logger := i.logger.With("entry", entry.String())

	controller := i.newController(entry)
	if err := controller.Init(ctx); err != nil {
		logger.Errorw("Initializing controller failed", "error", err)
		return fmt.Errorf("%w: %w", ErrEntryNotReady, err)
	}

	coordinator, err := i.newCoordinator(ctx, entry)
	if err != nil {
		logger.Errorw("Creating coordinator failed", "error", err)
		controller.Close()
		return fmt.Errorf("%w: %w", ErrEntryNotReady, err)
	}

	if previous, ok := i.registry.GetController(controller.MAC()); ok {
		if err := previous.Close(); err != nil {
			logger.Warnw("Closing previous controller failed", "error", err)
		}
	}

	i.registry.SetController(controller)
	i.registry.SetCoordinator(coordinator)
	logger.Infow("Entry set up", "model", controller.Model(), "version", controller.Version())

	return nil
}

func (i *Integration) forwardSetup(ctx context.Context, entry ConfigEntry) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, name := range Platforms {
		platform, ok := i.platforms[name]
		if !ok {
			i.logger.Warnw("Platform not registered", "platform", name)
			continue
		}

		name := name
		g.Go(func() error {
			if err := platform.SetupEntry(ctx, entry); err != nil {
				return fmt.Errorf("setting up %v platform: %w", name, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// UnloadEntry stops the coordinator of entry and tears down its entities on
// every platform. The controller stays registered.
func (i *Integration) UnloadEntry(ctx context.Context, entry ConfigEntry) error {
	if coordinator, ok := i.registry.removeCoordinator(entry.MAC); ok {
		coordinator.Unload()
	}

	var errs []error
	for _, name := range Platforms {
		platform, ok := i.platforms[name]
		if !ok {
			continue
		}

		if err := platform.UnloadEntry(ctx, entry); err != nil {
			errs = append(errs, fmt.Errorf("unloading %v platform: %w", name, err))
		}
	}

	i.logger.Infow("Entry unloaded", "entry", entry.String())

	return errors.Join(errs...)
}

// DeviceInfo describes the unit of controller to Home Assistant's device
// registry.
func DeviceInfo(controller Controller) homeassistant.DeviceInfo {
	return homeassistant.DeviceInfo{
		Connections:      [][2]string{{"mac", controller.MAC()}},
		Identifiers:      []string{"easycontrols_" + controller.SerialNumber()},
		Name:             controller.DeviceName(),
		Manufacturer:     Manufacturer,
		Model:            controller.Model(),
		SwVersion:        controller.Version(),
		ConfigurationUrl: "http://" + controller.Host(),
	}
}

// Close unloads the remaining coordinators and closes every controller.
func (i *Integration) Close() error {
	if i.registry == nil {
		return nil
	}

	controllers, coordinators := i.registry.drain()
	for _, coordinator := range coordinators {
		coordinator.Unload()
	}

	var errs []error
	for _, controller := range controllers {
		if err := controller.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
