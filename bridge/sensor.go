package bridge

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/victorjacobs/go-easycontrols/easycontrols"
	"github.com/victorjacobs/go-easycontrols/homeassistant"
	"github.com/victorjacobs/go-easycontrols/integration"
)

type SensorPlatform struct {
	platform
}

func NewSensorPlatform(registry *integration.Registry, client *homeassistant.Client, logger *zap.SugaredLogger) *SensorPlatform {
	return &SensorPlatform{
		platform: newPlatform(integration.PlatformSensor, registry, client, logger),
	}
}

// SetupEntry publishes discovery for every sensor of the unit and starts
// publishing their state.
func (s *SensorPlatform) SetupEntry(ctx context.Context, entry integration.ConfigEntry) error {
	s.logger.Infow("Setting up sensors", "entry", entry.String())

	coordinator, err := s.coordinator(entry)
	if err != nil {
		return err
	}
	s.release(entry.MAC)
	device := s.deviceInfo(entry.MAC)

	r := &registration{}
	for _, definition := range sensorDefinitions {
		e := newEntity(s.client, homeassistant.ComponentSensor, coordinator, definition.key, definition.name)

		if err := e.register(homeassistant.SensorConfiguration{
			Entity:            e.base(device, definition.icon, entityCategoryDiagnostic, !definition.disabled),
			DeviceClass:       definition.class,
			StateClass:        definition.stateClass,
			StateTopic:        e.stateTopic,
			UnitOfMeasurement: definition.unit,
		}); err != nil {
			s.undo(r)
			return fmt.Errorf("registering sensor %v: %w", e.name, err)
		}
		s.logger.Debugw("Registered sensor", "name", e.name)

		r.entities = append(r.entities, e)
		r.removers = append(r.removers, s.listen(coordinator, e, definition)...)
	}

	s.logger.Infow("Setting up sensors completed", "entry", entry.String(), "count", len(r.entities))

	s.register(entry.MAC, r)

	return nil
}

func (s *SensorPlatform) listen(coordinator integration.Coordinator, e *entity, definition *sensorConfiguration) []func() {
	known := newValues()

	listener := func(variable easycontrols.Variable, value interface{}) {
		current := known.update(variable, value)
		if err := e.publish(definition.value(coordinator, current)); err != nil {
			s.logger.Warnw("MQTT publishing failed", "sensor", e.name, "error", err)
		}
	}

	removers := make([]func(), 0, len(definition.variables))
	for _, variable := range definition.variables {
		removers = append(removers, coordinator.AddListener(variable, listener))
	}

	return removers
}

func (s *SensorPlatform) UnloadEntry(ctx context.Context, entry integration.ConfigEntry) error {
	return s.unload(entry.MAC)
}
