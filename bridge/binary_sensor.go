package bridge

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/victorjacobs/go-easycontrols/easycontrols"
	"github.com/victorjacobs/go-easycontrols/homeassistant"
	"github.com/victorjacobs/go-easycontrols/integration"
)

var binarySensorDefinitions = [...]*binarySensorConfiguration{
	{
		key:      "bypass",
		name:     "bypass",
		icon:     "mdi:delta",
		class:    "opening",
		variable: easycontrols.VariableBypass,
	},
	{
		key:      "filter_change",
		name:     "filter change",
		icon:     "mdi:air-filter",
		class:    "problem",
		variable: easycontrols.VariableInfoFilterChange,
	},
}

type BinarySensorPlatform struct {
	platform
}

func NewBinarySensorPlatform(registry *integration.Registry, client *homeassistant.Client, logger *zap.SugaredLogger) *BinarySensorPlatform {
	return &BinarySensorPlatform{
		platform: newPlatform(integration.PlatformBinarySensor, registry, client, logger),
	}
}

func (b *BinarySensorPlatform) SetupEntry(ctx context.Context, entry integration.ConfigEntry) error {
	b.logger.Infow("Setting up binary sensors", "entry", entry.String())

	coordinator, err := b.coordinator(entry)
	if err != nil {
		return err
	}
	b.release(entry.MAC)
	device := b.deviceInfo(entry.MAC)

	r := &registration{}
	for _, definition := range binarySensorDefinitions {
		e := newEntity(b.client, homeassistant.ComponentBinarySensor, coordinator, definition.key, definition.name)

		if err := e.register(homeassistant.BinarySensorConfiguration{
			Entity:      e.base(device, definition.icon, entityCategoryDiagnostic, true),
			DeviceClass: definition.class,
			StateTopic:  e.stateTopic,
		}); err != nil {
			b.undo(r)
			return fmt.Errorf("registering binary sensor %v: %w", e.name, err)
		}

		r.entities = append(r.entities, e)
		r.removers = append(r.removers, coordinator.AddListener(definition.variable, func(_ easycontrols.Variable, value interface{}) {
			if err := e.publish(value); err != nil {
				b.logger.Warnw("MQTT publishing failed", "binary_sensor", e.name, "error", err)
			}
		}))
	}

	b.logger.Infow("Setting up binary sensors completed", "entry", entry.String())

	b.register(entry.MAC, r)

	return nil
}

func (b *BinarySensorPlatform) UnloadEntry(ctx context.Context, entry integration.ConfigEntry) error {
	return b.unload(entry.MAC)
}
