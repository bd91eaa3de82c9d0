package bridge

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/victorjacobs/go-easycontrols/easycontrols"
	"github.com/victorjacobs/go-easycontrols/homeassistant"
	"github.com/victorjacobs/go-easycontrols/integration"
)

const (
	PresetAuto    = "auto"
	PresetManual  = "manual"
	PresetParty   = "party"
	PresetStandby = "standby"

	fanStages       = 4
	stagePercentage = 100 / fanStages
	commandTimeout  = 10 * time.Second
)

var presetModes = []string{PresetAuto, PresetManual, PresetParty, PresetStandby}

var fanVariables = []easycontrols.Variable{
	easycontrols.VariableFanStage,
	easycontrols.VariableOperatingMode,
	easycontrols.VariablePartyMode,
	easycontrols.VariableStandbyMode,
}

type FanPlatform struct {
	platform
}

func NewFanPlatform(registry *integration.Registry, client *homeassistant.Client, logger *zap.SugaredLogger) *FanPlatform {
	return &FanPlatform{
		platform: newPlatform(integration.PlatformFan, registry, client, logger),
	}
}

// fan is the fan entity of one unit.
type fan struct {
	*entity
	coordinator integration.Coordinator
	logger      *zap.SugaredLogger

	mutex     sync.Mutex
	values    map[easycontrols.Variable]interface{}
	lastStage int
}

func (f *fan) commandTopic() string           { return f.stateTopic + "/cmd" }
func (f *fan) percentageTopic() string        { return f.stateTopic + "/percentage" }
func (f *fan) percentageCommandTopic() string { return f.stateTopic + "/percentage/cmd" }
func (f *fan) presetTopic() string            { return f.stateTopic + "/preset" }
func (f *fan) presetCommandTopic() string     { return f.stateTopic + "/preset/cmd" }

func (p *FanPlatform) SetupEntry(ctx context.Context, entry integration.ConfigEntry) error {
	p.logger.Infow("Setting up fan", "entry", entry.String())

	coordinator, err := p.coordinator(entry)
	if err != nil {
		return err
	}
	p.release(entry.MAC)

	f := &fan{
		entity:      newEntity(p.client, homeassistant.ComponentFan, coordinator, "fan", ""),
		coordinator: coordinator,
		logger:      p.logger.With("mac", entry.MAC),
		values:      make(map[easycontrols.Variable]interface{}),
		lastStage:   1,
	}

	if err := f.register(homeassistant.FanConfiguration{
		Entity:                 f.base(p.deviceInfo(entry.MAC), "mdi:air-conditioner", "", true),
		StateTopic:             f.stateTopic,
		CommandTopic:           f.commandTopic(),
		PercentageStateTopic:   f.percentageTopic(),
		PercentageCommandTopic: f.percentageCommandTopic(),
		PresetModeStateTopic:   f.presetTopic(),
		PresetModeCommandTopic: f.presetCommandTopic(),
		PresetModes:            presetModes,
	}); err != nil {
		return fmt.Errorf("registering fan %v: %w", f.name, err)
	}

	r := &registration{
		entities:      []*entity{f.entity},
		subscriptions: make(map[string]func(string)),
	}

	commands := map[string]func(string){
		f.commandTopic():           f.handleCommand,
		f.percentageCommandTopic(): f.handlePercentage,
		f.presetCommandTopic():     f.handlePreset,
	}
	for topic, handler := range commands {
		if err := p.client.Subscribe(topic, handler); err != nil {
			p.undo(r)
			return fmt.Errorf("subscribing to %v: %w", topic, err)
		}
		r.subscriptions[topic] = handler
	}

	for _, variable := range fanVariables {
		r.removers = append(r.removers, coordinator.AddListener(variable, f.update))
	}

	p.logger.Infow("Setting up fan completed", "entry", entry.String())

	p.register(entry.MAC, r)

	return nil
}

func (p *FanPlatform) UnloadEntry(ctx context.Context, entry integration.ConfigEntry) error {
	return p.unload(entry.MAC)
}

func (f *fan) update(variable easycontrols.Variable, value interface{}) {
	f.mutex.Lock()
	if value == nil {
		delete(f.values, variable)
	} else {
		f.values[variable] = value
	}
	stage, known := f.values[easycontrols.VariableFanStage].(int)
	if known && stage > 0 {
		f.lastStage = stage
	}
	preset := f.presetLocked()
	f.mutex.Unlock()

	if !known {
		if err := f.setAvailable(false); err != nil {
			f.logger.Warnw("MQTT publishing failed", "error", err)
		}
		return
	}

	if err := f.publishState(stage, preset); err != nil {
		f.logger.Warnw("MQTT publishing failed", "error", err)
	}
}

func (f *fan) publishState(stage int, preset string) error {
	if err := f.client.Publish(f.percentageTopic(), strconv.Itoa(percentageForStage(stage))); err != nil {
		return err
	}
	if preset != "" {
		if err := f.client.Publish(f.presetTopic(), preset); err != nil {
			return err
		}
	}

	return f.publish(stage > 0)
}

func (f *fan) presetLocked() string {
	if party, _ := f.values[easycontrols.VariablePartyMode].(bool); party {
		return PresetParty
	}
	if standby, _ := f.values[easycontrols.VariableStandbyMode].(bool); standby {
		return PresetStandby
	}

	mode, ok := f.values[easycontrols.VariableOperatingMode].(int)
	if !ok {
		return ""
	}
	if mode == easycontrols.OperatingModeAuto {
		return PresetAuto
	}
	return PresetManual
}

func (f *fan) handleCommand(payload string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var err error
	if strings.EqualFold(payload, homeassistant.PayloadOff) {
		err = f.setStage(ctx, 0)
	} else {
		f.mutex.Lock()
		stage := f.lastStage
		f.mutex.Unlock()

		err = f.setStage(ctx, stage)
	}

	if err != nil {
		f.logger.Errorw("Switching fan failed", "command", payload, "error", err)
	}
}

func (f *fan) handlePercentage(payload string) {
	percentage, err := strconv.Atoi(strings.TrimSpace(payload))
	if err != nil {
		f.logger.Warnw("Invalid fan percentage", "payload", payload)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := f.setStage(ctx, stageForPercentage(percentage)); err != nil {
		f.logger.Errorw("Setting fan speed failed", "percentage", percentage, "error", err)
	}
}

func (f *fan) handlePreset(payload string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := f.setPreset(ctx, payload); err != nil {
		f.logger.Errorw("Setting fan preset failed", "preset", payload, "error", err)
	}
}

// setStage switches to manual mode and sets the fan stage. Stage 0 turns
// the fan off.
func (f *fan) setStage(ctx context.Context, stage int) error {
	if err := f.coordinator.SetVariable(ctx, easycontrols.VariableOperatingMode, easycontrols.OperatingModeManual); err != nil {
		return err
	}

	return f.coordinator.SetVariable(ctx, easycontrols.VariableFanStage, stage)
}

func (f *fan) setPreset(ctx context.Context, preset string) error {
	switch preset {
	case PresetParty:
		return f.coordinator.SetVariable(ctx, easycontrols.VariablePartyMode, true)
	case PresetStandby:
		return f.coordinator.SetVariable(ctx, easycontrols.VariableStandbyMode, true)
	case PresetAuto, PresetManual:
	default:
		return fmt.Errorf("unknown preset %q", preset)
	}

	f.mutex.Lock()
	party, _ := f.values[easycontrols.VariablePartyMode].(bool)
	standby, _ := f.values[easycontrols.VariableStandbyMode].(bool)
	f.mutex.Unlock()

	if party {
		if err := f.coordinator.SetVariable(ctx, easycontrols.VariablePartyMode, false); err != nil {
			return err
		}
	}
	if standby {
		if err := f.coordinator.SetVariable(ctx, easycontrols.VariableStandbyMode, false); err != nil {
			return err
		}
	}

	mode := easycontrols.OperatingModeManual
	if preset == PresetAuto {
		mode = easycontrols.OperatingModeAuto
	}

	return f.coordinator.SetVariable(ctx, easycontrols.VariableOperatingMode, mode)
}

func percentageForStage(stage int) int {
	return stage * stagePercentage
}

// stageForPercentage rounds up to the next stage, 1% is stage 1.
func stageForPercentage(percentage int) int {
	if percentage <= 0 {
		return 0
	}

	stage := (percentage + stagePercentage - 1) / stagePercentage
	if stage > fanStages {
		return fanStages
	}

	return stage
}
