package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/victorjacobs/go-easycontrols/easycontrols"
	"github.com/victorjacobs/go-easycontrols/homeassistant"
	"github.com/victorjacobs/go-easycontrols/homeassistant/homeassistanttest"
	"github.com/victorjacobs/go-easycontrols/integration"
	"github.com/victorjacobs/go-easycontrols/integration/integrationtest"
)

const node = "001122aabbcc"

var entry = integration.ConfigEntry{
	Name: "Ventilation",
	Host: "192.168.1.20",
	MAC:  "00:11:22:aa:bb:cc",
}

type fixture struct {
	registry    *integration.Registry
	broker      *homeassistanttest.Broker
	client      *homeassistant.Client
	coordinator *integrationtest.Coordinator
}

func newFixture() *fixture {
	registry := integration.NewRegistry()
	coordinator := integrationtest.NewCoordinator(entry)
	registry.SetController(integrationtest.NewController(entry))
	registry.SetCoordinator(coordinator)

	broker := homeassistanttest.NewBroker()

	return &fixture{
		registry:    registry,
		broker:      broker,
		client:      homeassistant.NewClient(broker),
		coordinator: coordinator,
	}
}

func (f *fixture) payload(t *testing.T, topic string) string {
	t.Helper()

	payload, ok := f.broker.Payload(topic)
	require.True(t, ok, "nothing published to %v", topic)
	return payload
}

func TestSensorDiscovery(t *testing.T) {
	f := newFixture()
	sensors := NewSensorPlatform(f.registry, f.client, zap.NewNop().Sugar())

	require.NoError(t, sensors.SetupEntry(context.Background(), entry))

	var discovery map[string]interface{}
	require.NoError(t, f.broker.Decode("homeassistant/sensor/"+node+"/outside_air_temperature/config", &discovery))

	assert.Equal(t, "Ventilation outside air temperature", discovery["name"])
	assert.Equal(t, "00:11:22:aa:bb:ccVentilation outside air temperature", discovery["unique_id"])
	assert.Equal(t, "temperature", discovery["device_class"])
	assert.Equal(t, "°C", discovery["unit_of_measurement"])
	assert.Equal(t, "diagnostic", discovery["entity_category"])
	assert.Equal(t, "easycontrols/"+node+"/outside_air_temperature", discovery["state_topic"])
	assert.Equal(t, "all", discovery["availability_mode"])
	assert.Len(t, discovery["availability"], 2)
	assert.NotContains(t, discovery, "enabled_by_default")

	device := discovery["device"].(map[string]interface{})
	assert.Equal(t, "Helios", device["manufacturer"])
	assert.Equal(t, []interface{}{"easycontrols_SN0123456789"}, device["identifiers"])

	require.NoError(t, f.broker.Decode("homeassistant/sensor/"+node+"/external_co2_3/config", &discovery))
	assert.Equal(t, "Ventilation external CO₂ 3", discovery["name"])
	assert.Equal(t, false, discovery["enabled_by_default"])
}

func TestSensorPublishesState(t *testing.T) {
	f := newFixture()
	sensors := NewSensorPlatform(f.registry, f.client, zap.NewNop().Sugar())
	require.NoError(t, sensors.SetupEntry(context.Background(), entry))

	topic := "easycontrols/" + node + "/outside_air_temperature"
	f.coordinator.Push(easycontrols.VariableTemperatureOutsideAir, 8.5)

	assert.Equal(t, "8.5", f.payload(t, topic))
	assert.Equal(t, "online", f.payload(t, topic+"/availability"))

	f.coordinator.Push(easycontrols.VariableTemperatureOutsideAir, 9999.0)
	assert.Equal(t, "offline", f.payload(t, topic+"/availability"))

	f.coordinator.Push(easycontrols.VariableTemperatureOutsideAir, 9.0)
	assert.Equal(t, "9", f.payload(t, topic))
	assert.Equal(t, "online", f.payload(t, topic+"/availability"))

	f.coordinator.Push(easycontrols.VariableTemperatureOutsideAir, nil)
	assert.Equal(t, "offline", f.payload(t, topic+"/availability"))
}

func TestFlagSensorPublishesText(t *testing.T) {
	f := newFixture()
	sensors := NewSensorPlatform(f.registry, f.client, zap.NewNop().Sugar())
	require.NoError(t, sensors.SetupEntry(context.Background(), entry))

	f.coordinator.Push(easycontrols.VariableErrors, 0)
	assert.Equal(t, "-", f.payload(t, "easycontrols/"+node+"/errors"))

	f.coordinator.Push(easycontrols.VariableInfos, 1)
	assert.Equal(t, "Filter change", f.payload(t, "easycontrols/"+node+"/information"))
}

func TestDerivedSensors(t *testing.T) {
	f := newFixture()
	sensors := NewSensorPlatform(f.registry, f.client, zap.NewNop().Sugar())
	require.NoError(t, sensors.SetupEntry(context.Background(), entry))

	f.coordinator.Push(easycontrols.VariablePercentageFanSpeed, 50)
	assert.Equal(t, "185", f.payload(t, "easycontrols/"+node+"/air_flow_rate"))

	efficiencyTopic := "easycontrols/" + node + "/heat_recover_efficiency"
	f.coordinator.Push(easycontrols.VariableTemperatureOutsideAir, 10.0)
	f.coordinator.Push(easycontrols.VariableTemperatureSupplyAir, 18.0)
	_, published := f.broker.Payload(efficiencyTopic)
	assert.False(t, published)

	f.coordinator.Push(easycontrols.VariableTemperatureExtractAir, 20.0)
	assert.Equal(t, "80", f.payload(t, efficiencyTopic))
	assert.Equal(t, "online", f.payload(t, efficiencyTopic+"/availability"))
}

func TestSensorUnload(t *testing.T) {
	f := newFixture()
	sensors := NewSensorPlatform(f.registry, f.client, zap.NewNop().Sugar())
	require.NoError(t, sensors.SetupEntry(context.Background(), entry))
	require.NotZero(t, f.coordinator.ListenerCount())

	require.NoError(t, sensors.UnloadEntry(context.Background(), entry))

	assert.Zero(t, f.coordinator.ListenerCount())
	assert.Equal(t, "offline", f.payload(t, "easycontrols/"+node+"/fan_stage/availability"))

	_, stillDiscovered := f.broker.Payload("homeassistant/sensor/" + node + "/fan_stage/config")
	assert.True(t, stillDiscovered)

	assert.NoError(t, sensors.UnloadEntry(context.Background(), entry))
}

func TestSetupEntryTwiceReplacesListeners(t *testing.T) {
	f := newFixture()
	sensors := NewSensorPlatform(f.registry, f.client, zap.NewNop().Sugar())

	require.NoError(t, sensors.SetupEntry(context.Background(), entry))
	count := f.coordinator.ListenerCount()
	require.NoError(t, sensors.SetupEntry(context.Background(), entry))

	assert.Equal(t, count, f.coordinator.ListenerCount())
}

func TestSensorSetupEntryTwiceStaysAvailable(t *testing.T) {
	f := newFixture()
	sensors := NewSensorPlatform(f.registry, f.client, zap.NewNop().Sugar())
	topic := "easycontrols/" + node + "/fan_stage"

	require.NoError(t, sensors.SetupEntry(context.Background(), entry))
	f.coordinator.Push(easycontrols.VariableFanStage, 2)
	require.Equal(t, "online", f.payload(t, topic+"/availability"))

	require.NoError(t, sensors.SetupEntry(context.Background(), entry))
	assert.Equal(t, "online", f.payload(t, topic+"/availability"))

	f.coordinator.Push(easycontrols.VariableFanStage, 3)
	assert.Equal(t, "3", f.payload(t, topic))
	assert.Equal(t, "online", f.payload(t, topic+"/availability"))
}

func TestSetupEntryWithoutCoordinator(t *testing.T) {
	f := newFixture()
	other := integration.ConfigEntry{Name: "Attic", Host: "192.168.1.21", MAC: "00:11:22:aa:bb:cd"}

	for _, platform := range []integration.Platform{
		NewFanPlatform(f.registry, f.client, zap.NewNop().Sugar()),
		NewSensorPlatform(f.registry, f.client, zap.NewNop().Sugar()),
		NewBinarySensorPlatform(f.registry, f.client, zap.NewNop().Sugar()),
	} {
		assert.ErrorIs(t, platform.SetupEntry(context.Background(), other), ErrNoCoordinator)
	}
}

func TestBinarySensors(t *testing.T) {
	f := newFixture()
	binarySensors := NewBinarySensorPlatform(f.registry, f.client, zap.NewNop().Sugar())
	require.NoError(t, binarySensors.SetupEntry(context.Background(), entry))

	var discovery map[string]interface{}
	require.NoError(t, f.broker.Decode("homeassistant/binary_sensor/"+node+"/filter_change/config", &discovery))
	assert.Equal(t, "Ventilation filter change", discovery["name"])
	assert.Equal(t, "problem", discovery["device_class"])

	f.coordinator.Push(easycontrols.VariableBypass, true)
	assert.Equal(t, "ON", f.payload(t, "easycontrols/"+node+"/bypass"))

	f.coordinator.Push(easycontrols.VariableInfoFilterChange, false)
	assert.Equal(t, "OFF", f.payload(t, "easycontrols/"+node+"/filter_change"))

	require.NoError(t, binarySensors.UnloadEntry(context.Background(), entry))
	assert.Zero(t, f.coordinator.ListenerCount())
}

func TestFormatState(t *testing.T) {
	assert.Equal(t, "ON", formatState(true))
	assert.Equal(t, "OFF", formatState(false))
	assert.Equal(t, "21.5", formatState(21.5))
	assert.Equal(t, "3", formatState(3))
	assert.Equal(t, "2.27", formatState("2.27"))
}

func TestEfficiency(t *testing.T) {
	tests := []struct {
		name                     string
		outside, supply, extract float64
		expected                 float64
	}{
		{"heating", 10, 18, 20, 80},
		{"cooling", 30, 24, 22, 75},
		{"rounded", 0, 17.3, 21.7, 79.72},
		{"small difference", 20, 25, 20.5, 0},
		{"negative ratio", 10, 8, 20, 20},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.InDelta(t, test.expected, efficiency(test.outside, test.supply, test.extract), 0.001)
		})
	}
}

func TestHeatRecoveryEfficiencyNeedsAllTemperatures(t *testing.T) {
	assert.Nil(t, heatRecoveryEfficiency(nil, map[easycontrols.Variable]interface{}{
		easycontrols.VariableTemperatureOutsideAir: 10.0,
		easycontrols.VariableTemperatureSupplyAir:  18.0,
	}))
}

func TestBounded(t *testing.T) {
	value := bounded(easycontrols.VariableExternalCO2[0], sensorMaximum)

	assert.Equal(t, 450, value(nil, map[easycontrols.Variable]interface{}{easycontrols.VariableExternalCO2[0]: 450}))
	assert.Nil(t, value(nil, map[easycontrols.Variable]interface{}{easycontrols.VariableExternalCO2[0]: 9999}))
	assert.Nil(t, value(nil, map[easycontrols.Variable]interface{}{}))
}

func TestSensorDefinitionKeysAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, definition := range sensorDefinitions {
		assert.False(t, seen[definition.key], definition.key)
		seen[definition.key] = true
	}
	assert.Len(t, sensorDefinitions, 56)
}
