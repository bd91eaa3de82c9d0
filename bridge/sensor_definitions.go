package bridge

import (
	"fmt"
	"math"

	"github.com/victorjacobs/go-easycontrols/easycontrols"
)

// Values at or above this are reported by the unit for missing sensors.
const sensorMaximum = 9999

var sensorDefinitions = append([]*sensorConfiguration{
	{
		key:       "version",
		name:      "software version",
		icon:      "mdi:new-box",
		variables: []easycontrols.Variable{easycontrols.VariableSoftwareVersion},
		value:     direct(easycontrols.VariableSoftwareVersion),
	},
	{
		key:        "fan_speed",
		name:       "fan speed percentage",
		icon:       "mdi:air-conditioner",
		stateClass: "measurement",
		unit:       "%",
		variables:  []easycontrols.Variable{easycontrols.VariablePercentageFanSpeed},
		value:      direct(easycontrols.VariablePercentageFanSpeed),
	},
	{
		key:        "fan_stage",
		name:       "fan stage",
		icon:       "mdi:air-conditioner",
		stateClass: "measurement",
		variables:  []easycontrols.Variable{easycontrols.VariableFanStage},
		value:      direct(easycontrols.VariableFanStage),
	},
	{
		key:        "extract_air_fan_stage",
		name:       "extract air fan stage",
		icon:       "mdi:air-conditioner",
		stateClass: "measurement",
		variables:  []easycontrols.Variable{easycontrols.VariableExtractAirFanStage},
		value:      direct(easycontrols.VariableExtractAirFanStage),
	},
	{
		key:        "supply_air_fan_stage",
		name:       "supply air fan stage",
		icon:       "mdi:air-conditioner",
		stateClass: "measurement",
		variables:  []easycontrols.Variable{easycontrols.VariableSupplyAirFanStage},
		value:      direct(easycontrols.VariableSupplyAirFanStage),
	},
	temperatureSensor("outside_air_temperature", "outside air temperature", easycontrols.VariableTemperatureOutsideAir, false),
	temperatureSensor("supply_air_temperature", "supply air temperature", easycontrols.VariableTemperatureSupplyAir, false),
	temperatureSensor("extract_air_temperature", "extract air temperature", easycontrols.VariableTemperatureExtractAir, false),
	temperatureSensor("outgoing_air_temperature", "outgoing air temperature", easycontrols.VariableTemperatureOutgoingAir, false),
	{
		key:        "extract_air_rpm",
		name:       "extract air rpm",
		icon:       "mdi:rotate-3d-variant",
		stateClass: "measurement",
		unit:       "rpm",
		variables:  []easycontrols.Variable{easycontrols.VariableExtractAirRPM},
		value:      direct(easycontrols.VariableExtractAirRPM),
	},
	{
		key:        "supply_air_rpm",
		name:       "supply air rpm",
		icon:       "mdi:rotate-3d-variant",
		stateClass: "measurement",
		unit:       "rpm",
		variables:  []easycontrols.Variable{easycontrols.VariableSupplyAirRPM},
		value:      direct(easycontrols.VariableSupplyAirRPM),
	},
	{
		key:        "extract_air_relative_humidity",
		name:       "extract air relative humidity",
		icon:       "mdi:water-percent",
		class:      "humidity",
		stateClass: "measurement",
		unit:       "%",
		variables:  []easycontrols.Variable{easycontrols.VariableHumidityExtractAir},
		value:      direct(easycontrols.VariableHumidityExtractAir),
	},
	{
		key:       "party_mode_remaining_time",
		name:      "party mode remaining time",
		icon:      "mdi:clock",
		unit:      "min",
		variables: []easycontrols.Variable{easycontrols.VariablePartyModeRemainingTime},
		value:     direct(easycontrols.VariablePartyModeRemainingTime),
	},
	operationHoursSensor("supply_air_fan_operation_hours", "supply air fan operation hours", easycontrols.VariableOperationHoursSupplyAirFan),
	operationHoursSensor("extract_air_fan_operation_hours", "extract air fan operation hours", easycontrols.VariableOperationHoursExtractAirFan),
	operationHoursSensor("preheater_operation_hours", "preheater operation hours", easycontrols.VariableOperationHoursPreheater),
	heaterSensor("preheater_percentage", "preheater percentage", easycontrols.VariablePercentagePreheater),
	operationHoursSensor("after_heater_operation_hours", "afterheater operation hours", easycontrols.VariableOperationHoursAfterheater),
	heaterSensor("afterheater_percentage", "afterheater percentage", easycontrols.VariablePercentageAfterheater),
	flagSensor("errors", "errors", "mdi:alert-circle", easycontrols.VariableErrors, easycontrols.Errors),
	flagSensor("warnings", "warnings", "mdi:alert-circle-outline", easycontrols.VariableWarnings, easycontrols.Warnings),
	flagSensor("information", "information", "mdi:information-outline", easycontrols.VariableInfos, easycontrols.Infos),
	{
		key:        "air_flow_rate",
		name:       "airflow rate",
		icon:       "mdi:air-filter",
		stateClass: "measurement",
		unit:       "m³/h",
		variables:  []easycontrols.Variable{easycontrols.VariablePercentageFanSpeed},
		value:      airFlowRate,
	},
	{
		key:        "heat_recover_efficiency",
		name:       "heat recovery efficiency",
		icon:       "mdi:percent",
		stateClass: "measurement",
		unit:       "%",
		variables: []easycontrols.Variable{
			easycontrols.VariableTemperatureOutsideAir,
			easycontrols.VariableTemperatureSupplyAir,
			easycontrols.VariableTemperatureExtractAir,
		},
		value: heatRecoveryEfficiency,
	},
}, externalSensorDefinitions()...)

// externalSensorDefinitions covers the eight optional external sensors of
// every kind. They are disabled by default.
func externalSensorDefinitions() []*sensorConfiguration {
	var definitions []*sensorConfiguration

	for i, variable := range easycontrols.VariableExternalFTFHumidity {
		definitions = append(definitions, &sensorConfiguration{
			key:        fmt.Sprintf("external_ftf_humidity_%v", i+1),
			name:       fmt.Sprintf("external FTF humidity %v", i+1),
			icon:       "mdi:water-percent",
			class:      "humidity",
			stateClass: "measurement",
			unit:       "%",
			disabled:   true,
			variables:  []easycontrols.Variable{variable},
			value:      bounded(variable, sensorMaximum),
		})
	}
	for i, variable := range easycontrols.VariableExternalFTFTemperature {
		definition := temperatureSensor(fmt.Sprintf("external_ftf_temperature_%v", i+1), fmt.Sprintf("external FTF temperature %v", i+1), variable, true)
		definitions = append(definitions, definition)
	}
	for i, variable := range easycontrols.VariableExternalCO2 {
		definitions = append(definitions, &sensorConfiguration{
			key:        fmt.Sprintf("external_co2_%v", i+1),
			name:       fmt.Sprintf("external CO₂ %v", i+1),
			class:      "carbon_dioxide",
			stateClass: "measurement",
			unit:       "ppm",
			disabled:   true,
			variables:  []easycontrols.Variable{variable},
			value:      bounded(variable, sensorMaximum),
		})
	}
	for i, variable := range easycontrols.VariableExternalVOC {
		definitions = append(definitions, &sensorConfiguration{
			key:        fmt.Sprintf("external_voc_%v", i+1),
			name:       fmt.Sprintf("external VOC %v", i+1),
			class:      "volatile_organic_compounds_parts",
			stateClass: "measurement",
			unit:       "ppm",
			disabled:   true,
			variables:  []easycontrols.Variable{variable},
			value:      bounded(variable, sensorMaximum),
		})
	}

	return definitions
}

func temperatureSensor(key string, name string, variable easycontrols.Variable, disabled bool) *sensorConfiguration {
	return &sensorConfiguration{
		key:        key,
		name:       name,
		icon:       "mdi:thermometer",
		class:      "temperature",
		stateClass: "measurement",
		unit:       "°C",
		disabled:   disabled,
		variables:  []easycontrols.Variable{variable},
		value:      bounded(variable, sensorMaximum),
	}
}

func operationHoursSensor(key string, name string, variable easycontrols.Variable) *sensorConfiguration {
	return &sensorConfiguration{
		key:        key,
		name:       name,
		icon:       "mdi:history",
		stateClass: "total_increasing",
		unit:       "h",
		variables:  []easycontrols.Variable{variable},
		value:      direct(variable),
	}
}

func heaterSensor(key string, name string, variable easycontrols.Variable) *sensorConfiguration {
	return &sensorConfiguration{
		key:        key,
		name:       name,
		icon:       "mdi:thermometer-lines",
		stateClass: "measurement",
		unit:       "%",
		variables:  []easycontrols.Variable{variable},
		value:      direct(variable),
	}
}

func flagSensor(key string, name string, icon string, variable easycontrols.Variable, table easycontrols.FlagTable) *sensorConfiguration {
	return &sensorConfiguration{
		key:       key,
		name:      name,
		icon:      icon,
		variables: []easycontrols.Variable{variable},
		value: func(_ coordinatorInfo, values map[easycontrols.Variable]interface{}) interface{} {
			value, ok := values[variable].(int)
			if !ok {
				return nil
			}
			return table.Text(value)
		},
	}
}

func direct(variable easycontrols.Variable) func(coordinatorInfo, map[easycontrols.Variable]interface{}) interface{} {
	return func(_ coordinatorInfo, values map[easycontrols.Variable]interface{}) interface{} {
		return values[variable]
	}
}

// bounded reports values at or above maximum as unavailable.
func bounded(variable easycontrols.Variable, maximum float64) func(coordinatorInfo, map[easycontrols.Variable]interface{}) interface{} {
	return func(_ coordinatorInfo, values map[easycontrols.Variable]interface{}) interface{} {
		value := values[variable]
		if number, ok := easycontrols.Numeric(value); ok && number >= maximum {
			return nil
		}
		return value
	}
}

func airFlowRate(coordinator coordinatorInfo, values map[easycontrols.Variable]interface{}) interface{} {
	percentage, ok := easycontrols.Numeric(values[easycontrols.VariablePercentageFanSpeed])
	if !ok {
		return nil
	}

	return coordinator.MaximumAirFlow() * percentage / 100
}

func heatRecoveryEfficiency(_ coordinatorInfo, values map[easycontrols.Variable]interface{}) interface{} {
	outside, ok := easycontrols.Numeric(values[easycontrols.VariableTemperatureOutsideAir])
	if !ok {
		return nil
	}
	supply, ok := easycontrols.Numeric(values[easycontrols.VariableTemperatureSupplyAir])
	if !ok {
		return nil
	}
	extract, ok := easycontrols.Numeric(values[easycontrols.VariableTemperatureExtractAir])
	if !ok {
		return nil
	}

	return efficiency(outside, supply, extract)
}

// efficiency is the temperature ratio of a heat exchanger in percent. It is 0
// when extract and outside air are within half a degree.
func efficiency(outside float64, supply float64, extract float64) float64 {
	if math.Abs(extract-outside) <= 0.5 {
		return 0
	}

	return math.Abs(math.Round((supply-outside)/(extract-outside)*100*100) / 100)
}
