package homeassistant

// DeviceInfo is the device registry record embedded in every discovery
// configuration.
type DeviceInfo struct {
	Connections      [][2]string `json:"connections,omitempty"`
	Identifiers      []string    `json:"identifiers,omitempty"`
	Name             string      `json:"name,omitempty"`
	Manufacturer     string      `json:"manufacturer,omitempty"`
	Model            string      `json:"model,omitempty"`
	SwVersion        string      `json:"sw_version,omitempty"`
	ConfigurationUrl string      `json:"configuration_url,omitempty"`
}

type Availability struct {
	Topic string `json:"topic"`
}

// Entity holds the fields shared by every discovery configuration.
type Entity struct {
	UniqueId         string         `json:"unique_id"`
	Name             string         `json:"name"`
	Icon             string         `json:"icon,omitempty"`
	EntityCategory   string         `json:"entity_category,omitempty"`
	EnabledByDefault *bool          `json:"enabled_by_default,omitempty"`
	Availability     []Availability `json:"availability,omitempty"`
	AvailabilityMode string         `json:"availability_mode,omitempty"`
	Device           DeviceInfo     `json:"device"`
}

type SensorConfiguration struct {
	Entity
	DeviceClass       string `json:"device_class,omitempty"`
	StateClass        string `json:"state_class,omitempty"`
	StateTopic        string `json:"state_topic"`
	UnitOfMeasurement string `json:"unit_of_measurement,omitempty"`
}

type BinarySensorConfiguration struct {
	Entity
	DeviceClass string `json:"device_class,omitempty"`
	StateTopic  string `json:"state_topic"`
}

type FanConfiguration struct {
	Entity
	StateTopic             string   `json:"state_topic"`
	CommandTopic           string   `json:"command_topic"`
	PercentageStateTopic   string   `json:"percentage_state_topic"`
	PercentageCommandTopic string   `json:"percentage_command_topic"`
	PresetModeStateTopic   string   `json:"preset_mode_state_topic"`
	PresetModeCommandTopic string   `json:"preset_mode_command_topic"`
	PresetModes            []string `json:"preset_modes"`
}
