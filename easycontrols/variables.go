package easycontrols

// Device information
var (
	VariableArticleDescription = StringVariable("v00000", 31)
	VariableMacAddress         = StringVariable("v00002", 18)
	VariableSerialNumber       = StringVariable("v00303", 16)
	VariableSoftwareVersion    = StringVariable("v01101", 7)
)

// Operation
var (
	VariableOperatingMode      = IntVariable("v00101", 1)
	VariableFanStage           = IntVariable("v00102", 1)
	VariablePercentageFanSpeed = IntVariable("v00103", 3)
	VariableSupplyAirFanStage  = IntVariable("v01050", 1)
	VariableExtractAirFanStage = IntVariable("v01051", 1)
	VariableSupplyAirRPM       = IntVariable("v00348", 4)
	VariableExtractAirRPM      = IntVariable("v00349", 4)
	VariableBypass             = BoolVariable("v02119")

	VariablePartyModeDuration      = IntVariable("v00091", 3)
	VariablePartyModeFanStage      = IntVariable("v00092", 1)
	VariablePartyModeRemainingTime = IntVariable("v00093", 3)
	VariablePartyMode              = BoolVariable("v00094")

	VariableStandbyModeDuration      = IntVariable("v00096", 3)
	VariableStandbyModeFanStage      = IntVariable("v00097", 1)
	VariableStandbyModeRemainingTime = IntVariable("v00098", 3)
	VariableStandbyMode              = BoolVariable("v00099")
)

// Operating modes stored in VariableOperatingMode.
const (
	OperatingModeAuto   = 0
	OperatingModeManual = 1
)

// Climate
var (
	VariableTemperatureOutsideAir  = FloatVariable("v00104", 7)
	VariableTemperatureSupplyAir   = FloatVariable("v00105", 7)
	VariableTemperatureOutgoingAir = FloatVariable("v00106", 7)
	VariableTemperatureExtractAir  = FloatVariable("v00107", 7)
	VariableHumidityExtractAir     = IntVariable("v02136", 4)

	VariableExternalFTFHumidity = []Variable{
		IntVariable("v00111", 4), IntVariable("v00112", 4), IntVariable("v00113", 4), IntVariable("v00114", 4),
		IntVariable("v00115", 4), IntVariable("v00116", 4), IntVariable("v00117", 4), IntVariable("v00118", 4),
	}
	VariableExternalFTFTemperature = []Variable{
		FloatVariable("v00119", 4), FloatVariable("v00120", 4), FloatVariable("v00121", 4), FloatVariable("v00122", 4),
		FloatVariable("v00123", 4), FloatVariable("v00124", 4), FloatVariable("v00125", 4), FloatVariable("v00126", 4),
	}
	VariableExternalCO2 = []Variable{
		IntVariable("v00128", 4), IntVariable("v00129", 4), IntVariable("v00130", 4), IntVariable("v00131", 4),
		IntVariable("v00132", 4), IntVariable("v00133", 4), IntVariable("v00134", 4), IntVariable("v00135", 4),
	}
	VariableExternalVOC = []Variable{
		IntVariable("v00136", 4), IntVariable("v00137", 4), IntVariable("v00138", 4), IntVariable("v00139", 4),
		IntVariable("v00140", 4), IntVariable("v00141", 4), IntVariable("v00142", 4), IntVariable("v00143", 4),
	}
)

// Heaters and counters
var (
	VariableOperationHoursSupplyAirFan  = OperationHoursVariable("v01103", 10)
	VariableOperationHoursExtractAirFan = OperationHoursVariable("v01104", 10)
	VariableOperationHoursPreheater     = OperationHoursVariable("v01105", 10)
	VariableOperationHoursAfterheater   = OperationHoursVariable("v01106", 10)
	VariablePercentagePreheater         = IntVariable("v01108", 4)
	VariablePercentageAfterheater       = IntVariable("v01109", 4)
)

// Fault reporting
var (
	VariableErrors           = IntVariable("v01123", 10)
	VariableWarnings         = IntVariable("v01124", 5)
	VariableInfos            = IntVariable("v01125", 5)
	VariableInfoFilterChange = FlagVariable("v01125", 5, 0x01)
)
