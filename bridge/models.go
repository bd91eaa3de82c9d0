package bridge

import "github.com/victorjacobs/go-easycontrols/easycontrols"

// sensorConfiguration describes a sensor entity. Its state is computed by
// value from the latest values of variables; nil means unavailable.
type sensorConfiguration struct {
	key        string
	name       string
	icon       string
	class      string
	stateClass string
	unit       string
	disabled   bool
	variables  []easycontrols.Variable
	value      func(coordinator coordinatorInfo, values map[easycontrols.Variable]interface{}) interface{}
}

type binarySensorConfiguration struct {
	key      string
	name     string
	icon     string
	class    string
	variable easycontrols.Variable
}

// coordinatorInfo is what derived sensors need to know about the unit.
type coordinatorInfo interface {
	MaximumAirFlow() float64
}
