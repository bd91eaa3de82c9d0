package easycontrols

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type kind int

const (
	kindString kind = iota
	kindBool
	kindInt
	kindFloat
	kindOperationHours
	kindFlag
)

// Variable is a named EasyControls register variable (vNNNNN). Size is the
// maximum length of its textual value.
type Variable struct {
	Name string
	Size int
	kind kind
	flag int
}

func StringVariable(name string, size int) Variable {
	return Variable{Name: name, Size: size, kind: kindString}
}

func BoolVariable(name string) Variable {
	return Variable{Name: name, Size: 1, kind: kindBool}
}

func IntVariable(name string, size int) Variable {
	return Variable{Name: name, Size: size, kind: kindInt}
}

func FloatVariable(name string, size int) Variable {
	return Variable{Name: name, Size: size, kind: kindFloat}
}

// OperationHoursVariable is reported by the unit in minutes and exposed in
// hours, rounded to two decimals.
func OperationHoursVariable(name string, size int) Variable {
	return Variable{Name: name, Size: size, kind: kindOperationHours}
}

// FlagVariable is true when every bit of flag is set in the integer value.
// It is read-only.
func FlagVariable(name string, size int, flag int) Variable {
	return Variable{Name: name, Size: size, kind: kindFlag, flag: flag}
}

func (v Variable) IsFlag() bool {
	return v.kind == kindFlag
}

func (v Variable) String() string {
	return fmt.Sprintf("%v [%v]", v.Name, v.Size)
}

// Parse converts the raw value received from the unit.
func (v Variable) Parse(raw string) (interface{}, error) {
	raw = strings.TrimSpace(raw)

	switch v.kind {
	case kindBool:
		return raw == "1", nil
	case kindInt:
		i, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v=%q", ErrInvalidValue, v.Name, raw)
		}
		return i, nil
	case kindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v=%q", ErrInvalidValue, v.Name, raw)
		}
		return f, nil
	case kindOperationHours:
		minutes, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v=%q", ErrInvalidValue, v.Name, raw)
		}
		return math.Round(float64(minutes)/60.0*100) / 100, nil
	case kindFlag:
		i, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v=%q", ErrInvalidValue, v.Name, raw)
		}
		return i&v.flag == v.flag, nil
	default:
		return raw, nil
	}
}

// Format converts a value into the text sent to the unit.
func (v Variable) Format(value interface{}) (string, error) {
	switch v.kind {
	case kindBool:
		if b, ok := value.(bool); ok {
			if b {
				return "1", nil
			}
			return "0", nil
		}
	case kindInt:
		if i, ok := value.(int); ok {
			return strconv.Itoa(i), nil
		}
	case kindFloat:
		switch f := value.(type) {
		case float64:
			return strconv.FormatFloat(f, 'f', -1, 64), nil
		case int:
			return strconv.Itoa(f), nil
		}
	case kindOperationHours:
		switch h := value.(type) {
		case float64:
			return strconv.Itoa(int(math.Round(h * 60))), nil
		case int:
			return strconv.Itoa(h * 60), nil
		}
	case kindString:
		if s, ok := value.(string); ok {
			return s, nil
		}
	case kindFlag:
		return "", fmt.Errorf("%w: %v is read-only", ErrInvalidValue, v.Name)
	}

	return "", fmt.Errorf("%w: %v cannot hold %T", ErrInvalidValue, v.Name, value)
}

// Numeric returns the value as a float64 for metrics and history. Strings are
// not numeric.
func Numeric(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case float64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
