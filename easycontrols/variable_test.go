package easycontrols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariableParse(t *testing.T) {
	tests := []struct {
		name     string
		variable Variable
		raw      string
		want     interface{}
	}{
		{"bool on", BoolVariable("v00094"), "1", true},
		{"bool off", BoolVariable("v00094"), "0", false},
		{"int", IntVariable("v00102", 1), "3", 3},
		{"int padded", IntVariable("v00103", 3), " 75", 75},
		{"float", FloatVariable("v00104", 7), "12.5", 12.5},
		{"negative float", FloatVariable("v00104", 7), "-3.2", -3.2},
		{"operation hours", OperationHoursVariable("v01103", 10), "6100", 101.67},
		{"flag set", FlagVariable("v01125", 5, 0x04), "7", true},
		{"flag unset", FlagVariable("v01125", 5, 0x08), "7", false},
		{"string", StringVariable("v00000", 31), "KWL EC 370 W", "KWL EC 370 W"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.variable.Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVariableParseInvalid(t *testing.T) {
	for _, v := range []Variable{
		IntVariable("v00102", 1),
		FloatVariable("v00104", 7),
		OperationHoursVariable("v01103", 10),
		FlagVariable("v01125", 5, 1),
	} {
		_, err := v.Parse("-")
		assert.ErrorIs(t, err, ErrInvalidValue, v.String())
	}
}

func TestVariableFormat(t *testing.T) {
	tests := []struct {
		variable Variable
		value    interface{}
		want     string
	}{
		{BoolVariable("v00094"), true, "1"},
		{BoolVariable("v00094"), false, "0"},
		{IntVariable("v00102", 1), 2, "2"},
		{FloatVariable("v00104", 7), 21.5, "21.5"},
		{FloatVariable("v00104", 7), 21, "21"},
		{OperationHoursVariable("v01103", 10), 2.5, "150"},
		{OperationHoursVariable("v01103", 10), 3, "180"},
		{StringVariable("v00000", 31), "abc", "abc"},
	}

	for _, tt := range tests {
		got, err := tt.variable.Format(tt.value)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.variable.String())
	}
}

func TestVariableFormatRejectsWrongType(t *testing.T) {
	_, err := IntVariable("v00102", 1).Format("3")
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = BoolVariable("v00094").Format(1)
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = FlagVariable("v01125", 5, 1).Format(true)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestVariableString(t *testing.T) {
	assert.Equal(t, "v00104 [7]", VariableTemperatureOutsideAir.String())
}

func TestNumeric(t *testing.T) {
	v, ok := Numeric(3)
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	v, ok = Numeric(true)
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	v, ok = Numeric(1.5)
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)

	_, ok = Numeric("2.27")
	assert.False(t, ok)

	_, ok = Numeric(nil)
	assert.False(t, ok)
}

func TestFlagTableText(t *testing.T) {
	table := FlagTable{{0x01, "one"}, {0x02, "two"}, {0x04, "four"}}

	assert.Equal(t, "-", table.Text(0))
	assert.Equal(t, "one", table.Text(1))
	assert.Equal(t, "one\nfour", table.Text(5))
	assert.Equal(t, "", table.Text(8))
}

func TestNormalizeMAC(t *testing.T) {
	assert.Equal(t, "00:11:22:aa:bb:cc", NormalizeMAC("00:11:22:AA:BB:CC"))
	assert.Equal(t, "00:11:22:aa:bb:cc", NormalizeMAC("00-11-22-aa-bb-cc"))
	assert.Equal(t, "00:11:22:aa:bb:cc", NormalizeMAC(" 001122AABBCC "))
	assert.Equal(t, "not-a-mac", NormalizeMAC("NOT-A-MAC"))
}
