package easycontrols

import "strings"

type Flag struct {
	Mask int
	Text string
}

// FlagTable maps the bits of a fault variable to readable text, ordered by
// mask.
type FlagTable []Flag

// Text joins the text of every set flag with a newline. Zero is "-".
func (t FlagTable) Text(value int) string {
	if value == 0 {
		return "-"
	}

	var texts []string
	for _, flag := range t {
		if value&flag.Mask == flag.Mask {
			texts = append(texts, flag.Text)
		}
	}

	return strings.Join(texts, "\n")
}

var Errors = FlagTable{
	{0x00000001, "Speed error supply air fan"},
	{0x00000002, "Speed error extract air fan"},
	{0x00000008, "SD card write error"},
	{0x00000010, "Bus overcurrent"},
	{0x00000040, "Zero crossing error"},
	{0x00000080, "Preheater communication error"},
	{0x00000100, "Afterheater communication error"},
	{0x00000200, "Preheater sensor error"},
	{0x00000400, "Afterheater sensor error"},
	{0x00000800, "Outside air temperature sensor error"},
	{0x00001000, "Supply air temperature sensor error"},
	{0x00002000, "Extract air temperature sensor error"},
	{0x00004000, "Outgoing air temperature sensor error"},
	{0x00008000, "Supply air temperature too low"},
	{0x00010000, "External sensor communication error"},
	{0x00020000, "Configuration error"},
}

var Warnings = FlagTable{
	{0x01, "Internal humidity sensor provides no value"},
}

var Infos = FlagTable{
	{0x0001, "Filter change"},
	{0x0002, "Frost protection water heater"},
	{0x0004, "Preheater active"},
	{0x0008, "Afterheater active"},
	{0x0010, "Bypass open"},
	{0x0020, "Party mode active"},
	{0x0040, "Standby mode active"},
	{0x0080, "External contact active"},
}
