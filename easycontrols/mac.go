package easycontrols

import "strings"

// NormalizeMAC returns the lower case, colon separated form used as registry
// key. Input may use colons, dashes or no separator at all.
func NormalizeMAC(mac string) string {
	hex := strings.NewReplacer(":", "", "-", "", ".", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(mac)))
	if len(hex) != 12 {
		return strings.ToLower(strings.TrimSpace(mac))
	}

	var b strings.Builder
	for i := 0; i < len(hex); i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(hex[i : i+2])
	}

	return b.String()
}
