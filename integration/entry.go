package integration

import (
	"github.com/victorjacobs/go-easycontrols/config"
	"github.com/victorjacobs/go-easycontrols/easycontrols"
)

// ConfigEntry is one configured ventilation unit.
type ConfigEntry struct {
	Name      string
	Host      string
	MAC       string
	Transport string
	BaudRate  int
}

func (e ConfigEntry) String() string {
	return e.Name + " (" + e.MAC + ")"
}

// EntriesFromConfig returns an entry for every configured device, with the
// MAC address normalised.
func EntriesFromConfig(cfg *config.Configuration) []ConfigEntry {
	entries := make([]ConfigEntry, 0, len(cfg.Devices))
	for _, device := range cfg.Devices {
		entries = append(entries, ConfigEntry{
			Name:      device.Name,
			Host:      device.Host,
			MAC:       easycontrols.NormalizeMAC(device.Mac),
			Transport: device.Transport,
			BaudRate:  device.BaudRate,
		})
	}

	return entries
}
