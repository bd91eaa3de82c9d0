package routes

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/victorjacobs/go-easycontrols/easycontrols"
	"github.com/victorjacobs/go-easycontrols/integration"
)

const cacheDuration = 30 * time.Second

type stateResponse struct {
	Mac           string                 `json:"mac"`
	Name          string                 `json:"name"`
	Values        map[string]interface{} `json:"values"`
	LastUpdated   time.Time              `json:"last_updated"`
	LastRefreshed time.Time              `json:"last_refreshed"`
}

type cache struct {
	mutex     sync.Mutex
	responses map[string]*stateResponse
	now       func() time.Time
}

// State serves the last polled values of a unit, refreshed from its
// coordinator at most every 30 seconds.
func State(registry *integration.Registry, logger *zap.SugaredLogger) httprouter.Handle {
	c := &cache{
		responses: make(map[string]*stateResponse),
		now:       time.Now,
	}

	return c.handle(registry, logger)
}

func (c *cache) handle(registry *integration.Registry, logger *zap.SugaredLogger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		mac := easycontrols.NormalizeMAC(ps.ByName("mac"))

		coordinator, ok := registry.GetCoordinator(mac)
		if !ok {
			http.Error(w, "unknown device", http.StatusNotFound)
			return
		}

		c.mutex.Lock()
		resp := c.responses[mac]
		now := c.now()
		if resp == nil || resp.LastRefreshed.Add(cacheDuration).Before(now) {
			values, updated := coordinator.Snapshot()

			resp = &stateResponse{
				Mac:           mac,
				Name:          coordinator.DeviceName(),
				Values:        make(map[string]interface{}, len(values)),
				LastUpdated:   updated,
				LastRefreshed: now,
			}
			for variable, value := range values {
				if variable.IsFlag() {
					continue
				}
				resp.Values[variable.Name] = value
			}
			c.responses[mac] = resp

			logger.Debugw("Refreshed web cache", "mac", mac)
		}
		c.mutex.Unlock()

		writeJSON(w, resp, logger)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}, logger *zap.SugaredLogger) {
	marshaled, err := json.Marshal(v)
	if err != nil {
		logger.Errorw("Marshaling response failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(marshaled)
}
