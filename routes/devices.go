package routes

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/victorjacobs/go-easycontrols/homeassistant"
	"github.com/victorjacobs/go-easycontrols/integration"
)

type deviceResponse struct {
	Mac            string                   `json:"mac"`
	Loaded         bool                     `json:"loaded"`
	MaximumAirFlow float64                  `json:"maximum_air_flow,omitempty"`
	Device         homeassistant.DeviceInfo `json:"device"`
}

// Devices lists every connected unit.
func Devices(registry *integration.Registry, logger *zap.SugaredLogger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		controllers := registry.Controllers()

		resp := make([]deviceResponse, 0, len(controllers))
		for _, controller := range controllers {
			device := deviceResponse{
				Mac:    controller.MAC(),
				Device: integration.DeviceInfo(controller),
			}
			if coordinator, ok := registry.GetCoordinator(controller.MAC()); ok {
				device.Loaded = true
				device.MaximumAirFlow = coordinator.MaximumAirFlow()
			}
			resp = append(resp, device)
		}

		writeJSON(w, resp, logger)
	}
}

func Metrics(gatherer prometheus.Gatherer) httprouter.Handle {
	handler := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})

	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		handler.ServeHTTP(w, r)
	}
}

// NewRouter wires the HTTP API.
func NewRouter(registry *integration.Registry, gatherer prometheus.Gatherer, logger *zap.SugaredLogger) *httprouter.Router {
	router := httprouter.New()
	router.GET("/devices", Devices(registry, logger))
	router.GET("/devices/:mac/state", State(registry, logger))
	router.GET("/metrics", Metrics(gatherer))

	return router
}
