// Package metrics exports poll statistics and the numeric variable values of
// every unit to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/victorjacobs/go-easycontrols/easycontrols"
)

const namespace = "easycontrols"

// Metrics is a coordinator observer.
type Metrics struct {
	pollCounter      *prometheus.CounterVec
	pollErrorCounter *prometheus.CounterVec
	pollDuration     *prometheus.HistogramVec
	variableValue    *prometheus.GaugeVec
}

// New creates the collectors and registers them with registerer.
func New(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		pollCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "polls_total",
				Help:      "Count of poll cycles per unit.",
			},
			[]string{"mac"},
		),
		pollErrorCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_errors_total",
				Help:      "Count of poll cycles in which at least one variable could not be read.",
			},
			[]string{"mac"},
		),
		pollDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "poll_duration_seconds",
				Help:      "Duration of a poll cycle.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"mac"},
		),
		variableValue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "variable_value",
				Help:      "Last read numeric value of a variable.",
			},
			[]string{"mac", "variable"},
		),
	}

	registerer.MustRegister(m.pollCounter, m.pollErrorCounter, m.pollDuration, m.variableValue)

	return m
}

func (m *Metrics) Polled(mac string, duration time.Duration, err error) {
	m.pollCounter.WithLabelValues(mac).Inc()
	m.pollDuration.WithLabelValues(mac).Observe(duration.Seconds())
	if err != nil {
		m.pollErrorCounter.WithLabelValues(mac).Inc()
	}
}

// Updated sets the gauge of variable. Unavailable values remove it, flags
// are covered by the variable they are taken from.
func (m *Metrics) Updated(mac string, variable easycontrols.Variable, value interface{}) {
	if variable.IsFlag() {
		return
	}

	number, ok := easycontrols.Numeric(value)
	if !ok {
		m.variableValue.DeleteLabelValues(mac, variable.Name)
		return
	}

	m.variableValue.WithLabelValues(mac, variable.Name).Set(number)
}
