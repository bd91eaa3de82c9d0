package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/victorjacobs/go-easycontrols/easycontrols"
)

const mac = "00:11:22:aa:bb:cc"

func TestPolled(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Polled(mac, 120*time.Millisecond, nil)
	m.Polled(mac, 80*time.Millisecond, errors.New("timeout"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pollCounter.WithLabelValues(mac)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pollErrorCounter.WithLabelValues(mac)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.pollDuration))
}

func TestUpdated(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Updated(mac, easycontrols.VariableTemperatureOutsideAir, 8.5)
	m.Updated(mac, easycontrols.VariableFanStage, 2)
	m.Updated(mac, easycontrols.VariableBypass, true)
	m.Updated(mac, easycontrols.VariableSoftwareVersion, "2.27")
	m.Updated(mac, easycontrols.VariableInfoFilterChange, true)

	assert.Equal(t, 8.5, testutil.ToFloat64(m.variableValue.WithLabelValues(mac, "v00104")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.variableValue.WithLabelValues(mac, "v00102")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.variableValue.WithLabelValues(mac, "v02119")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.variableValue))
}

func TestUpdatedRemovesUnavailableValues(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Updated(mac, easycontrols.VariableFanStage, 2)
	m.Updated(mac, easycontrols.VariableFanStage, nil)

	assert.Zero(t, testutil.CollectAndCount(m.variableValue))
}
