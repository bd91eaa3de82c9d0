// Package history records numeric variable values in InfluxDB.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"

	"github.com/victorjacobs/go-easycontrols/config"
	"github.com/victorjacobs/go-easycontrols/easycontrols"
)

const (
	measurementVariable = "easycontrols_variable"
	measurementPoll     = "easycontrols_poll"

	defaultBatchSize     = 100
	defaultFlushInterval = 10
	connectTimeout       = 10 * time.Second
)

var (
	ErrDisabled         = errors.New("history: influxdb disabled")
	ErrConnectionFailed = errors.New("history: influxdb connection failed")
)

// pointWriter is the part of api.WriteAPI the writer uses.
type pointWriter interface {
	WritePoint(point *write.Point)
	Flush()
}

// Writer is a coordinator observer writing a point per numeric update and
// per poll cycle.
type Writer struct {
	client   influxdb2.Client
	writeAPI pointWriter
	now      func() time.Time
}

// Connect pings the server and returns a writer with a batching write API.
func Connect(cfg config.InfluxDB, logger *zap.SugaredLogger) (*Writer, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}

	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*1000),
	)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	go func() {
		for err := range writeAPI.Errors() {
			logger.Warnw("Writing history failed", "error", err)
		}
	}()

	w := newWriter(writeAPI)
	w.client = client

	return w, nil
}

func newWriter(writeAPI pointWriter) *Writer {
	return &Writer{
		writeAPI: writeAPI,
		now:      time.Now,
	}
}

func (w *Writer) Polled(mac string, duration time.Duration, err error) {
	w.writeAPI.WritePoint(write.NewPoint(
		measurementPoll,
		map[string]string{"mac": mac},
		map[string]interface{}{
			"duration_ms": duration.Milliseconds(),
			"failed":      err != nil,
		},
		w.now(),
	))
}

// Updated writes numeric values. Unavailable values and flags are skipped.
func (w *Writer) Updated(mac string, variable easycontrols.Variable, value interface{}) {
	if variable.IsFlag() {
		return
	}

	number, ok := easycontrols.Numeric(value)
	if !ok {
		return
	}

	w.writeAPI.WritePoint(write.NewPoint(
		measurementVariable,
		map[string]string{
			"mac":      mac,
			"variable": variable.Name,
		},
		map[string]interface{}{"value": number},
		w.now(),
	))
}

// Close flushes pending points.
func (w *Writer) Close() {
	w.writeAPI.Flush()
	if w.client != nil {
		w.client.Close()
	}
}
