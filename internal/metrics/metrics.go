// Package metrics collects per-run counters in a Prometheus registry and
// writes them as a node-exporter textfile when the run ends.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"regsho/internal/batch"
	"regsho/internal/model"
)

const namespace = "regsho"

// Run holds the counters of one aggregation run.
type Run struct {
	Registry *prometheus.Registry

	archives   *prometheus.CounterVec
	entries    prometheus.Counter
	rows       prometheus.Counter
	skipped    prometheus.Counter
	outputRows prometheus.Gauge
	duration   prometheus.Gauge
	lastRun    prometheus.Gauge
}

// NewRun creates the counters on a fresh registry.
func NewRun() *Run {
	r := &Run{
		Registry: prometheus.NewRegistry(),
		archives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archives_total",
			Help:      "Archives processed, by outcome.",
		}, []string{"outcome"}),
		entries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_total",
			Help:      "Text entries parsed from archives.",
		}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Valid rows folded into the aggregate.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Malformed rows discarded.",
		}),
		outputRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "output_rows",
			Help:      "Rows written to the consolidated output.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
	r.Registry.MustRegister(r.archives, r.entries, r.rows, r.skipped, r.outputRows, r.duration, r.lastRun)
	return r
}

// Observer returns coordinator hooks feeding these counters.
func (r *Run) Observer() batch.Observer {
	return batch.Observer{
		OnResult: func(p model.PartialResult) {
			r.archives.WithLabelValues("ok").Inc()
			r.entries.Add(float64(p.Entries))
			r.rows.Add(float64(p.Rows))
			r.skipped.Add(float64(p.Skipped))
		},
		OnFailure: func(f batch.Failure) {
			r.archives.WithLabelValues(f.Stage).Inc()
		},
	}
}

// Finish records the output size and run duration.
func (r *Run) Finish(outputRows int, started, finished time.Time) {
	r.outputRows.Set(float64(outputRows))
	r.duration.Set(finished.Sub(started).Seconds())
	r.lastRun.Set(float64(finished.Unix()))
}

// WriteTextfile writes the registry to path in the Prometheus text format.
func (r *Run) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create metrics dir: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
