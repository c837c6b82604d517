// Package metrics exports the outcome of a run as a Prometheus textfile,
// suitable for the node_exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codesentry/codesentry/model"
	"github.com/prometheus/client_golang/prometheus"
)

type Recorder struct {
	registry *prometheus.Registry

	analyzerDuration *prometheus.GaugeVec
	analyzerExitCode *prometheus.GaugeVec
	pipelineFailed   prometheus.Gauge
	lastRun          prometheus.Gauge
}

// NewRecorder returns a Recorder with its own registry, so nothing leaks
// between runs or into the default registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		analyzerDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "codesentry_analyzer_duration_seconds",
				Help: "Wall-clock time taken by each analyzer in the last run",
			},
			[]string{"analyzer"},
		),
		analyzerExitCode: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "codesentry_analyzer_exit_code",
				Help: "Exit code of each analyzer in the last run (-127 not installed, -1 timeout or error)",
			},
			[]string{"analyzer"},
		),
		pipelineFailed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "codesentry_pipeline_failed",
				Help: "1 if any analyzer in the last run exited non-zero",
			},
		),
		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "codesentry_last_run_timestamp_seconds",
				Help: "Unix time the last run finished",
			},
		),
	}
	r.registry.MustRegister(r.analyzerDuration, r.analyzerExitCode, r.pipelineFailed, r.lastRun)
	return r
}

// Observe records one finished run.
func (r *Recorder) Observe(results *model.ResultSet, status model.PipelineStatus, finished time.Time) {
	for _, name := range results.Names() {
		res, _ := results.Get(name)
		r.analyzerDuration.WithLabelValues(name).Set(res.DurationSec)
		r.analyzerExitCode.WithLabelValues(name).Set(float64(res.ExitCode))
	}

	if status == model.StatusFailed {
		r.pipelineFailed.Set(1)
	} else {
		r.pipelineFailed.Set(0)
	}
	r.lastRun.Set(float64(finished.UnixNano()) / 1e9)
}

// WriteTextfile atomically replaces path with the current metrics.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}
	return nil
}
