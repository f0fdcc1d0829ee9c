// Package metrics exports run statistics in the Prometheus text format so a
// node_exporter textfile collector can pick them up between runs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blockmerge"

// Observation is what a single run reports.
type Observation struct {
	Attempted int
	Failed    int
	Stale     int
	Emitted   int
	Rejected  int
	Success   bool
	Duration  time.Duration
	Finished  time.Time

	// FailedSources are the IDs of failed sources.
	FailedSources []string
	// Sources are the IDs of every attempted source.
	Sources []string
}

// Run holds the gauges of one run in a dedicated registry.
type Run struct {
	registry *prometheus.Registry

	sourcesAttempted prometheus.Gauge
	sourcesFailed    prometheus.Gauge
	sourcesStale     prometheus.Gauge
	rulesEmitted     prometheus.Gauge
	rulesRejected    prometheus.Gauge
	lastRunSuccess   prometheus.Gauge
	lastRunTime      prometheus.Gauge
	runDuration      prometheus.Gauge
	sourceUp         *prometheus.GaugeVec
}

// NewRun registers the run gauges in a fresh registry.
func NewRun() *Run {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Run{
		registry: reg,
		sourcesAttempted: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "sources_attempted",
			Namespace: namespace,
			Help:      "The number of sources read by the last run.",
		}),
		sourcesFailed: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "sources_failed",
			Namespace: namespace,
			Help:      "The number of sources that could not be read by the last run.",
		}),
		sourcesStale: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "sources_stale",
			Namespace: namespace,
			Help:      "The number of sources served from the cache by the last run.",
		}),
		rulesEmitted: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "rules_emitted",
			Namespace: namespace,
			Help:      "The number of rules in the last generated list.",
		}),
		rulesRejected: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "rules_rejected",
			Namespace: namespace,
			Help:      "The number of excluded or invalid lines in the last run.",
		}),
		lastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "last_run_success",
			Namespace: namespace,
			Help:      "Status of the last run. 1 means the list was written.",
		}),
		lastRunTime: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "last_run_timestamp_seconds",
			Namespace: namespace,
			Help:      "Time when the last run finished.",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "run_duration_seconds",
			Namespace: namespace,
			Help:      "Wall time of the last run.",
		}),
		sourceUp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:      "source_up",
			Namespace: namespace,
			Help:      "Whether a source was read by the last run. 1 means success.",
		}, []string{"list"}),
	}
}

// Observe records o.
func (r *Run) Observe(o Observation) {
	r.sourcesAttempted.Set(float64(o.Attempted))
	r.sourcesFailed.Set(float64(o.Failed))
	r.sourcesStale.Set(float64(o.Stale))
	r.rulesEmitted.Set(float64(o.Emitted))
	r.rulesRejected.Set(float64(o.Rejected))
	r.runDuration.Set(o.Duration.Seconds())
	if !o.Finished.IsZero() {
		r.lastRunTime.Set(float64(o.Finished.Unix()))
	}
	setBoolGauge(r.lastRunSuccess, o.Success)

	failed := make(map[string]struct{}, len(o.FailedSources))
	for _, id := range o.FailedSources {
		failed[id] = struct{}{}
	}
	for _, id := range o.Sources {
		_, isFailed := failed[id]
		setBoolGauge(r.sourceUp.WithLabelValues(id), !isFailed)
	}
}

// WriteTextfile writes the current values to path in the Prometheus text
// format. The file is replaced atomically.
func (r *Run) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

// Gatherer returns the registry holding the run gauges.
func (r *Run) Gatherer() prometheus.Gatherer {
	return r.registry
}

// setBoolGauge sets g to 1 when ok and to 0 otherwise.
func setBoolGauge(g prometheus.Gauge, ok bool) {
	if ok {
		g.Set(1)
	} else {
		g.Set(0)
	}
}
