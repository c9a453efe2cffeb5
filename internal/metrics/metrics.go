// Package metrics exposes Prometheus instruments for orchestration runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/eventdraft/internal/model"
)

const namespace = "eventdraft"

// Recorder holds the instruments on a private registry so that several
// recorders (one per test, say) never collide.
type Recorder struct {
	registry *prometheus.Registry

	sourceTotal    *prometheus.CounterVec
	sourceDuration *prometheus.HistogramVec
	runTotal       *prometheus.CounterVec
	conflicts      prometheus.Histogram
	completeness   prometheus.Gauge
	inFlight       prometheus.Gauge
}

// New creates a Recorder. Go runtime and process collectors are registered
// alongside the event metrics.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.sourceTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_results_total",
		Help:      "Sources processed, by source type and status",
	}, []string{"source_type", "status"})
	r.sourceDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "source_duration_seconds",
		Help:      "Time spent extracting a single source",
		Buckets:   []float64{.005, .025, .1, .5, 1, 2.5, 5, 10, 30},
	}, []string{"source_type"})
	r.runTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Orchestration runs, by outcome",
	}, []string{"outcome"})
	r.conflicts = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fusion_conflicts",
		Help:      "Losing candidates per fused draft",
		Buckets:   prometheus.LinearBuckets(0, 2, 8),
	})
	r.completeness = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_completeness_percent",
		Help:      "Completeness of the most recent gap analysis",
	})
	r.inFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "runs_in_flight",
		Help:      "Orchestration runs currently executing",
	})

	r.registry.MustRegister(
		r.sourceTotal, r.sourceDuration, r.runTotal,
		r.conflicts, r.completeness, r.inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveSource records one settled source.
func (r *Recorder) ObserveSource(t model.SourceType, ok bool, d time.Duration) {
	status := "success"
	if !ok {
		status = "failure"
	}
	r.sourceTotal.WithLabelValues(string(t), status).Inc()
	r.sourceDuration.WithLabelValues(string(t)).Observe(d.Seconds())
}

// RunStarted marks a run as in flight.
func (r *Recorder) RunStarted() { r.inFlight.Inc() }

// RunFinished records a run's outcome: "success", "failure" or "stale".
func (r *Recorder) RunFinished(outcome string) {
	r.inFlight.Dec()
	r.runTotal.WithLabelValues(outcome).Inc()
}

// ObserveFusion records conflict count and completeness of a finished draft.
func (r *Recorder) ObserveFusion(conflicts int, completeness float64) {
	r.conflicts.Observe(float64(conflicts))
	r.completeness.Set(completeness)
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
