// Package metrics exposes Prometheus metrics for custody computation runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultNamespace = "custodycal"

	resultSuccess = "success"
	resultFailure = "failure"
)

// Option applies a configuration option to the Recorder.
type Option func(*Recorder)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets the run duration buckets, in seconds.
func WithHistogramBuckets(buckets []float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.buckets = buckets
		}
	}
}

// WithRegistry sets the registry metrics are registered with and served
// from.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(r *Recorder) {
		if registry != nil {
			r.registry = registry
		}
	}
}

// Recorder tracks load-and-compute runs. Each Recorder owns its registry,
// so several can coexist in one process.
type Recorder struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	events      prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// NewRecorder creates a Recorder and registers its metrics.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: defaultNamespace,
		buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}

	auto := promauto.With(r.registry)
	r.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "runs_total",
		Help:      "Schedule load and compute runs by result.",
	}, []string{"result"})
	r.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of schedule load and compute runs.",
		Buckets:   r.buckets,
	})
	r.events = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      "exported_events",
		Help:      "Merged custody events in the latest successful result.",
	})
	r.lastSuccess = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the latest successful run.",
	})

	// Expose both result series before the first run.
	r.runs.WithLabelValues(resultSuccess)
	r.runs.WithLabelValues(resultFailure)
	return r
}

// ObserveRun records one run. events is ignored when err is non-nil.
func (r *Recorder) ObserveRun(d time.Duration, err error, events int) {
	r.runDuration.Observe(d.Seconds())
	if err != nil {
		r.runs.WithLabelValues(resultFailure).Inc()
		return
	}
	r.runs.WithLabelValues(resultSuccess).Inc()
	r.events.Set(float64(events))
	r.lastSuccess.SetToCurrentTime()
}

// Registry returns the registry the metrics are registered with.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
