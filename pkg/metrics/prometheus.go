package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	computations *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	features     *prometheus.CounterVec
	warnings     *prometheus.CounterVec
	iterations   *prometheus.HistogramVec
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		computations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astrocarto_computations_total",
				Help: "Completed line computations by outcome",
			},
			[]string{"outcome"},
		),
		duration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "astrocarto_computation_duration_seconds",
				Help:    "Duration of line computations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		features: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astrocarto_features_total",
				Help: "Produced line features by kind",
			},
			[]string{"kind"},
		),
		warnings: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astrocarto_warnings_total",
				Help: "Per-feature warnings by kind",
			},
			[]string{"kind"},
		),
		iterations: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "astrocarto_solver_iterations",
				Help:    "Root finder iterations per operation",
				Buckets: prometheus.ExponentialBuckets(8, 2, 10),
			},
			[]string{"op"},
		),
		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "astrocarto_result_cache_hits_total",
			Help: "Result cache hits",
		}),
		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "astrocarto_result_cache_misses_total",
			Help: "Result cache misses",
		}),
	}
}

// RecordComputation records one finished computation and its duration.
func (r *Recorder) RecordComputation(outcome string, seconds float64) {
	r.computations.WithLabelValues(outcome).Inc()
	r.duration.WithLabelValues(outcome).Observe(seconds)
}

// RecordFeatures counts produced features of one kind.
func (r *Recorder) RecordFeatures(kind string, n int) {
	if n > 0 {
		r.features.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordWarning counts one warning occurrence.
func (r *Recorder) RecordWarning(kind string) {
	r.warnings.WithLabelValues(kind).Inc()
}

// RecordSolverIterations records iterations spent on one operation class.
func (r *Recorder) RecordSolverIterations(op string, n int) {
	r.iterations.WithLabelValues(op).Observe(float64(n))
}

func (r *Recorder) RecordCacheHit()  { r.cacheHits.Inc() }
func (r *Recorder) RecordCacheMiss() { r.cacheMisses.Inc() }
