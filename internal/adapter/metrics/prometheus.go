// Package metrics exports dispatch and grading metrics to Prometheus
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gitlab.com/toku-assess.net/internal/core/ports/secondary"
)

var _ secondary.MetricsRecorder = (*Recorder)(nil)

const metricsNamespace = "assessment"

// 1ms -> 30s
var timeBuckets = []float64{
	0.001, 0.005, 0.010, 0.025, 0.050, 0.1, 0.25, 0.5,
	1, 2, 5, 10, 20, 30,
}

type Recorder struct {
	registry *prometheus.Registry

	dispatchTotal    *prometheus.CounterVec
	dispatchTime     *prometheus.HistogramVec
	dispatchAttempts *prometheus.HistogramVec
	gradeTotal       *prometheus.CounterVec
	gradeTime        *prometheus.HistogramVec
	gradeCases       prometheus.Histogram
}

// NewRecorder builds a recorder on its own registry, including Go runtime
// and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "dispatch",
			Name:      "requests_total",
			Help:      "Number of execution requests by language and outcome",
		}, []string{"language", "outcome"}),
		dispatchTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Histogram for the time spent in one execution request, retries included",
			Buckets:   timeBuckets,
		}, []string{"language", "outcome"}),
		dispatchAttempts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "dispatch",
			Name:      "attempts",
			Help:      "Histogram for the sandbox calls made per execution request",
			Buckets:   []float64{1, 2, 3, 4, 5, 8},
		}, []string{"language"}),
		gradeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "grading",
			Name:      "submissions_total",
			Help:      "Number of graded submissions by status",
		}, []string{"status"}),
		gradeTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "grading",
			Name:      "duration_seconds",
			Help:      "Histogram for the time to grade one submission",
			Buckets:   timeBuckets,
		}, []string{"status"}),
		gradeCases: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "grading",
			Name:      "cases",
			Help:      "Histogram for the number of test cases per submission",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.dispatchTotal, r.dispatchTime, r.dispatchAttempts,
		r.gradeTotal, r.gradeTime, r.gradeCases,
	)
	return r
}

func (r *Recorder) ObserveDispatch(language, outcome string, attempts int, elapsed time.Duration) {
	r.dispatchTotal.WithLabelValues(language, outcome).Inc()
	r.dispatchTime.WithLabelValues(language, outcome).Observe(elapsed.Seconds())
	if attempts > 0 {
		r.dispatchAttempts.WithLabelValues(language).Observe(float64(attempts))
	}
}

func (r *Recorder) ObserveGrade(status string, cases int, elapsed time.Duration) {
	r.gradeTotal.WithLabelValues(status).Inc()
	r.gradeTime.WithLabelValues(status).Observe(elapsed.Seconds())
	r.gradeCases.Observe(float64(cases))
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
