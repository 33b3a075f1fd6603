package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry          *prometheus.Registry
	answers           *prometheus.CounterVec
	answerDuration    *prometheus.HistogramVec
	translationChunks *prometheus.CounterVec
	testSubmissions   prometheus.Counter
}

// New registers every collector on a fresh registry, so each instance
// (including those built in tests) is isolated.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tutor",
				Name:      "answers_total",
				Help:      "Tutoring answers by mode and outcome.",
			},
			[]string{"mode", "outcome"},
		),
		answerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tutor",
				Name:      "answer_duration_seconds",
				Help:      "End-to-end time to answer a question.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		translationChunks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tutor",
				Subsystem: "translation",
				Name:      "chunks_total",
				Help:      "Translated chunks by status.",
			},
			[]string{"status"},
		),
		testSubmissions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tutor",
				Subsystem: "tests",
				Name:      "submissions_total",
				Help:      "Submitted test sessions.",
			},
		),
	}

	reg.MustRegister(m.answers, m.answerDuration, m.translationChunks, m.testSubmissions)
	return m
}

// ObserveAnswer records one finished tutoring request. outcome is "success"
// or the failure reason.
func (m *Metrics) ObserveAnswer(mode, outcome string, elapsed time.Duration) {
	m.answers.WithLabelValues(mode, outcome).Inc()
	m.answerDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveTranslationChunk(ok bool) {
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.translationChunks.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveTestSubmitted() {
	m.testSubmissions.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
