// Package metrics exposes Prometheus collectors for the guidance pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors. A nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	guidance    *prometheus.CounterVec
	detections  *prometheus.CounterVec
	persists    *prometheus.CounterVec
	matches     *prometheus.HistogramVec
	llmRequests *prometheus.CounterVec
}

// New creates and registers the collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		guidance: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helply",
			Name:      "guidance_responses_total",
			Help:      "Guidance responses by source (ai, kb, static).",
		}, []string{"source"}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helply",
			Name:      "step_detections_total",
			Help:      "Step detections by deciding rule.",
		}, []string{"rule"}),
		persists: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helply",
			Name:      "progress_writes_total",
			Help:      "Background progress writes by operation and result.",
		}, []string{"op", "result"}),
		matches: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "helply",
			Name:      "match_top_confidence",
			Help:      "Confidence of the best action match per request.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.5, 0.7, 0.9, 1},
		}, []string{"enhanced"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helply",
			Name:      "llm_requests_total",
			Help:      "Generative model calls by operation and result.",
		}, []string{"op", "result"}),
	}
	m.Registry.MustRegister(
		prometheus.NewGoCollector(),
		m.guidance, m.detections, m.persists, m.matches, m.llmRequests,
	)
	return m
}

func (m *Metrics) Guidance(source string) {
	if m == nil {
		return
	}
	m.guidance.WithLabelValues(source).Inc()
}

func (m *Metrics) Detection(rule string) {
	if m == nil {
		return
	}
	m.detections.WithLabelValues(rule).Inc()
}

func (m *Metrics) Persist(op string, err error) {
	if m == nil {
		return
	}
	m.persists.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) Match(confidence float64, enhanced bool) {
	if m == nil {
		return
	}
	label := "false"
	if enhanced {
		label = "true"
	}
	m.matches.WithLabelValues(label).Observe(confidence)
}

// LLM counts a model call; result is ok, error or malformed
func (m *Metrics) LLM(op, result string) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(op, result).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
