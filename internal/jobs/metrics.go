package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the job manager's Prometheus collectors.
type Metrics struct {
	Finished *prometheus.CounterVec
	Duration prometheus.Histogram
	Chunks   *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg; a nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "interlock",
			Name:      "extract_jobs_total",
			Help:      "Extraction jobs by terminal status.",
		}, []string{"status"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "interlock",
			Name:      "extract_job_duration_seconds",
			Help:      "Wall time of extraction jobs.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		}),
		Chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "interlock",
			Name:      "enrichment_chunks_total",
			Help:      "Enrichment chunks by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.Finished, m.Duration, m.Chunks)
	}
	return m
}
