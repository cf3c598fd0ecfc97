package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

// GenerationMetrics observes generation runs. It is registered on the
// registry of whichever binary runs the orchestrator.
type GenerationMetrics struct {
	service string

	runsTotal       *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	documentsTotal  *prometheus.CounterVec
	rejectionsTotal *prometheus.CounterVec
}

func newGenerationMetrics(service string, registerer prometheus.Registerer) *GenerationMetrics {
	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incident_docs",
			Subsystem: "generation",
			Name:      "runs_total",
			Help:      "Total generation runs by final status.",
		},
		[]string{"service", "status"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "incident_docs",
			Subsystem: "generation",
			Name:      "run_duration_seconds",
			Help:      "Generation run duration in seconds by final status.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"service", "status"},
	)
	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incident_docs",
			Subsystem: "generation",
			Name:      "documents_total",
			Help:      "Incidents handled by generation runs by result.",
		},
		[]string{"service", "result"},
	)
	rejectionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incident_docs",
			Subsystem: "generation",
			Name:      "preflight_rejections_total",
			Help:      "Incidents rejected during preflight.",
		},
		[]string{"service"},
	)

	registerer.MustRegister(runsTotal, runDuration, documentsTotal, rejectionsTotal)

	return &GenerationMetrics{
		service:         service,
		runsTotal:       runsTotal,
		runDuration:     runDuration,
		documentsTotal:  documentsTotal,
		rejectionsTotal: rejectionsTotal,
	}
}

func (m *GenerationMetrics) ObserveRun(status string, duration time.Duration, summary domain.GenerationSummary) {
	if status == "" {
		status = "unknown"
	}
	m.runsTotal.WithLabelValues(m.service, status).Inc()
	m.runDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())

	for result, n := range map[string]int{
		"generated": summary.Generated,
		"recorded":  summary.Recorded,
		"skipped":   summary.Skipped,
		"raced":     summary.Raced,
		"failed":    summary.Failed,
	} {
		if n > 0 {
			m.documentsTotal.WithLabelValues(m.service, result).Add(float64(n))
		}
	}
}

func (m *GenerationMetrics) ObserveRejections(count int) {
	if count <= 0 {
		return
	}
	m.rejectionsTotal.WithLabelValues(m.service).Add(float64(count))
}
