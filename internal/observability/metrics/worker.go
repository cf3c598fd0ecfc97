package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry   *prometheus.Registry
	generation *GenerationMetrics

	requestTotal    *prometheus.CounterVec
	requestInFlight prometheus.Gauge
	queueLag        *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incident_docs",
			Subsystem: "worker",
			Name:      "generation_requests_total",
			Help:      "Total queued generation requests handled by status.",
		},
		[]string{"service", "status"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "incident_docs",
			Subsystem: "worker",
			Name:      "generation_requests_in_flight",
			Help:      "Number of generation requests being processed.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "incident_docs",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between request publication and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(requestTotal, requestInFlight, queueLag)

	return &WorkerMetrics{
		registry:        registry,
		generation:      newGenerationMetrics(service, registry),
		requestTotal:    requestTotal,
		requestInFlight: requestInFlight,
		queueLag:        queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) Generation() *GenerationMetrics {
	return m.generation
}

func (m *WorkerMetrics) StartRequest() {
	m.requestInFlight.Inc()
}

func (m *WorkerMetrics) FinishRequest(service string, err error) {
	m.requestInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.requestTotal.WithLabelValues(service, status).Inc()
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
