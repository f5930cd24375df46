package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	insightsTotal    *prometheus.CounterVec
	insightsDuration *prometheus.HistogramVec
	insightsInFlight prometheus.Gauge
	queueLag         *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	insightsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bft",
			Subsystem: "worker",
			Name:      "insights_total",
			Help:      "Total insight generation runs by status.",
		},
		[]string{"service", "status"},
	)
	insightsDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bft",
			Subsystem: "worker",
			Name:      "insights_duration_seconds",
			Help:      "Insight generation duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	insightsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bft",
			Subsystem: "worker",
			Name:      "insights_in_flight",
			Help:      "Number of in-flight insight generation runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bft",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between case creation and insight processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(insightsTotal, insightsDuration, insightsInFlight, queueLag)

	return &WorkerMetrics{
		registry:         registry,
		insightsTotal:    insightsTotal,
		insightsDuration: insightsDuration,
		insightsInFlight: insightsInFlight,
		queueLag:         queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartInsights() {
	m.insightsInFlight.Inc()
}

func (m *WorkerMetrics) FinishInsights(service string, duration time.Duration, err error) {
	m.insightsInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.insightsTotal.WithLabelValues(service, status).Inc()
	m.insightsDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
