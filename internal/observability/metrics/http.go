package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	inferenceResultsTotal  *prometheus.CounterVec
	inferenceFallbackTotal *prometheus.CounterVec
	casesSubmittedTotal    *prometheus.CounterVec
	reviewsTotal           *prometheus.CounterVec
	caseDeletionsTotal     *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bft",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bft",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bft",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	inferenceResultsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bft",
			Subsystem: "inference",
			Name:      "results_total",
			Help:      "Total completed inference calls by serving tier.",
		},
		[]string{"service", "provenance"},
	)
	inferenceFallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bft",
			Subsystem: "inference",
			Name:      "fallback_total",
			Help:      "Total tier-to-tier fallbacks in the inference chain.",
		},
		[]string{"service", "from", "to"},
	)
	casesSubmittedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bft",
			Subsystem: "cases",
			Name:      "submitted_total",
			Help:      "Total submitted cases by triage status.",
		},
		[]string{"service", "status"},
	)
	reviewsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bft",
			Subsystem: "cases",
			Name:      "reviews_total",
			Help:      "Total completed doctor reviews by decision.",
		},
		[]string{"service", "decision"},
	)
	caseDeletionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bft",
			Subsystem: "cases",
			Name:      "deletions_total",
			Help:      "Total case deletion attempts by outcome.",
		},
		[]string{"service", "outcome"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		inferenceResultsTotal,
		inferenceFallbackTotal,
		casesSubmittedTotal,
		reviewsTotal,
		caseDeletionsTotal,
	)

	return &HTTPServerMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		inferenceResultsTotal:  inferenceResultsTotal,
		inferenceFallbackTotal: inferenceFallbackTotal,
		casesSubmittedTotal:    casesSubmittedTotal,
		reviewsTotal:           reviewsTotal,
		caseDeletionsTotal:     caseDeletionsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses resource ids so the path label stays bounded.
func normalizePath(path string) string {
	switch {
	case path == "/v1/cases/bulk-delete":
		return path
	case strings.HasPrefix(path, "/v1/cases/") && strings.HasSuffix(path, "/review"):
		return "/v1/cases/{case_id}/review"
	case strings.HasPrefix(path, "/v1/cases/"):
		return "/v1/cases/{case_id}"
	case strings.HasPrefix(path, "/v1/users/"):
		return "/v1/users/{user_id}/role"
	default:
		return path
	}
}

// RecordResult and RecordFallback make HTTPServerMetrics a recorder for
// the inference chain.
func (m *HTTPServerMetrics) RecordResult(provenance domain.Provenance) {
	m.inferenceResultsTotal.WithLabelValues("api", string(provenance)).Inc()
}

func (m *HTTPServerMetrics) RecordFallback(from, to domain.Provenance) {
	m.inferenceFallbackTotal.WithLabelValues("api", string(from), string(to)).Inc()
}

func (m *HTTPServerMetrics) RecordCaseSubmitted(service string, status domain.CaseStatus) {
	m.casesSubmittedTotal.WithLabelValues(service, string(status)).Inc()
}

func (m *HTTPServerMetrics) RecordReview(service, decision string) {
	if decision == "" {
		decision = "unknown"
	}
	m.reviewsTotal.WithLabelValues(service, decision).Inc()
}

func (m *HTTPServerMetrics) RecordDeletions(service string, succeeded, failed int) {
	if succeeded > 0 {
		m.caseDeletionsTotal.WithLabelValues(service, "success").Add(float64(succeeded))
	}
	if failed > 0 {
		m.caseDeletionsTotal.WithLabelValues(service, "failure").Add(float64(failed))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
