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
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	askRequestsTotal  *prometheus.CounterVec
	askFallbackTotal  *prometheus.CounterVec
	askRetrievalHit   *prometheus.CounterVec
	askNoContextTotal *prometheus.CounterVec
	askRetrievedPool  *prometheus.HistogramVec
	askDuration       *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfqa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfqa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pdfqa",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	askRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfqa",
			Subsystem: "ask",
			Name:      "requests_total",
			Help:      "Total answered ask requests by mode.",
		},
		[]string{"service", "mode"},
	)
	askFallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfqa",
			Subsystem: "ask",
			Name:      "fallback_total",
			Help:      "Total ask requests answered with the fallback sentence, by reason.",
		},
		[]string{"service", "reason"},
	)
	askRetrievalHit := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfqa",
			Subsystem: "ask",
			Name:      "retrieval_hit_total",
			Help:      "Total ask requests with at least one retrieved chunk.",
		},
		[]string{"service"},
	)
	askNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfqa",
			Subsystem: "ask",
			Name:      "no_context_total",
			Help:      "Total ask requests where retrieval found nothing.",
		},
		[]string{"service"},
	)
	askRetrievedPool := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfqa",
			Subsystem: "ask",
			Name:      "retrieved_chunks",
			Help:      "Distribution of context-pool size per ask request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	askDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfqa",
			Subsystem: "ask",
			Name:      "duration_seconds",
			Help:      "Ask execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "mode"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		askRequestsTotal,
		askFallbackTotal,
		askRetrievalHit,
		askNoContextTotal,
		askRetrievedPool,
		askDuration,
	)

	return &HTTPServerMetrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		askRequestsTotal:  askRequestsTotal,
		askFallbackTotal:  askFallbackTotal,
		askRetrievalHit:   askRetrievalHit,
		askNoContextTotal: askNoContextTotal,
		askRetrievedPool:  askRetrievedPool,
		askDuration:       askDuration,
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

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

// RecordAskObservation captures one completed ask request: its mode,
// how many chunks fed the context pool, and whether (and why) the
// answer degraded to the fallback sentence.
func (m *HTTPServerMetrics) RecordAskObservation(service, mode string, retrieved int, fallback bool, reason string, duration time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	m.askRequestsTotal.WithLabelValues(service, mode).Inc()
	m.askRetrievedPool.WithLabelValues(service).Observe(float64(retrieved))
	m.askDuration.WithLabelValues(service, mode).Observe(duration.Seconds())

	if retrieved > 0 {
		m.askRetrievalHit.WithLabelValues(service).Inc()
	} else {
		m.askNoContextTotal.WithLabelValues(service).Inc()
	}
	if fallback {
		if reason == "" {
			reason = "unknown"
		}
		m.askFallbackTotal.WithLabelValues(service, reason).Inc()
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
