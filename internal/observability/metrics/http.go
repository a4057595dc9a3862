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

	answerTotal       *prometheus.CounterVec
	answerMethodTotal *prometheus.CounterVec
	answerModeTotal   *prometheus.CounterVec
	answerFallbacks   *prometheus.CounterVec
	answerChunks      *prometheus.HistogramVec
	answerDuration    *prometheus.HistogramVec
	cacheLookupTotal  *prometheus.CounterVec
	cacheClearedTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsage",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsage",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docsage",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	answerTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsage",
			Subsystem: "answer",
			Name:      "requests_total",
			Help:      "Total answer requests by outcome.",
		},
		[]string{"service", "success"},
	)
	answerMethodTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsage",
			Subsystem: "answer",
			Name:      "method_total",
			Help:      "Total answer requests by retrieval method.",
		},
		[]string{"service", "search_method"},
	)
	answerModeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsage",
			Subsystem: "answer",
			Name:      "mode_total",
			Help:      "Total answer requests by resolved answer mode.",
		},
		[]string{"service", "mode"},
	)
	answerFallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsage",
			Subsystem: "answer",
			Name:      "fallback_total",
			Help:      "Total answers where a guard substituted fallback content.",
		},
		[]string{"service", "mode"},
	)
	answerChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsage",
			Subsystem: "answer",
			Name:      "retrieved_chunks",
			Help:      "Distribution of retrieved chunks per answer request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	answerDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsage",
			Subsystem: "answer",
			Name:      "duration_seconds",
			Help:      "Answer pipeline execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	cacheLookupTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsage",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total answer cache lookups by level and outcome.",
		},
		[]string{"service", "level", "outcome"},
	)
	cacheClearedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsage",
			Subsystem: "cache",
			Name:      "cleared_entries_total",
			Help:      "Total cache entries removed by clear operations.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		answerTotal,
		answerMethodTotal,
		answerModeTotal,
		answerFallbacks,
		answerChunks,
		answerDuration,
		cacheLookupTotal,
		cacheClearedTotal,
	)

	return &HTTPServerMetrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		answerTotal:       answerTotal,
		answerMethodTotal: answerMethodTotal,
		answerModeTotal:   answerModeTotal,
		answerFallbacks:   answerFallbacks,
		answerChunks:      answerChunks,
		answerDuration:    answerDuration,
		cacheLookupTotal:  cacheLookupTotal,
		cacheClearedTotal: cacheClearedTotal,
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

func (m *HTTPServerMetrics) RecordAnswer(service string, success bool, searchMethod, mode string, chunkCount int, duration time.Duration) {
	m.answerTotal.WithLabelValues(service, strconv.FormatBool(success)).Inc()
	if searchMethod == "" {
		searchMethod = "unknown"
	}
	m.answerMethodTotal.WithLabelValues(service, searchMethod).Inc()
	if mode == "" {
		mode = "unknown"
	}
	m.answerModeTotal.WithLabelValues(service, mode).Inc()
	m.answerChunks.WithLabelValues(service).Observe(float64(chunkCount))
	m.answerDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordFallback(service, mode string) {
	if mode == "" {
		mode = "unknown"
	}
	m.answerFallbacks.WithLabelValues(service, mode).Inc()
}

func (m *HTTPServerMetrics) RecordCacheLookup(service, level string, hit bool) {
	if level == "" {
		level = "none"
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookupTotal.WithLabelValues(service, level, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordCacheCleared(service string, entries int) {
	if entries <= 0 {
		return
	}
	m.cacheClearedTotal.WithLabelValues(service).Add(float64(entries))
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
