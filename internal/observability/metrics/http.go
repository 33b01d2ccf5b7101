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

	intakeBatchesTotal    *prometheus.CounterVec
	intakeDocumentsTotal  *prometheus.CounterVec
	intakeBatchSize       *prometheus.HistogramVec
	intakeDuration        *prometheus.HistogramVec
	resolutionsTotal      *prometheus.CounterVec
	resolutionDuration    *prometheus.HistogramVec
	openExceptionsVisible *prometheus.GaugeVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docflow",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docflow",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docflow",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	intakeBatchesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docflow",
			Subsystem: "intake",
			Name:      "batches_total",
			Help:      "Total submitted intake batches by outcome.",
		},
		[]string{"service", "outcome"},
	)
	intakeDocumentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docflow",
			Subsystem: "intake",
			Name:      "documents_total",
			Help:      "Total documents reported per intake batch by disposition.",
		},
		[]string{"service", "disposition"},
	)
	intakeBatchSize := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docflow",
			Subsystem: "intake",
			Name:      "batch_size_files",
			Help:      "Distribution of files per submitted batch.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		},
		[]string{"service"},
	)
	intakeDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docflow",
			Subsystem: "intake",
			Name:      "duration_seconds",
			Help:      "Batch intake duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	resolutionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docflow",
			Subsystem: "resolution",
			Name:      "submissions_total",
			Help:      "Total resolution submissions by status.",
		},
		[]string{"service", "status"},
	)
	resolutionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docflow",
			Subsystem: "resolution",
			Name:      "submission_duration_seconds",
			Help:      "Resolution submission duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	openExceptionsVisible := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "docflow",
			Subsystem: "catalog",
			Name:      "open_exceptions",
			Help:      "Open exception count observed by the last catalog read.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		intakeBatchesTotal,
		intakeDocumentsTotal,
		intakeBatchSize,
		intakeDuration,
		resolutionsTotal,
		resolutionDuration,
		openExceptionsVisible,
	)

	return &HTTPServerMetrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		intakeBatchesTotal:    intakeBatchesTotal,
		intakeDocumentsTotal:  intakeDocumentsTotal,
		intakeBatchSize:       intakeBatchSize,
		intakeDuration:        intakeDuration,
		resolutionsTotal:      resolutionsTotal,
		resolutionDuration:    resolutionDuration,
		openExceptionsVisible: openExceptionsVisible,
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
	case strings.HasPrefix(path, "/v1/exceptions/"):
		return "/v1/exceptions/{exception_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordIntakeBatch(service string, fileCount, successful, exceptions int, duration time.Duration, degraded bool) {
	outcome := "clean"
	switch {
	case degraded:
		outcome = "degraded"
	case exceptions > 0:
		outcome = "exceptions"
	}

	m.intakeBatchesTotal.WithLabelValues(service, outcome).Inc()
	m.intakeBatchSize.WithLabelValues(service).Observe(float64(fileCount))
	m.intakeDuration.WithLabelValues(service).Observe(duration.Seconds())

	if successful > 0 {
		m.intakeDocumentsTotal.WithLabelValues(service, "processed").Add(float64(successful))
	}
	if exceptions > 0 {
		m.intakeDocumentsTotal.WithLabelValues(service, "exception").Add(float64(exceptions))
	}
}

func (m *HTTPServerMetrics) RecordResolution(service string, duration time.Duration, err error) {
	status := "resolved"
	if err != nil {
		status = "failed"
	}
	m.resolutionsTotal.WithLabelValues(service, status).Inc()
	m.resolutionDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) SetOpenExceptions(service string, count int) {
	m.openExceptionsVisible.WithLabelValues(service).Set(float64(count))
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
