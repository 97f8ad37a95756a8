package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the scheduling
// engine and the HTTP surface.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	materialized    prometheus.Counter
	reschedules     *prometheus.CounterVec
	substitutions   prometheus.Counter
	optionSearch    prometheus.Observer
	cacheLatency    prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// Reschedule mode labels.
const (
	RescheduleModeOnce      = "once"
	RescheduleModePermanent = "permanent"
)

// NewMetricsService registers the core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	materialized := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_sessions_materialized_total",
		Help: "Number of sessions lazily materialized from templates",
	})

	reschedules := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_reschedules_total",
		Help: "Number of applied reschedules by mode",
	}, []string{"mode"})

	substitutions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_substitutions_total",
		Help: "Number of professor substitutions applied",
	})

	optionSearch := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_option_search_duration_seconds",
		Help:    "Duration of reschedule option searches",
		Buckets: prometheus.DefBuckets,
	})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	registry.MustRegister(requestDuration, requestTotal, materialized, reschedules, substitutions, optionSearch, cacheLatency, cacheHits, cacheMisses)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		materialized:    materialized,
		reschedules:     reschedules,
		substitutions:   substitutions,
		optionSearch:    optionSearch,
		cacheLatency:    cacheLatency,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records duration and count for one handled request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// RecordMaterialization counts freshly generated sessions.
func (s *MetricsService) RecordMaterialization(count int) {
	if count > 0 {
		s.materialized.Add(float64(count))
	}
}

// RecordReschedule counts one applied reschedule of the given mode.
func (s *MetricsService) RecordReschedule(mode string) {
	s.reschedules.WithLabelValues(mode).Inc()
}

// RecordSubstitution counts one applied professor substitution.
func (s *MetricsService) RecordSubstitution() {
	s.substitutions.Inc()
}

// ObserveOptionSearch records the duration of one option search.
func (s *MetricsService) ObserveOptionSearch(duration time.Duration) {
	s.optionSearch.Observe(duration.Seconds())
}

// RecordCacheOperation tracks a cache lookup outcome.
func (s *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	s.cacheLatency.Observe(duration.Seconds())
	if hit {
		s.cacheHits.Inc()
	} else {
		s.cacheMisses.Inc()
	}
}
