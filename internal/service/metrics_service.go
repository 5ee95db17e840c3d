package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "ingenia"

// MetricsService owns the Prometheus registry of the API. Every recorder is safe on a nil
// receiver so collaborators built without metrics (steamctl, tests) need no guards.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	listingLookups  *prometheus.CounterVec
	listingLatency  *prometheus.HistogramVec
	storeCalls      *prometheus.HistogramVec
	mediaUploads    *prometheus.CounterVec
	jobOutcomes     *prometheus.CounterVec
	profileResolves *prometheus.CounterVec
	stateEvents     *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	m := &MetricsService{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		listingLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "listing_cache_lookups_total",
			Help:      "Listing cache lookups by category and result (hit, miss)",
		}, []string{"category", "result"}),
		listingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "listing_cache_seconds",
			Help:      "Listing cache round trips by operation (read, write)",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"op"}),
		storeCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "record_store_call_seconds",
			Help:      "Duration of record store operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		mediaUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "media_uploads_total",
			Help:      "Media uploads by result (ok, rejected, failed)",
		}, []string{"result"}),
		jobOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "background_jobs_total",
			Help:      "Background job outcomes by queue",
		}, []string{"queue", "outcome"}),
		profileResolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "profile_resolutions_total",
			Help:      "Profile resolutions by outcome",
		}, []string{"outcome"}),
		stateEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "state_events_total",
			Help:      "Draft and progress events by machine, event type and result",
		}, []string{"machine", "event", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration, m.requestTotal,
		m.listingLookups, m.listingLatency,
		m.storeCalls, m.mediaUploads, m.jobOutcomes, m.profileResolves, m.stateEvents,
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records one served request. route is the gin route template.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, route, code).Inc()
}

// RecordListingLookup counts one cache read for a listing category.
func (m *MetricsService) RecordListingLookup(category string, hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.listingLookups.WithLabelValues(category, result).Inc()
	m.listingLatency.WithLabelValues("read").Observe(duration.Seconds())
}

// ObserveListingWrite times one cache fill.
func (m *MetricsService) ObserveListingWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.listingLatency.WithLabelValues("write").Observe(duration.Seconds())
}

// ObserveDBQuery records record store timing.
func (m *MetricsService) ObserveDBQuery(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeCalls.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordMediaUpload counts an upload attempt by result.
func (m *MetricsService) RecordMediaUpload(result string) {
	if m == nil {
		return
	}
	m.mediaUploads.WithLabelValues(result).Inc()
}

// RecordJobOutcome matches the jobs.Observer signature.
func (m *MetricsService) RecordJobOutcome(queue, outcome string) {
	if m == nil {
		return
	}
	m.jobOutcomes.WithLabelValues(queue, outcome).Inc()
}

// RecordProfileResolution counts resolutions by outcome (found, backfilled, created, failed).
func (m *MetricsService) RecordProfileResolution(outcome string) {
	if m == nil {
		return
	}
	m.profileResolves.WithLabelValues(outcome).Inc()
}

// RecordStateEvent counts one draft or progress event. Rejected events may carry any type string
// a client sent, so they share one event label.
func (m *MetricsService) RecordStateEvent(machine, event string, err error) {
	if m == nil {
		return
	}
	result := "applied"
	if err != nil {
		result, event = "rejected", "any"
	}
	m.stateEvents.WithLabelValues(machine, event, result).Inc()
}
