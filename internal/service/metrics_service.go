package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry: HTTP transport metrics plus
// scheduling-level domain counters.
type MetricsService struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	feasibilityChecks *prometheus.CounterVec
	sectionsOpened    prometheus.Counter
	reportJobs        *prometheus.CounterVec
}

// NewMetricsService builds a registry with all collectors registered. Passing
// nil creates a private registry.
func NewMetricsService(registry *prometheus.Registry) *MetricsService {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	s := &MetricsService{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutorhub",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tutorhub",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		feasibilityChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutorhub",
			Name:      "feasibility_checks_total",
			Help:      "Meeting feasibility evaluations by outcome.",
		}, []string{"outcome"}),
		sectionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tutorhub",
			Name:      "sections_opened_total",
			Help:      "Sections opened since process start.",
		}),
		reportJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutorhub",
			Name:      "report_jobs_total",
			Help:      "Report jobs by terminal status.",
		}, []string{"status"}),
	}
	registry.MustRegister(s.httpRequests, s.httpDuration, s.feasibilityChecks, s.sectionsOpened, s.reportJobs)
	return s
}

// Handler serves the registry in Prometheus exposition format.
func (s *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one served request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	s.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	s.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordFeasibilityCheck counts one evaluation outcome.
func (s *MetricsService) RecordFeasibilityCheck(valid bool) {
	outcome := "rejected"
	if valid {
		outcome = "accepted"
	}
	s.feasibilityChecks.WithLabelValues(outcome).Inc()
}

// RecordSectionOpened counts a new section.
func (s *MetricsService) RecordSectionOpened() {
	s.sectionsOpened.Inc()
}

// RecordReportJob counts a report job reaching a terminal status.
func (s *MetricsService) RecordReportJob(status string) {
	s.reportJobs.WithLabelValues(status).Inc()
}
