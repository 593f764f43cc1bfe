package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sira-platform/sira-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the
// eligibility engine and the period state machine.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	evaluationTotal    *prometheus.CounterVec
	windowDenials      prometheus.Counter
	dbQueryDuration    *prometheus.HistogramVec
}

// NewMetricsService registers core Prometheus collectors.
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

	evaluationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "eligibility_evaluation_duration_seconds",
		Help:    "Duration of completion eligibility evaluations",
		Buckets: prometheus.DefBuckets,
	}, []string{"institution_type"})

	evaluationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eligibility_evaluations_total",
		Help: "Total eligibility evaluations by verdict",
	}, []string{"institution_type", "verdict"})

	windowDenials := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grading_window_denials_total",
		Help: "Grade writes rejected by a closed grading window",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, evaluationDuration, evaluationTotal, windowDenials, dbQueryDuration, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:           registry,
		handler:            handler,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		evaluationDuration: evaluationDuration,
		evaluationTotal:    evaluationTotal,
		windowDenials:      windowDenials,
		dbQueryDuration:    dbQueryDuration,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveEvaluation records one eligibility evaluation outcome.
func (m *MetricsService) ObserveEvaluation(institutionType models.InstitutionType, valid bool, duration time.Duration) {
	if m == nil {
		return
	}
	verdict := "ineligible"
	if valid {
		verdict = "eligible"
	}
	m.evaluationDuration.WithLabelValues(string(institutionType)).Observe(duration.Seconds())
	m.evaluationTotal.WithLabelValues(string(institutionType), verdict).Inc()
}

// RecordWindowDenial counts a grade write rejected by a closed window.
func (m *MetricsService) RecordWindowDenial() {
	if m == nil {
		return
	}
	m.windowDenials.Inc()
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}
