// Package metrics exposes prometheus instrumentation for the workbook
// service. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abhisek/workbook/internal/llm"
)

const namespace = "workbook"

type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	nudgeDecisions  *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	reportSeconds   prometheus.Histogram
	reportCache     *prometheus.CounterVec
	llmRequests     *prometheus.CounterVec
	llmTokens       *prometheus.CounterVec
	eventFailures   *prometheus.CounterVec
}

var (
	defaultOnce sync.Once
	defaultM    *Metrics
)

// Default registers on the global prometheus registry once.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultM = New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	})
	return defaultM
}

// New registers every collector on reg.
func New(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: gatherer,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		nudgeDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nudge_decisions_total",
			Help:      "Nudge eligibility decisions by tag and outcome.",
		}, []string{"tag", "outcome"}),
		persistFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settings_persist_failures_total",
			Help:      "Swallowed settings persistence failures by store.",
		}, []string{"store"}),
		reportSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "class_report_seconds",
			Help:      "Time to build a class report, including data loading.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		reportCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "class_report_cache_total",
			Help:      "Class report memo lookups by result.",
		}, []string{"result"}),
		llmRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Language model calls by purpose, model and status.",
		}, []string{"purpose", "model", "status"}),
		llmTokens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Language model tokens by direction and model.",
		}, []string{"direction", "model"}),
		eventFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_log_failures_total",
			Help:      "Analytics events that could not be stored.",
		}, []string{"event"}),
	}
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) NudgeDecision(tag, outcome string) {
	if m == nil {
		return
	}
	m.nudgeDecisions.WithLabelValues(tag, outcome).Inc()
}

// PersistFailure matches the session persist error hook.
func (m *Metrics) PersistFailure(store string, _ error) {
	if m == nil {
		return
	}
	m.persistFailures.WithLabelValues(store).Inc()
}

func (m *Metrics) ObserveReport(d time.Duration, cacheHit bool) {
	if m == nil {
		return
	}
	m.reportSeconds.Observe(d.Seconds())
	result := "miss"
	if cacheHit {
		result = "hit"
	}
	m.reportCache.WithLabelValues(result).Inc()
}

// ObserveLLM matches llm.Observer.
func (m *Metrics) ObserveLLM(rec llm.RequestRecord) {
	if m == nil {
		return
	}
	status := "success"
	if !rec.Success {
		status = "error"
	}
	m.llmRequests.WithLabelValues(rec.Purpose, rec.Model, status).Inc()
	m.llmTokens.WithLabelValues("input", rec.Model).Add(float64(rec.InputTokens))
	m.llmTokens.WithLabelValues("output", rec.Model).Add(float64(rec.OutputTokens))
}

func (m *Metrics) EventFailure(event string) {
	if m == nil {
		return
	}
	m.eventFailures.WithLabelValues(event).Inc()
}

// Middleware counts requests by matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
