package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/workbook/internal/llm"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	reg := prometheus.NewRegistry()
	return New(reg, reg)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("GET", "/x", 200, time.Millisecond)
	m.NudgeDecision("tone:academic", "eligible")
	m.PersistFailure("remote", errors.New("x"))
	m.ObserveReport(time.Millisecond, true)
	m.ObserveLLM(llm.RequestRecord{})
	m.EventFailure("session_start")
	assert.NotNil(t, m.Middleware())
	assert.NotNil(t, m.Handler())
}

func TestCounters(t *testing.T) {
	m := newTestMetrics(t)

	m.NudgeDecision("depth:short", "eligible")
	m.NudgeDecision("depth:short", "eligible")
	m.PersistFailure("local", errors.New("disk"))
	m.ObserveReport(20*time.Millisecond, false)
	m.ObserveReport(time.Millisecond, true)
	m.ObserveLLM(llm.RequestRecord{Purpose: "explain", Model: "mock", Success: false, InputTokens: 7, OutputTokens: 2})
	m.EventFailure("nudge_shown")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.nudgeDecisions.WithLabelValues("depth:short", "eligible")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistFailures.WithLabelValues("local")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reportCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reportCache.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmRequests.WithLabelValues("explain", "mock", "error")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.llmTokens.WithLabelValues("input", "mock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventFailures.WithLabelValues("nudge_shown")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestMetrics(t)
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/items/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/items/42", nil))
	require.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/items/:id", "418")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "workbook_http_requests_total")
}
