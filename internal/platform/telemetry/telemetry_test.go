package telemetry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/uhs/uhs/internal/platform/apiclient"
)

func newTestMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

func TestObserveRequest(t *testing.T) {
	m := newTestMetrics()
	m.ObserveRequest(http.MethodGet, "/api/feedback/all", apiclient.KindUnknown, true, 120*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/feedback/all", apiclient.KindNetwork, false, time.Second)
	m.ObserveRequest(http.MethodGet, "/api/feedback/all", apiclient.KindNetwork, false, time.Second)

	if got := testutil.ToFloat64(m.backendRequests.WithLabelValues("GET", "/api/feedback/all", "ok")); got != 1 {
		t.Errorf("expected 1 ok call, got %v", got)
	}
	if got := testutil.ToFloat64(m.backendRequests.WithLabelValues("GET", "/api/feedback/all", "network")); got != 2 {
		t.Errorf("expected 2 network failures, got %v", got)
	}
	if n := testutil.CollectAndCount(m.backendDuration); n != 1 {
		t.Errorf("expected one latency series, got %d", n)
	}
}

func TestSessions(t *testing.T) {
	m := newTestMetrics()
	m.SessionStarted()
	m.SessionStarted()
	m.SessionEnded("idle")
	m.SetViewsOpen(3)

	if got := testutil.ToFloat64(m.sessionsActive); got != 1 {
		t.Errorf("expected 1 active session, got %v", got)
	}
	if got := testutil.ToFloat64(m.sessionsEnded.WithLabelValues("idle")); got != 1 {
		t.Errorf("expected 1 idle expiry, got %v", got)
	}
	if got := testutil.ToFloat64(m.viewsOpen); got != 3 {
		t.Errorf("expected 3 views, got %v", got)
	}
}

func TestPollerRun(t *testing.T) {
	m := newTestMetrics()
	m.PollerRun("diagnosis", nil)
	m.PollerRun("diagnosis", errors.New("boom"))
	if got := testutil.ToFloat64(m.pollerRuns.WithLabelValues("diagnosis", "error")); got != 1 {
		t.Errorf("expected 1 failed run, got %v", got)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := newTestMetrics()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/admin/users/:id", func(c echo.Context) error { return echo.NewHTTPError(http.StatusNotFound) })
	e.GET("/metrics", m.Handler())

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/users/1", nil))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/users/2", nil))

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/admin/users/:id", "404")); got != 2 {
		t.Errorf("expected 2 requests on the route template, got %v", got)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "uhs_portal_requests_total") {
		t.Error("exposition should include portal request counter")
	}
}
