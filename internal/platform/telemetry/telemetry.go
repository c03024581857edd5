// Package telemetry exposes Prometheus metrics for the portal: backend calls
// made through the API client, portal HTTP traffic, session lifecycle and the
// dashboard poller.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/uhs/uhs/internal/platform/apiclient"
)

const namespace = "uhs"

type Metrics struct {
	gatherer prometheus.Gatherer

	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	sessionsActive  prometheus.Gauge
	sessionsEnded   *prometheus.CounterVec
	viewsOpen       prometheus.Gauge
	pollerRuns      *prometheus.CounterVec
}

// New registers the portal metrics on a fresh registry that also carries the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers on reg and serves from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := &Metrics{
		gatherer: g,
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Calls made to the UHS backend API, by outcome.",
		}, []string{"method", "endpoint", "outcome"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of UHS backend API calls.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "endpoint"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "portal_requests_total",
			Help:      "Portal HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "portal_request_duration_seconds",
			Help:      "Portal HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Signed-in portal sessions.",
		}),
		sessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Portal sessions ended, by reason.",
		}, []string{"reason"}),
		viewsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "views_open",
			Help:      "List views held for signed-in sessions.",
		}),
		pollerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poller_runs_total",
			Help:      "Dashboard refresh runs, by job and status.",
		}, []string{"job", "status"}),
	}
	reg.MustRegister(
		m.backendRequests, m.backendDuration,
		m.httpRequests, m.httpDuration,
		m.sessionsActive, m.sessionsEnded, m.viewsOpen,
		m.pollerRuns,
	)
	return m
}

// ObserveRequest implements apiclient.Observer.
func (m *Metrics) ObserveRequest(method, endpoint string, kind apiclient.ErrorKind, ok bool, elapsed time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = kind.String()
	}
	m.backendRequests.WithLabelValues(method, endpoint, outcome).Inc()
	m.backendDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

func (m *Metrics) SessionStarted() { m.sessionsActive.Inc() }

func (m *Metrics) SessionEnded(reason string) {
	m.sessionsActive.Dec()
	m.sessionsEnded.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetViewsOpen(n int) { m.viewsOpen.Set(float64(n)) }

func (m *Metrics) PollerRun(job string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.pollerRuns.WithLabelValues(job, status).Inc()
}

// Middleware records portal requests by route template, so /admin/users/:id
// is one series.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok && !c.Response().Committed {
				status = he.Code
			} else if err != nil && !c.Response().Committed {
				status = http.StatusInternalServerError
			}
			method := c.Request().Method
			m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
