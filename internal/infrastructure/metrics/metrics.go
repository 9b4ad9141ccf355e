// Package metrics holds the Prometheus collectors for the API process.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"privylend-backend/internal/domain/ledger"
	"privylend-backend/internal/domain/lifecycle"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "privylend"

type Metrics struct {
	Registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	gatewayCalls *prometheus.CounterVec
	gatewayTime  *prometheus.HistogramVec
	transitions  *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "route"}),
		gatewayCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "calls_total",
			Help:      "Ledger gateway calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		gatewayTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "call_duration_seconds",
			Help:      "Duration of ledger gateway calls.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"op"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Lifecycle transitions attempted, by transition and outcome.",
		}, []string{"transition", "outcome"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "fallbacks_total",
			Help:      "Portfolio reads served from a fallback source.",
		}, []string{"source"}),
	}
	m.Registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.gatewayCalls,
		m.gatewayTime,
		m.transitions,
		m.fallbacks,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency by route template.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/metrics" {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.httpRequests.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			m.httpDuration.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Transition counts one lifecycle transition attempt.
func (m *Metrics) Transition(name string, err error) {
	m.transitions.WithLabelValues(name, Outcome(err)).Inc()
}

// Fallback counts a portfolio read served from source ("cache" or "defaults").
func (m *Metrics) Fallback(source string) {
	m.fallbacks.WithLabelValues(source).Inc()
}

// Outcome buckets an error into a low-cardinality label.
func Outcome(err error) string {
	var lerr *lifecycle.Error
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &lerr):
		return string(lerr.Kind)
	case errors.Is(err, ledger.ErrConnectivity):
		return "connectivity"
	case errors.Is(err, ledger.ErrNotFound):
		return "not_found"
	case errors.Is(err, ledger.ErrRejected):
		return "rejected"
	default:
		return "error"
	}
}
