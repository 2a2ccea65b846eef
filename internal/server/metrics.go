package server

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"llmock/internal/engine"
)

// Prometheus HTTP and streaming metrics.
var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llmock_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llmock_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	activeStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "llmock_active_streams",
			Help: "Number of SSE streams currently being served.",
		},
	)
	streamEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "llmock_stream_events_total",
			Help: "Total number of SSE events written.",
		},
	)
	streamAbortsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "llmock_stream_aborts_total",
			Help: "Streams truncated by client disconnect or write failure.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(activeStreams)
	prometheus.MustRegister(streamEventsTotal)
	prometheus.MustRegister(streamAbortsTotal)
}

// metricsMiddleware records request counts and latency per route.
func metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		path := c.Path()
		if path == "" {
			path = c.Request().URL.Path
		}
		status := c.Response().Status
		if err != nil {
			var apiErr *engine.APIError
			var httpErr *echo.HTTPError
			switch {
			case errors.As(err, &apiErr):
				status = apiErr.Status
			case errors.As(err, &httpErr):
				status = httpErr.Code
			}
		}

		httpRequestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
		return err
	}
}
