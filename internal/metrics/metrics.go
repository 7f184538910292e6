// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camera_backend_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "camera_backend_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "camera_backend_live_connections",
		Help: "Open persistent connections in the registry.",
	})

	LiveAuth = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camera_backend_live_auth_total",
		Help: "In-channel authentication attempts by result.",
	}, []string{"result"})

	AlertFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camera_backend_alert_frames_total",
		Help: "Alert frames handed to connections, by outcome (queued, dropped).",
	}, []string{"outcome"})

	HeartbeatTerminations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "camera_backend_heartbeat_terminations_total",
		Help: "Connections terminated for missing a heartbeat.",
	})

	AlertsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "camera_backend_alerts_purged_total",
		Help: "Alerts removed by the retention purge.",
	})
)

func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
