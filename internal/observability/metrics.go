package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AttendanceDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "faceid",
		Name:      "attendance_decisions_total",
		Help:      "Total number of attendance decisions by outcome",
	}, []string{"outcome"})

	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "faceid",
		Name:      "registrations_total",
		Help:      "Total number of registration attempts by result",
	}, []string{"result"})

	NeighborQueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "faceid",
		Name:      "neighbor_query_duration_seconds",
		Help:      "Duration of nearest-neighbor queries",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "faceid",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "faceid",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
