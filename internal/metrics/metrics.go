package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bwengye_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "bwengye_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	RoutingDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bwengye_routing_decisions_total",
			Help: "Total number of routing decisions by selected model",
		},
		[]string{"model", "task_type"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "bwengye_upstream_latency_seconds",
			Help: "Upstream inference latency in seconds",
		},
		[]string{"model"},
	)

	TokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bwengye_tokens_used_total",
			Help: "Total tokens consumed by upstream calls",
		},
		[]string{"model"},
	)

	UnsavedReplies = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bwengye_unsaved_replies_total",
			Help: "Replies delivered to the client but not persisted",
		},
	)
)
