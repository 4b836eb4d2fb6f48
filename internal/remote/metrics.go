package remote

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	remoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dochi_client",
			Name:      "remote_calls_total",
			Help:      "Remote calls by service, method, call kind and outcome.",
		},
		[]string{"service", "method", "kind", "outcome"},
	)

	remoteCallSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dochi_client",
			Name:      "remote_call_seconds",
			Help:      "Latency of remote calls including retries.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "kind"},
	)

	clientBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dochi_client",
			Name:      "client_builds_total",
			Help:      "Service clients built by the factory.",
		},
		[]string{"service"},
	)

	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dochi_client",
			Name:      "retries_total",
			Help:      "Retried remote call attempts.",
		},
		[]string{"service"},
	)
)
