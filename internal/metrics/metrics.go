package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session lifecycle counters, exposed on /metrics when enabled.
var (
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netclub_sessions_started_total",
		Help: "Number of successfully opened machine sessions.",
	})
	SessionsEnded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netclub_sessions_ended_total",
		Help: "Number of successfully closed machine sessions.",
	})
	SessionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netclub_session_failures_total",
		Help: "Failed session operations by operation and error code.",
	}, []string{"operation", "code"})
)
