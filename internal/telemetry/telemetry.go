// Package telemetry exposes prometheus metrics for research sessions.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates the collectors the research service reports.
type Metrics struct {
	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter
	SessionsFailed    prometheus.Counter
	ToolInvocations   *prometheus.CounterVec
	SessionDuration   prometheus.Histogram
}

// NewMetrics registers the research collectors on the given registerer.
// Passing nil uses the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "amber_research_sessions_started_total",
			Help: "Research sessions accepted for processing.",
		}),
		SessionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "amber_research_sessions_completed_total",
			Help: "Research sessions that reached a completed notice.",
		}),
		SessionsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "amber_research_sessions_failed_total",
			Help: "Research sessions that terminated with an error notice.",
		}),
		ToolInvocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "amber_research_tool_invocations_total",
			Help: "Distinct tool invocations observed per session, by tool name.",
		}, []string{"tool"}),
		SessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "amber_research_session_duration_seconds",
			Help:    "Wall-clock duration of research sessions.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}
