package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch routes.
const (
	routeRejected = "rejected"
	routeDirect   = "direct"
	routeFallback = "fallback"
	// direct attempt failed, then fallback ran
	routeRecovered = "direct_fallback"
)

var (
	dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jiraagent",
		Subsystem: "agent",
		Name:      "dispatch_total",
		Help:      "Dispatched queries by route and outcome",
	}, []string{"route", "outcome"})

	classificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jiraagent",
		Subsystem: "agent",
		Name:      "classifications_total",
		Help:      "Classifier verdicts by kind and confidence",
	}, []string{"kind", "confidence"})

	sessionBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "jiraagent",
		Subsystem: "agent",
		Name:      "session_builds_total",
		Help:      "Reasoning session construction attempts",
	})

	sessionBuildFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "jiraagent",
		Subsystem: "agent",
		Name:      "session_build_failures_total",
		Help:      "Failed reasoning session constructions",
	})

	reasoningDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "jiraagent",
		Subsystem: "agent",
		Name:      "reasoning_duration_seconds",
		Help:      "Model completion latency on the fallback path",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})
)

func outcomeLabel(r Response) string {
	if r.Success {
		return "success"
	}
	return "failure"
}
