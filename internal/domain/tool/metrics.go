package tool

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK      = "ok"
	outcomeFailed  = "failed"
	outcomeInvalid = "invalid_input"
)

var (
	toolInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jiraagent",
		Subsystem: "tool",
		Name:      "invocations_total",
		Help:      "Tool invocations by tool and outcome",
	}, []string{"tool", "outcome"})

	toolDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "jiraagent",
		Subsystem: "tool",
		Name:      "duration_seconds",
		Help:      "Tool invocation latency",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"tool"})
)

func observeInvocation(name string, res Result, start time.Time) {
	outcome := outcomeOK
	if !res.OK {
		outcome = outcomeFailed
	}
	toolInvocations.WithLabelValues(name, outcome).Inc()
	toolDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
