package jira

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jiraagent",
		Subsystem: "jira",
		Name:      "requests_total",
		Help:      "Jira REST calls by endpoint and HTTP status (0 = transport error)",
	}, []string{"endpoint", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "jiraagent",
		Subsystem: "jira",
		Name:      "request_duration_seconds",
		Help:      "Jira REST call latency",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})
)

func observeRequest(endpoint string, code int, start time.Time) {
	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
