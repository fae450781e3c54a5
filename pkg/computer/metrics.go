package computer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pilot_actions_total",
			Help: "Total actions executed against a browser session.",
		},
		[]string{"action"},
	)
	actionFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pilot_action_failures_total",
			Help: "Total actions that returned an error.",
		},
		[]string{"action"},
	)
	actionLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pilot_action_latency_ms",
			Help:    "Action latency in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"action"},
	)
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pilot_requests_total",
			Help: "Browser requests seen by the blocklist, by decision.",
		},
		[]string{"decision"},
	)
	pageReassignmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pilot_active_page_reassignments_total",
			Help: "Times the active page changed, by reason.",
		},
		[]string{"reason"},
	)
	bestEffortFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pilot_ignored_failures_total",
			Help: "Driver failures that were logged and ignored, by step.",
		},
		[]string{"step"},
	)
)

func init() {
	prometheus.MustRegister(
		actionsTotal,
		actionFailuresTotal,
		actionLatencyMs,
		requestsTotal,
		pageReassignmentsTotal,
		bestEffortFailures,
	)
}

const (
	reasonOpened   = "opened"
	reasonClosed   = "closed"
	reasonBlank    = "blank"
	reasonExplicit = "new_tab"
)

func observeAction(action string, start time.Time, err error) {
	actionsTotal.WithLabelValues(action).Inc()
	actionLatencyMs.WithLabelValues(action).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		actionFailuresTotal.WithLabelValues(action).Inc()
	}
}
