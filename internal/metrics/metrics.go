package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine counters and histograms, partitioned by action type where the
// cardinality is bounded by the closed handler set.

var (
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "anchor",
		Subsystem: "action",
		Name:      "processed_total",
		Help:      "Total actions processed, by action type and outcome",
	}, []string{"action", "outcome"})

	ActionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "anchor",
		Subsystem: "action",
		Name:      "duration_seconds",
		Help:      "End-to-end action processing duration",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"action"})

	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "anchor",
		Subsystem: "action",
		Name:      "transitions_total",
		Help:      "Committed status transitions, by destination status",
	}, []string{"action", "to_status"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "anchor",
		Subsystem: "event",
		Name:      "published_total",
		Help:      "Transition events published, by outcome",
	}, []string{"outcome"})

	CustodyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "anchor",
		Subsystem: "custody",
		Name:      "requests_total",
		Help:      "Custody provisioning requests, by outcome",
	}, []string{"outcome"})

	StoreConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "anchor",
		Subsystem: "store",
		Name:      "version_conflicts_total",
		Help:      "Optimistic-concurrency conflicts surfaced to callers",
	})
)
