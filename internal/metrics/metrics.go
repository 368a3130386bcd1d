// Package metrics defines and registers all custom Prometheus metrics for the
// profile directory. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on import via
// promauto; the HTTP layer exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "profiles"

// ── Profile metrics ───────────────────────────────────────────────────────────

// ProfileSavesTotal counts profile save attempts.
// Label:
//   - result: "ok", "conflict" (email/slug taken), "invalid" or "error"
var ProfileSavesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "saves_total",
		Help:      "Total number of profile saves, by result.",
	},
	[]string{"result"},
)

// ProfilesCreatedTotal counts newly created identities.
var ProfilesCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "created_total",
		Help:      "Total number of profiles created.",
	},
)

// ── Sync metrics ──────────────────────────────────────────────────────────────

// SinkResultsTotal counts sink notifications.
// Labels:
//   - sink: listener name (e.g. "followupboss", "meta_mirror")
//   - result: "ok", "skipped" or "error"
var SinkResultsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_results_total",
		Help:      "Total number of sink notifications, by sink and result.",
	},
	[]string{"sink", "result"},
)

// SinkDuration measures how long a sink takes to handle one saved profile.
var SinkDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sink_duration_seconds",
		Help:      "Duration of a single sink notification.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"sink"},
)

// SinkDebouncedTotal counts syncs skipped because a recent sync succeeded.
var SinkDebouncedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_debounced_total",
		Help:      "Total number of sink syncs skipped by the debounce window.",
	},
	[]string{"sink"},
)

// ResyncQueueDepth tracks the number of profiles waiting in each resync worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ResyncQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "resync_queue_depth",
		Help:      "Current number of profiles pending in each resync worker channel.",
	},
	[]string{"worker_id"},
)

// ── Activity metrics ──────────────────────────────────────────────────────────

// ActivityEntriesTotal counts appended activity log entries.
// Label:
//   - action: the action slug (e.g. "profile.updated")
var ActivityEntriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_entries_total",
		Help:      "Total number of activity log entries written, by action.",
	},
	[]string{"action"},
)
