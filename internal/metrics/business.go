// SPDX-License-Identifier: MIT
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session lifecycle metrics
	sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "academy_sessions_created_total",
		Help: "Total number of coaching sessions created",
	})

	checkinsMerged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "academy_checkins_merged_total",
		Help: "Checkin submissions applied to a session, by merge action",
	}, []string{"action"}) // action=update|append

	checkinDuplicatesRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "academy_checkin_duplicates_removed_total",
		Help: "Duplicate phase entries removed while merging checkins",
	})

	sessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "academy_session_transitions_total",
		Help: "Session state changes by target state",
	}, []string{"to"})

	// Storage metrics
	storeOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "academy_store_operation_duration_seconds",
		Help:    "Record store operation latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"backend", "op"})

	storeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "academy_store_errors_total",
		Help: "Record store operations that failed with a storage error",
	}, []string{"backend", "op"})

	// Catalog metrics
	catalogReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "academy_catalog_reloads_total",
		Help: "Curriculum catalog (re)loads by result",
	}, []string{"result"}) // result=success|invalid|missing
)

// IncSessionCreated records a newly created session.
func IncSessionCreated() {
	sessionsCreated.Inc()
}

// RecordCheckinMerge records one merged checkin and the duplicates removed on the way.
func RecordCheckinMerge(action string, duplicatesRemoved int) {
	checkinsMerged.WithLabelValues(action).Inc()
	if duplicatesRemoved > 0 {
		checkinDuplicatesRemoved.Add(float64(duplicatesRemoved))
	}
}

// RecordTransition records a session state change.
func RecordTransition(to string) {
	sessionTransitions.WithLabelValues(to).Inc()
}

// ObserveStoreOp records the latency of a store call. failed marks storage failures only.
func ObserveStoreOp(backend, op string, d time.Duration, failed bool) {
	storeOpDuration.WithLabelValues(backend, op).Observe(d.Seconds())
	if failed {
		storeErrors.WithLabelValues(backend, op).Inc()
	}
}

// RecordCatalogReload records a catalog load attempt.
func RecordCatalogReload(result string) {
	catalogReloads.WithLabelValues(result).Inc()
}
