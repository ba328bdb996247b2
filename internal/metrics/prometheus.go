package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the sync engine

var (
	// Merge metrics
	MergeOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scouter_merge_outcomes_total",
			Help: "Total number of merged records by entity and outcome",
		},
		[]string{"entity", "outcome"},
	)

	// Sync run metrics
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scouter_sync_runs_total",
			Help: "Total number of sync runs by terminal status",
		},
		[]string{"status"},
	)

	SyncRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scouter_sync_run_duration_seconds",
			Help:    "Duration of sync runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"status"},
	)

	SnapshotVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scouter_snapshot_version",
			Help: "Version of the last fetched remote snapshot",
		},
	)

	LastPublish = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scouter_last_publish_timestamp",
			Help: "Timestamp of the last published snapshot",
		},
	)

	// Provider metrics
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scouter_provider_calls_total",
			Help: "Total number of provider feed calls",
		},
		[]string{"endpoint", "status"},
	)

	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scouter_provider_call_duration_seconds",
			Help:    "Duration of provider feed calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Correction metrics
	CorrectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scouter_corrections_total",
			Help: "Total number of correction events recorded",
		},
		[]string{"entity", "field"},
	)

	// Aggregate cache metrics
	AggregateCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scouter_aggregate_cache_hits_total",
			Help: "Total number of aggregate cache hits",
		},
	)

	AggregateCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scouter_aggregate_cache_misses_total",
			Help: "Total number of aggregate cache misses",
		},
	)
)

// RecordMergeOutcome records one entity merge outcome tally.
func RecordMergeOutcome(entity, outcome string, count int) {
	if count > 0 {
		MergeOutcomesTotal.WithLabelValues(entity, outcome).Add(float64(count))
	}
}

// RecordSyncRun records the terminal status and duration of one run.
func RecordSyncRun(status string, duration float64) {
	SyncRunsTotal.WithLabelValues(status).Inc()
	SyncRunDuration.WithLabelValues(status).Observe(duration)

	if status == "published" {
		LastPublish.SetToCurrentTime()
	}
}

// RecordProviderCall records a provider feed call.
func RecordProviderCall(endpoint, status string, duration float64) {
	ProviderCallsTotal.WithLabelValues(endpoint, status).Inc()
	ProviderCallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordCorrection records a correction event.
func RecordCorrection(entity, field string) {
	CorrectionsTotal.WithLabelValues(entity, field).Inc()
}

// RecordAggregateCacheHit records an aggregate cache hit.
func RecordAggregateCacheHit() {
	AggregateCacheHitsTotal.Inc()
}

// RecordAggregateCacheMiss records an aggregate cache miss.
func RecordAggregateCacheMiss() {
	AggregateCacheMissesTotal.Inc()
}
