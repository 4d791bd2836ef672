// Package telemetry exposes the agent's own operational counters via
// Prometheus. These describe the agent, not the machine being observed.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xinsight_collector_ticks_total",
		Help: "Total number of completed collection ticks",
	})

	TicksSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xinsight_collector_ticks_skipped_total",
		Help: "Ticks skipped because the previous tick was still running",
	})

	ProbeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xinsight_probe_failures_total",
		Help: "Probe readings that degraded to default values",
	}, []string{"probe"})

	SnapshotsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xinsight_snapshots_persisted_total",
		Help: "Snapshot rows written to the store",
	})

	WritesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xinsight_store_writes_dropped_total",
		Help: "Snapshot writes dropped due to a full queue or write error",
	})

	InsightsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xinsight_insights_generated_total",
		Help: "Insights produced per severity",
	}, []string{"severity"})

	AnomaliesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xinsight_anomalies_detected_total",
		Help: "Metric spikes flagged by the anomaly detector",
	})

	OverallStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "xinsight_overall_status",
		Help: "Overall status from the latest analysis pass (0=normal, 1=warning, 2=critical)",
	})
)
