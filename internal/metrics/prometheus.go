package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DetectionsIngested counts successfully stored detections.
	DetectionsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetzone_detections_ingested_total",
			Help: "Total number of detections durably stored",
		},
	)

	// AlertsFired counts alerts by type.
	AlertsFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetzone_alerts_fired_total",
			Help: "Total number of alerts fired",
		},
		[]string{"alert_type"},
	)

	// DeviceReports counts telemetry reports by device type.
	DeviceReports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetzone_device_reports_total",
			Help: "Total number of IoT telemetry reports processed",
		},
		[]string{"device_type"},
	)

	// BroadcastDropped counts messages dropped by the broadcaster.
	BroadcastDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetzone_broadcast_dropped_total",
			Help: "Total number of broadcast messages dropped",
		},
		[]string{"sink"},
	)

	// ConnectedObservers tracks live websocket clients.
	ConnectedObservers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleetzone_connected_observers",
			Help: "Number of connected websocket observers",
		},
	)

	// IngestDuration measures the synchronous ingest pipeline latency.
	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fleetzone_ingest_duration_seconds",
			Help:    "Detection ingest latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)
