package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "picar"

var (
	// VehicleStatus is 1 for the current motion status and 0 for the others.
	VehicleStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vehicle_status",
			Help:      "Current motion status of the vehicle (1=current).",
		},
		[]string{"status"},
	)

	// ActionsTotal counts actions by name and result (ok/failed/ignored).
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Total number of motion actions requested.",
		},
		[]string{"action", "result"},
	)

	SensorHumidity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_humidity_percent",
			Help:      "Last stored relative humidity in %RH.",
		},
	)

	SensorTemperature = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_temperature_celsius",
			Help:      "Last stored temperature in degrees Celsius.",
		},
	)

	SensorReadFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_read_failures_total",
			Help:      "Total number of failed sensor reads.",
		},
	)

	// NotifierSignals counts change signals by result (queued/coalesced).
	NotifierSignals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifier_signals_total",
			Help:      "Total number of change signals raised.",
		},
		[]string{"result"},
	)

	NotifierDeliveries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifier_deliveries_total",
			Help:      "Total number of snapshots delivered to the listener.",
		},
	)

	// WatchSubscribers is the number of live snapshot subscriptions.
	WatchSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watch_subscribers",
			Help:      "Number of active snapshot subscribers.",
		},
	)

	// MQTTPublishTotal counts publishes by topic kind and status (success/failed).
	MQTTPublishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mqtt_publish_total",
			Help:      "Total number of MQTT publishes.",
		},
		[]string{"kind", "status"},
	)

	// ArchiveUploadTotal counts telemetry uploads by status (success/failed).
	ArchiveUploadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_upload_total",
			Help:      "Total number of telemetry archive uploads.",
		},
		[]string{"status"},
	)

	ArchiveUploadLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "archive_upload_latency_seconds",
			Help:      "Latency of telemetry archive uploads.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		VehicleStatus,
		ActionsTotal,
		SensorHumidity,
		SensorTemperature,
		SensorReadFailures,
		NotifierSignals,
		NotifierDeliveries,
		WatchSubscribers,
		MQTTPublishTotal,
		ArchiveUploadTotal,
		ArchiveUploadLatency,
	)
}
