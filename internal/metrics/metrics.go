package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	metricPrefix = "alarmd_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	measurementsTotal       *prometheus.CounterVec
	alarmsRaisedTotal       *prometheus.CounterVec
	correlationFailureTotal *prometheus.CounterVec
	ingestLatency           *prometheus.HistogramVec
	acknowledgementsTotal   prometheus.Counter
)

// Init registers the service metrics and, when db is set, connection pool stats.
func Init(db *sql.DB) {
	registerOnce.Do(func() {
		measurementsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "measurements_total",
				Help: "Total measurement samples correlated by ingestion source",
			},
			[]string{"source"},
		)
		alarmsRaisedTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alarms_raised_total",
				Help: "Total alarms appended by measurement type",
			},
			[]string{"type"},
		)
		correlationFailureTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "correlation_failures_total",
				Help: "Total correlation failures by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Measurement correlation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		acknowledgementsTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "alarm_acknowledgements_total",
				Help: "Total mark-all-read requests served",
			},
		)

		prometheus.MustRegister(
			measurementsTotal,
			alarmsRaisedTotal,
			correlationFailureTotal,
			ingestLatency,
			acknowledgementsTotal,
		)

		if db != nil {
			prometheus.MustRegister(collectors.NewDBStatsCollector(db, "alarmd"))
		}
	})
}

// IncMeasurement counts one correlated sample from source.
func IncMeasurement(source string) {
	if source == "" {
		source = "unknown"
	}
	if measurementsTotal != nil {
		measurementsTotal.WithLabelValues(source).Inc()
	}
}

// AddAlarmsRaised counts appended alarms of one type.
func AddAlarmsRaised(alarmType string, count int) {
	if count <= 0 {
		return
	}
	if alarmsRaisedTotal != nil {
		alarmsRaisedTotal.WithLabelValues(alarmType).Add(float64(count))
	}
}

// IncCorrelationFailure counts a correlation that stopped early.
func IncCorrelationFailure(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if correlationFailureTotal != nil {
		correlationFailureTotal.WithLabelValues(reason).Inc()
	}
}

// ObserveIngest records correlation duration and result.
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncAcknowledgement counts one mark-all-read.
func IncAcknowledgement() {
	if acknowledgementsTotal != nil {
		acknowledgementsTotal.Inc()
	}
}

// Prometheus records into the collectors registered by Init.
type Prometheus struct{}

func (Prometheus) ObserveIngest(result string, duration time.Duration) {
	ObserveIngest(result, duration)
}

func (Prometheus) IncCorrelationFailure(reason string) {
	IncCorrelationFailure(reason)
}

func (Prometheus) AddAlarmsRaised(alarmType string, count int) {
	AddAlarmsRaised(alarmType, count)
}

func (Prometheus) IncAcknowledgement() {
	IncAcknowledgement()
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	SourceAPI    = "api"
	SourceMQTT   = "mqtt"
	SourcePoller = "poller"

	ReasonDeviceNotFound = "device_not_found"
	ReasonUserNotFound   = "user_not_found"
	ReasonNoMatch        = "no_match"
	ReasonStorage        = "storage"
)
