// Package metrics defines the Prometheus metrics of the mapping replay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the replay's collectors.
type Metrics struct {
	LastProcessedBlock prometheus.Gauge
	RecordsTotal       *prometheus.CounterVec
	ErrorsTotal        *prometheus.CounterVec
	HandlerDuration    *prometheus.HistogramVec
	EntitiesWritten    prometheus.Counter
	FarmsRegistered    prometheus.Gauge
}

// New registers the replay metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LastProcessedBlock: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "moneyscope",
			Name:      "mapping_last_processed_block",
			Help:      "Last block whose entities were committed.",
		}),
		RecordsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moneyscope",
			Name:      "mapping_records_total",
			Help:      "Decoded logs and calls dispatched to a handler, by family and event name.",
		}, []string{"family", "event"}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moneyscope",
			Name:      "mapping_errors_total",
			Help:      "Records that failed, by family and stage (decode, handle, flush).",
		}, []string{"family", "stage"}),
		HandlerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "moneyscope",
			Name:      "mapping_handler_duration_seconds",
			Help:      "Time spent in one handler invocation including its chain reads.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"family"}),
		EntitiesWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "moneyscope",
			Name:      "mapping_entities_written_total",
			Help:      "Entity records flushed by handler sessions.",
		}),
		FarmsRegistered: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "moneyscope",
			Name:      "mapping_farms_registered",
			Help:      "Farm contracts whose logs are being mapped.",
		}),
	}
}
