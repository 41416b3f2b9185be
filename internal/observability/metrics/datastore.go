package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// dbBuckets covers 0.1ms to 5s of database operation latency.
var dbBuckets = []float64{
	0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5,
}

// DatastoreMetrics contains all Prometheus metrics related to database operations.
type DatastoreMetrics struct {
	OpsTotal    *prometheus.CounterVec
	OpsDuration *prometheus.HistogramVec
	FilesCount  prometheus.Gauge
	FilesBytes  prometheus.Gauge
	registry    *prometheus.Registry
}

// NewDatastoreMetrics creates a new instance of DatastoreMetrics and
// registers it on the given registry.
func NewDatastoreMetrics(registry *prometheus.Registry) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize datastore metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register datastore metrics: %w", err)
	}
	return m, nil
}

func (m *DatastoreMetrics) initMetrics() error {
	m.OpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "csengo_db_operations_total",
		Help: "Total number of database operations",
	}, []string{"operation", "table"})

	m.OpsDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "csengo_db_operation_duration_seconds",
		Help:    "Duration of database operations in seconds",
		Buckets: dbBuckets,
	}, []string{"operation", "table"})

	m.FilesCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "csengo_db_files_count",
		Help: "Number of audio files stored in the database",
	})

	m.FilesBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "csengo_db_files_bytes",
		Help: "Total size of audio files stored in the database in bytes",
	})

	return nil
}

// RecordOperation records one database operation and its duration.
func (m *DatastoreMetrics) RecordOperation(operation, table string, duration time.Duration) {
	m.OpsTotal.WithLabelValues(operation, table).Inc()
	m.OpsDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// SetFileStats updates the stored-file gauges.
func (m *DatastoreMetrics) SetFileStats(count, bytes int64) {
	m.FilesCount.Set(float64(count))
	m.FilesBytes.Set(float64(bytes))
}

// Collect implements the prometheus.Collector interface.
func (m *DatastoreMetrics) Collect(ch chan<- prometheus.Metric) {
	m.OpsTotal.Collect(ch)
	m.OpsDuration.Collect(ch)
	ch <- m.FilesCount
	ch <- m.FilesBytes
}

// Describe implements the prometheus.Collector interface.
func (m *DatastoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.OpsTotal.Describe(ch)
	m.OpsDuration.Describe(ch)
	ch <- m.FilesCount.Desc()
	ch <- m.FilesBytes.Desc()
}
