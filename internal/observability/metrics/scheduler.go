package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// driftBuckets covers 1ms to 1h of scheduling drift.
var driftBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 30, 60, 300, 900, 1800, 3600,
}

// SchedulerMetrics contains all Prometheus metrics related to task scheduling.
type SchedulerMetrics struct {
	TasksCreated *prometheus.CounterVec
	TasksFailed  *prometheus.CounterVec
	TasksActive  *prometheus.GaugeVec
	TaskDrift    *prometheus.HistogramVec
	registry     *prometheus.Registry
}

// NewSchedulerMetrics creates a new instance of SchedulerMetrics and
// registers it on the given registry.
func NewSchedulerMetrics(registry *prometheus.Registry) (*SchedulerMetrics, error) {
	m := &SchedulerMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize scheduler metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register scheduler metrics: %w", err)
	}
	return m, nil
}

func (m *SchedulerMetrics) initMetrics() error {
	m.TasksCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "csengo_tasks_created_total",
		Help: "Total number of tasks created",
	}, []string{"type"})

	m.TasksFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "csengo_tasks_failed_total",
		Help: "Total number of failed task executions",
	}, []string{"task_type", "task_name"})

	m.TasksActive = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "csengo_tasks_active",
		Help: "Number of currently active scheduled/recurring tasks",
	}, []string{"type"})

	m.TaskDrift = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "csengo_task_schedule_drift_seconds",
		Help:    "Difference between scheduled and actual execution time in seconds",
		Buckets: driftBuckets,
	}, []string{"task_type", "task_name"})

	// active gauges start visible at 0 for both task types
	m.TasksActive.WithLabelValues("scheduled").Set(0)
	m.TasksActive.WithLabelValues("recurring").Set(0)

	return nil
}

// RecordTaskCreated increments the created counter for a task type.
func (m *SchedulerMetrics) RecordTaskCreated(taskType string) {
	m.TasksCreated.WithLabelValues(taskType).Inc()
}

// RecordTaskFailed increments the failed counter.
func (m *SchedulerMetrics) RecordTaskFailed(taskType, taskName string) {
	m.TasksFailed.WithLabelValues(taskType, taskName).Inc()
}

// IncActiveTasks increments the active gauge for a task type.
func (m *SchedulerMetrics) IncActiveTasks(taskType string) {
	m.TasksActive.WithLabelValues(taskType).Inc()
}

// DecActiveTasks decrements the active gauge for a task type.
func (m *SchedulerMetrics) DecActiveTasks(taskType string) {
	m.TasksActive.WithLabelValues(taskType).Dec()
}

// RecordDrift records the absolute scheduling drift for a fired task.
func (m *SchedulerMetrics) RecordDrift(taskType, taskName string, driftSeconds float64) {
	m.TaskDrift.WithLabelValues(taskType, taskName).Observe(driftSeconds)
}

// Collect implements the prometheus.Collector interface.
func (m *SchedulerMetrics) Collect(ch chan<- prometheus.Metric) {
	m.TasksCreated.Collect(ch)
	m.TasksFailed.Collect(ch)
	m.TasksActive.Collect(ch)
	m.TaskDrift.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *SchedulerMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.TasksCreated.Describe(ch)
	m.TasksFailed.Describe(ch)
	m.TasksActive.Describe(ch)
	m.TaskDrift.Describe(ch)
}
