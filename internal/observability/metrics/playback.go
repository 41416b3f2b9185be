// Package metrics provides custom Prometheus metrics for the components of
// the csengo server.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PlaybackMetrics contains all Prometheus metrics related to audio playback.
type PlaybackMetrics struct {
	PlaybackTotal   *prometheus.CounterVec
	PlaybackSeconds *prometheus.CounterVec
	PlaybackActive  prometheus.Gauge
	QueueSize       prometheus.Gauge
	AudioErrors     prometheus.Counter
	registry        *prometheus.Registry
}

// NewPlaybackMetrics creates a new instance of PlaybackMetrics and registers
// it on the given registry.
func NewPlaybackMetrics(registry *prometheus.Registry) (*PlaybackMetrics, error) {
	m := &PlaybackMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize playback metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register playback metrics: %w", err)
	}
	return m, nil
}

func (m *PlaybackMetrics) initMetrics() error {
	m.PlaybackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "csengo_playback_total",
		Help: "Total number of playback attempts",
	}, []string{"status", "task_type", "task_name"})

	m.PlaybackSeconds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "csengo_playback_seconds_total",
		Help: "Total seconds of audio played",
	}, []string{"task_name"})

	m.PlaybackActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "csengo_playback_active",
		Help: "Whether audio is currently playing (1) or not (0)",
	})

	m.QueueSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "csengo_playback_queue_size",
		Help: "Number of tracks in the playback queue",
	})

	m.AudioErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "csengo_audio_device_errors_total",
		Help: "Total number of audio device errors",
	})

	return nil
}

// RecordPlaybackSuccess increments the playback counter with a success status.
func (m *PlaybackMetrics) RecordPlaybackSuccess(taskType, taskName string) {
	m.PlaybackTotal.WithLabelValues("success", taskType, taskName).Inc()
}

// RecordPlaybackFailure increments the playback counter with an error status.
func (m *PlaybackMetrics) RecordPlaybackFailure(taskType, taskName string) {
	m.PlaybackTotal.WithLabelValues("error", taskType, taskName).Inc()
}

// RecordPlaybackSeconds adds played audio time for a track.
func (m *PlaybackMetrics) RecordPlaybackSeconds(taskName string, seconds float64) {
	m.PlaybackSeconds.WithLabelValues(taskName).Add(seconds)
}

// SetPlaybackActive updates the playback-active gauge.
func (m *PlaybackMetrics) SetPlaybackActive(active bool) {
	if active {
		m.PlaybackActive.Set(1)
	} else {
		m.PlaybackActive.Set(0)
	}
}

// SetQueueSize updates the queue-size gauge.
func (m *PlaybackMetrics) SetQueueSize(size int) {
	m.QueueSize.Set(float64(size))
}

// RecordAudioError increments the audio device error counter.
func (m *PlaybackMetrics) RecordAudioError() {
	m.AudioErrors.Inc()
}

// Collect implements the prometheus.Collector interface.
func (m *PlaybackMetrics) Collect(ch chan<- prometheus.Metric) {
	m.PlaybackTotal.Collect(ch)
	m.PlaybackSeconds.Collect(ch)
	ch <- m.PlaybackActive
	ch <- m.QueueSize
	ch <- m.AudioErrors
}

// Describe implements the prometheus.Collector interface.
func (m *PlaybackMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.PlaybackTotal.Describe(ch)
	m.PlaybackSeconds.Describe(ch)
	ch <- m.PlaybackActive.Desc()
	ch <- m.QueueSize.Desc()
	ch <- m.AudioErrors.Desc()
}
