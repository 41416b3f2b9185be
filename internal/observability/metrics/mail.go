package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// MailMetrics contains all Prometheus metrics related to the mail notifier.
type MailMetrics struct {
	EmailSent *prometheus.CounterVec
	registry  *prometheus.Registry
}

// NewMailMetrics creates a new instance of MailMetrics and registers it on
// the given registry.
func NewMailMetrics(registry *prometheus.Registry) (*MailMetrics, error) {
	m := &MailMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize mail metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register mail metrics: %w", err)
	}
	return m, nil
}

func (m *MailMetrics) initMetrics() error {
	m.EmailSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "csengo_email_sent_total",
		Help: "Total number of emails sent",
	}, []string{"status"})

	return nil
}

// RecordEmail increments the email counter with a success or error status.
func (m *MailMetrics) RecordEmail(success bool) {
	if success {
		m.EmailSent.WithLabelValues("success").Inc()
	} else {
		m.EmailSent.WithLabelValues("error").Inc()
	}
}

// Collect implements the prometheus.Collector interface.
func (m *MailMetrics) Collect(ch chan<- prometheus.Metric) {
	m.EmailSent.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *MailMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.EmailSent.Describe(ch)
}
