// Package observability provides metrics and monitoring capabilities for the
// csengo server.
package observability

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/beni69/csengo/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry  *prometheus.Registry
	Playback  *metrics.PlaybackMetrics
	Scheduler *metrics.SchedulerMetrics
	Datastore *metrics.DatastoreMetrics
	HTTP      *metrics.HTTPMetrics
	Mail      *metrics.MailMetrics
	buildInfo *prometheus.GaugeVec
}

// NewMetrics creates a new instance of Metrics, initializing all metric
// collectors. dbVersion is the compiled-in schema version, exposed as a
// build-info label next to the VCS revision.
func NewMetrics(dbVersion int) (*Metrics, error) {
	registry := prometheus.NewRegistry()

	playbackMetrics, err := metrics.NewPlaybackMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create playback metrics: %w", err)
	}

	schedulerMetrics, err := metrics.NewSchedulerMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler metrics: %w", err)
	}

	datastoreMetrics, err := metrics.NewDatastoreMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore metrics: %w", err)
	}

	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	mailMetrics, err := metrics.NewMailMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail metrics: %w", err)
	}

	buildInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "csengo_build_info",
		Help: "Build information with git_ref and db_version labels",
	}, []string{"git_ref", "db_version"})
	if err := registry.Register(buildInfo); err != nil {
		return nil, fmt.Errorf("failed to register build info: %w", err)
	}
	buildInfo.WithLabelValues(gitRef(), fmt.Sprintf("%d", dbVersion)).Set(1)

	m := &Metrics{
		registry:  registry,
		Playback:  playbackMetrics,
		Scheduler: schedulerMetrics,
		Datastore: datastoreMetrics,
		HTTP:      httpMetrics,
		Mail:      mailMetrics,
		buildInfo: buildInfo,
	}

	return m, nil
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// gitRef returns the VCS revision baked into the binary, or "unknown" when
// the build carries no VCS stamp (go test, go run).
func gitRef() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 8 {
				return s.Value[:8]
			}
			return s.Value
		}
	}
	return "unknown"
}
