// Package httpcontroller serves the web surface: the htmx-driven control
// page, the JSON API and the Prometheus scrape endpoint.
package httpcontroller

import (
	"context"
	"embed"
	"html/template"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/beni69/csengo/internal/conf"
	"github.com/beni69/csengo/internal/datastore"
	"github.com/beni69/csengo/internal/logging"
	"github.com/beni69/csengo/internal/observability"
	"github.com/beni69/csengo/internal/player"
	"github.com/beni69/csengo/internal/scheduler"
)

//go:embed views
var viewsFS embed.FS

//go:embed static
var staticFS embed.FS

// Server wires the echo instance to the rest of the system.
type Server struct {
	Echo      *echo.Echo
	Store     datastore.Interface
	Player    *player.Player
	Scheduler *scheduler.Scheduler
	Settings  *conf.Settings
	Metrics   *observability.Metrics

	logger *slog.Logger
}

// templateRenderer adapts html/template to echo's Renderer interface.
type templateRenderer struct {
	templates *template.Template
}

func (t *templateRenderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

// New builds the HTTP server. The metrics aggregate may be nil (tests).
func New(settings *conf.Settings, store datastore.Interface, p *player.Player, sched *scheduler.Scheduler, m *observability.Metrics) *Server {
	s := &Server{
		Echo:      echo.New(),
		Store:     store,
		Player:    p,
		Scheduler: sched,
		Settings:  settings,
		Metrics:   m,
		logger:    logging.ForService("http"),
	}

	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.Renderer = &templateRenderer{
		templates: template.Must(template.ParseFS(viewsFS, "views/*.html")),
	}
	s.Echo.HTTPErrorHandler = s.errorHandler

	s.Echo.Use(middleware.Recover())
	s.Echo.Use(s.requestMetrics)

	s.initRoutes()
	return s
}

func (s *Server) initRoutes() {
	e := s.Echo

	e.GET("/", s.handleIndex)
	e.StaticFS("/static", echo.MustSubFS(staticFS, "static"))

	htmx := e.Group("/htmx")
	htmx.GET("/task", s.handleTaskList)
	htmx.POST("/task", s.handleTaskCreate)
	htmx.DELETE("/task/:name", s.handleTaskDelete)
	htmx.GET("/file", s.handleFileList)
	htmx.POST("/file", s.handleFileUpload)
	htmx.DELETE("/file/:name", s.handleFileDelete)
	htmx.GET("/status", s.handleStatus)

	e.GET("/sse", s.handleSSE)
	e.GET("/realtime", s.handleRealtime)

	api := e.Group("/api")
	api.Any("/stop", s.handleStop)
	api.POST("/playtest", s.handlePlaytest)
	api.GET("/export", s.handleExport)
	api.POST("/import", s.handleImport)
	api.GET("/file/:name", s.handleFileDownload)

	if s.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	}
}

// Start begins listening on the configured address. It returns once the
// listener is up; serve errors are reported on the returned channel.
func (s *Server) Start() <-chan error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Echo.Start(s.Settings.Addr()); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()
	s.logger.Info("http server starting", "addr", s.Settings.Addr())
	return errChan
}

// Shutdown drains in-flight requests and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
