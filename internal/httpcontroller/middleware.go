package httpcontroller

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/beni69/csengo/internal/errors"
)

// requestMetrics records one counter increment and one duration observation
// per request, with the path normalized to keep label cardinality bounded.
func (s *Server) requestMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.Metrics == nil {
			return next(c)
		}

		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if err != nil {
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else {
				status = categoryStatus(err)
			}
		}

		s.Metrics.HTTP.RecordRequest(
			c.Request().Method,
			c.Request().URL.Path,
			status,
			time.Since(start),
		)
		return err
	}
}

// categoryStatus maps an error's category to the HTTP status it surfaces as.
func categoryStatus(err error) int {
	switch {
	case errors.HasCategory(err, errors.CategoryNotFound):
		return http.StatusNotFound
	case errors.HasCategory(err, errors.CategoryValidation),
		errors.HasCategory(err, errors.CategoryConflict):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorHandler turns handler errors into short plain-text replies. The full
// error chain goes to the log, not to the client.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := "internal server error"

	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	} else {
		status = categoryStatus(err)
		switch status {
		case http.StatusNotFound:
			msg = "not found"
		case http.StatusBadRequest:
			msg = "invalid request"
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Request().Method, "path", c.Request().URL.Path, "error", err)
	} else {
		s.logger.Warn("request rejected", "method", c.Request().Method, "path", c.Request().URL.Path, "error", err)
	}

	if err := c.String(status, msg); err != nil {
		s.logger.Error("failed to write error response", "error", err)
	}
}
