package httpcontroller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beni69/csengo/internal/sink"
)

func (s *Server) handleStatus(c echo.Context) error {
	return c.Render(http.StatusOK, "status", s.Player.NowPlaying())
}

// handleSSE streams now-playing changes as server-sent events. The current
// value is sent immediately so a new client does not wait for the next track
// change.
func (s *Server) handleSSE(c echo.Context) error {
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set(echo.HeaderCacheControl, "no-cache")
	h.Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	updates, cancel := s.Player.NowPlayingStream()
	defer cancel()

	if err := writeSSE(c, s.Player.NowPlaying()); err != nil {
		return nil
	}

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case np := <-updates:
			if err := writeSSE(c, np); err != nil {
				return nil
			}
		}
	}
}

func writeSSE(c echo.Context, np *sink.NowPlaying) error {
	payload, err := json.Marshal(np)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", payload); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}

// handleRealtime long-polls the next now-playing change. The connection
// holds until a track starts or ends, or the client gives up.
func (s *Server) handleRealtime(c echo.Context) error {
	updates, cancel := s.Player.NowPlayingStream()
	defer cancel()

	select {
	case <-c.Request().Context().Done():
		return nil
	case np := <-updates:
		return c.JSON(http.StatusOK, np)
	}
}
