package httpcontroller

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/beni69/csengo/internal/datastore"
	"github.com/beni69/csengo/internal/errors"
)

func (s *Server) handleFileList(c echo.Context) error {
	return s.renderFiles(c, http.StatusOK)
}

func (s *Server) handleFileUpload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return errors.New(err).
			Component("http").
			Category(errors.CategoryValidation).
			Context("error", "missing file field").
			Build()
	}

	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	data, err := io.ReadAll(src)
	if err != nil {
		return err
	}

	if err := s.Store.InsertFile(&datastore.File{Name: fh.Filename, Data: data}); err != nil {
		return err
	}

	s.logger.Info("file uploaded", "name", fh.Filename, "bytes", len(data))
	s.updateFileStats()
	return s.renderFiles(c, http.StatusOK)
}

func (s *Server) handleFileDelete(c echo.Context) error {
	name := c.Param("name")

	deleted, err := s.Store.DeleteFile(name)
	if err != nil {
		return err
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	}

	s.updateFileStats()
	return s.renderFiles(c, http.StatusOK)
}

func (s *Server) handleFileDownload(c echo.Context) error {
	name := c.Param("name")

	file, err := s.Store.GetFile(name)
	if err != nil {
		return err
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.Blob(http.StatusOK, contentType, file.Data)
}

func (s *Server) renderFiles(c echo.Context, status int) error {
	files, err := s.Store.ListFiles()
	if err != nil {
		return err
	}
	return c.Render(status, "files", files)
}

// updateFileStats refreshes the stored-file gauges after a mutation.
func (s *Server) updateFileStats() {
	if s.Metrics == nil {
		return
	}
	count, bytes, err := s.Store.FileStats()
	if err != nil {
		s.logger.Warn("failed to read file stats", "error", err)
		return
	}
	s.Metrics.Datastore.SetFileStats(count, bytes)
}
