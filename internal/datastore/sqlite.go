package datastore

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/beni69/csengo/internal/errors"
)

// Open sets up the SQLite database connection and runs pending schema
// migrations. It must be called before any other operation.
func (ds *DataStore) Open() error {
	gormLogger := gormlogger.New(slogWriter{ds.logger}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(sqlite.Open(ds.path), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("path", ds.path).
			Build()
	}
	ds.DB = db

	// busy_timeout guards the rare case of an external reader holding the file
	if err := db.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("pragma", "busy_timeout").
			Build()
	}

	if err := ds.migrate(); err != nil {
		return err
	}

	ds.logger.Info("db init successful", "path", ds.path, "schema_version", DBVersion)
	return nil
}

// Close releases the underlying connection pool.
func (ds *DataStore) Close() error {
	if ds.DB == nil {
		return nil
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// slogWriter adapts the datastore slog logger to gorm's logger.Writer.
type slogWriter struct {
	l *slog.Logger
}

func (w slogWriter) Printf(format string, args ...any) {
	w.l.Warn(fmt.Sprintf(format, args...))
}
