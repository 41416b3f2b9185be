// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/beni69/csengo/internal/logging"
	"github.com/beni69/csengo/internal/observability/metrics"
)

// Interface abstracts the underlying database implementation and defines the
// persistence operations the rest of the server depends on. All operations
// are synchronous and crash-safe; name collisions surface as conflict errors.
type Interface interface {
	Open() error
	Close() error

	InsertFile(file *File) error
	GetFile(name string) (File, error)
	ListFiles() ([]string, error)
	DeleteFile(name string) (bool, error)
	FileStats() (count, bytes int64, err error)

	InsertTask(task *Task) error
	GetTask(name string) (Task, error)
	ListTasks() ([]Task, error)
	DeleteTask(name string) (bool, error)
	TaskExists(name string) (bool, error)
}

// DataStore implements Interface using a GORM database. A single mutex
// serializes every operation; contention is negligible for this workload and
// it keeps sqlite access single-writer.
type DataStore struct {
	DB      *gorm.DB
	mu      sync.Mutex
	path    string
	metrics *metrics.DatastoreMetrics
	logger  *slog.Logger
}

// New creates a DataStore for the sqlite file at path. The metrics collector
// may be nil (tests).
func New(path string, m *metrics.DatastoreMetrics) *DataStore {
	return &DataStore{
		path:    path,
		metrics: m,
		logger:  logging.ForService("datastore"),
	}
}

// observe records one database operation on the metrics collector.
func (ds *DataStore) observe(operation, table string, start time.Time) {
	if ds.metrics != nil {
		ds.metrics.RecordOperation(operation, table, time.Since(start))
	}
}
