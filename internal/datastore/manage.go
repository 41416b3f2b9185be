package datastore

import (
	"time"

	"gorm.io/gorm"

	"github.com/beni69/csengo/internal/errors"
)

// InsertFile stores an uploaded audio clip. Fails with a conflict error when
// a file with the same name already exists.
func (ds *DataStore) InsertFile(file *File) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	defer ds.observe("insert", "files", time.Now())

	err := ds.DB.Exec("INSERT INTO files (name, data) VALUES (?, ?)", file.Name, file.Data).Error
	if err != nil {
		return ds.wrapWriteError(err, "files", file.Name)
	}
	return nil
}

// GetFile reads a stored audio clip by name.
func (ds *DataStore) GetFile(name string) (File, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	defer ds.observe("get", "files", time.Now())

	var rows []File
	err := ds.DB.Raw("SELECT name, data FROM files WHERE name = ?", name).Scan(&rows).Error
	if err != nil {
		return File{}, ds.wrapReadError(err, "files", name)
	}
	if len(rows) == 0 {
		return File{}, notFoundError("files", name)
	}
	return rows[0], nil
}

// ListFiles returns the names of all stored audio clips.
func (ds *DataStore) ListFiles() ([]string, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	defer ds.observe("list", "files", time.Now())

	var names []string
	err := ds.DB.Raw("SELECT name FROM files ORDER BY name").Scan(&names).Error
	if err != nil {
		return nil, ds.wrapReadError(err, "files", "")
	}
	return names, nil
}

// DeleteFile removes a stored audio clip. The boolean reports whether the
// file existed.
func (ds *DataStore) DeleteFile(name string) (bool, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	defer ds.observe("delete", "files", time.Now())

	res := ds.DB.Exec("DELETE FROM files WHERE name = ?", name)
	if res.Error != nil {
		return false, ds.wrapWriteError(res.Error, "files", name)
	}
	return res.RowsAffected == 1, nil
}

// FileStats returns the number of stored files and their total size in bytes.
func (ds *DataStore) FileStats() (count, bytes int64, err error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	defer ds.observe("stats", "files", time.Now())

	var row struct {
		Count int64
		Bytes int64
	}
	err = ds.DB.Raw("SELECT COUNT(*) AS count, COALESCE(SUM(LENGTH(data)), 0) AS bytes FROM files").
		Scan(&row).Error
	if err != nil {
		return 0, 0, ds.wrapReadError(err, "files", "")
	}
	return row.Count, row.Bytes, nil
}

// taskRow is the raw shape of the tasks table.
type taskRow struct {
	Type     string
	Name     string
	Priority bool
	FileName string
	Time     string
}

func (r *taskRow) toTask() (Task, error) {
	t := Task{
		Type:     r.Type,
		Name:     r.Name,
		Priority: r.Priority,
		FileName: r.FileName,
	}
	if err := t.decodeTime(r.Time); err != nil {
		return Task{}, err
	}
	return t, nil
}

// InsertTask persists a scheduled or recurring task. Now tasks must not be
// passed in. Fails with a conflict error when the name is taken.
func (ds *DataStore) InsertTask(task *Task) error {
	if task.Type == TypeNow {
		return errors.Newf("now tasks are never persisted").
			Component("datastore").
			Category(errors.CategoryValidation).
			Context("task", task.Name).
			Build()
	}
	if err := task.Validate(); err != nil {
		return err
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	defer ds.observe("insert", "tasks", time.Now())

	err := ds.DB.Exec(
		"INSERT INTO tasks (type, name, priority, file_name, time) VALUES (?, ?, ?, ?, ?)",
		task.Type, task.Name, task.Priority, task.FileName, task.encodeTime(),
	).Error
	if err != nil {
		return ds.wrapWriteError(err, "tasks", task.Name)
	}
	return nil
}

// GetTask reads a single persisted task by name.
func (ds *DataStore) GetTask(name string) (Task, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	defer ds.observe("get", "tasks", time.Now())

	var rows []taskRow
	err := ds.DB.Raw("SELECT type, name, priority, file_name, time FROM tasks WHERE name = ?", name).
		Scan(&rows).Error
	if err != nil {
		return Task{}, ds.wrapReadError(err, "tasks", name)
	}
	if len(rows) == 0 {
		return Task{}, notFoundError("tasks", name)
	}
	return rows[0].toTask()
}

// ListTasks returns all persisted tasks.
func (ds *DataStore) ListTasks() ([]Task, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	defer ds.observe("list", "tasks", time.Now())

	var rows []taskRow
	err := ds.DB.Raw("SELECT type, name, priority, file_name, time FROM tasks ORDER BY name").
		Scan(&rows).Error
	if err != nil {
		return nil, ds.wrapReadError(err, "tasks", "")
	}

	tasks := make([]Task, 0, len(rows))
	for i := range rows {
		t, err := rows[i].toTask()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// DeleteTask removes a persisted task. The boolean reports whether the task
// existed, making deletion idempotent at the semantic level.
func (ds *DataStore) DeleteTask(name string) (bool, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	defer ds.observe("delete", "tasks", time.Now())

	res := ds.DB.Exec("DELETE FROM tasks WHERE name = ?", name)
	if res.Error != nil {
		return false, ds.wrapWriteError(res.Error, "tasks", name)
	}
	return res.RowsAffected == 1, nil
}

// TaskExists reports whether a task with the given name is persisted.
func (ds *DataStore) TaskExists(name string) (bool, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	defer ds.observe("exists", "tasks", time.Now())

	var count int64
	err := ds.DB.Raw("SELECT COUNT(*) FROM tasks WHERE name = ?", name).Scan(&count).Error
	if err != nil {
		return false, ds.wrapReadError(err, "tasks", name)
	}
	return count > 0, nil
}

func (ds *DataStore) wrapWriteError(err error, table, name string) error {
	category := errors.CategoryDatabase
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		category = errors.CategoryConflict
	}
	return errors.New(err).
		Component("datastore").
		Category(category).
		Context("table", table).
		Context("name", name).
		Build()
}

func (ds *DataStore) wrapReadError(err error, table, name string) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("table", table).
		Context("name", name).
		Build()
}

func notFoundError(table, name string) error {
	return errors.Newf("%s: not found", name).
		Component("datastore").
		Category(errors.CategoryNotFound).
		Context("table", table).
		Context("name", name).
		Build()
}
