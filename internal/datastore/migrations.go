package datastore

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/beni69/csengo/internal/errors"
)

// DBVersion is the compiled-in schema version, stored in the sqlite
// user_version pragma. Migrations are write-only forward; there is no
// downgrade path.
const DBVersion = 2

// migrations[i] upgrades the schema from version i to version i+1. Each runs
// inside its own exclusive transaction.
var migrations = []func(tx *gorm.DB) error{
	// v0 -> v1: base tables
	func(tx *gorm.DB) error {
		if err := tx.Exec(`CREATE TABLE IF NOT EXISTS tasks (
			type      TEXT NOT NULL,
			name      TEXT PRIMARY KEY,
			file_name TEXT NOT NULL,
			time      TEXT
		) STRICT`).Error; err != nil {
			return err
		}
		return tx.Exec(`CREATE TABLE IF NOT EXISTS files (
			name      TEXT PRIMARY KEY,
			data      BLOB
		) STRICT`).Error
	},
	// v1 -> v2: priority flag on tasks
	func(tx *gorm.DB) error {
		return tx.Exec(`ALTER TABLE tasks ADD COLUMN priority INTEGER NOT NULL DEFAULT 0`).Error
	},
}

// migrate brings the schema from the stored user_version up to DBVersion.
func (ds *DataStore) migrate() error {
	var version int
	if err := ds.DB.Raw("PRAGMA user_version").Scan(&version).Error; err != nil {
		return migrationError(err, version)
	}

	if version > DBVersion {
		return errors.Newf("database schema version %d is newer than supported version %d", version, DBVersion).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	for v := version; v < DBVersion; v++ {
		ds.logger.Info("migrating database schema", "from", v, "to", v+1)
		err := ds.DB.Transaction(func(tx *gorm.DB) error {
			return migrations[v](tx)
		})
		if err != nil {
			return migrationError(err, v)
		}
		// user_version is set outside the transaction: sqlite applies pragma
		// writes immediately and a failed migration must not bump the version.
		// Pragmas do not take bound parameters.
		if err := ds.DB.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)).Error; err != nil {
			return migrationError(err, v)
		}
	}

	return nil
}

func migrationError(err error, version int) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", "migrate").
		Context("from_version", version).
		Build()
}
