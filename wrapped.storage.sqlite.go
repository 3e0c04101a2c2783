package wrapped

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStorage implements TemplateStorage on a SQLite database file.
// It is suitable for single-process production use and, with ":memory:",
// for tests.
type SQLiteStorage struct {
	sqlStore
	path string
}

// SQLiteStorageDriver is the driver for creating SQLiteStorage instances.
type SQLiteStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameSQLite, &SQLiteStorageDriver{})
}

// Open creates a new SQLiteStorage. The connection string is a file path,
// or empty / ":memory:" for an in-memory database.
func (d *SQLiteStorageDriver) Open(connectionString string) (TemplateStorage, error) {
	return NewSQLiteStorage(connectionString)
}

// NewSQLiteStorage opens (or creates) the database at path and applies
// pending schema migrations.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if path == "" {
		path = SQLiteMemoryDSN
	}

	db, err := sql.Open(SQLiteDriverName, path)
	if err != nil {
		return nil, &StorageError{Message: ErrMsgSQLiteOpenFailed, Name: path, Cause: err}
	}

	// A single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(SQLiteMaxOpenConn)
	db.SetMaxIdleConns(SQLiteMaxOpenConn)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(SQLitePragmaWAL); err != nil {
		db.Close()
		return nil, &StorageError{Message: ErrMsgSQLiteOpenFailed, Name: path, Cause: err}
	}

	storage := &SQLiteStorage{
		sqlStore: sqlStore{
			db:              db,
			table:           SQLiteTableName,
			migrationsTable: SQLiteMigrationsTableName,
			dialect:         sqliteDialect(),
		},
		path: path,
	}

	if err := storage.RunMigrations(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return storage, nil
}

// Path returns the database path the storage was opened with.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// sqliteDialect stores JSON and timestamps as TEXT; times use SQLiteTimeLayout
func sqliteDialect() sqlDialect {
	return sqlDialect{
		bind: func(n int) string { return "?" + strconv.Itoa(n) },
		timeArg: func(t time.Time) any {
			return t.UTC().Format(SQLiteTimeLayout)
		},
		isolation: sql.LevelDefault,
		jsonType:  "TEXT",
		timeType:  "TEXT",
	}
}
