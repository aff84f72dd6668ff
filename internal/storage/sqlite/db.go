// ABOUTME: SQLite connection for the run store, tagged with a schema version
// ABOUTME: Refuses databases written by a newer topicnaming and reports run counts
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite"
)

// ErrSchemaTooNew means the database was created by a newer release.
var ErrSchemaTooNew = errors.New("database schema is newer than this build")

// DB wraps a SQLite database connection
type DB struct {
	conn *sql.DB
	path string
}

// Info summarizes a run database.
type Info struct {
	Path          string
	SchemaVersion int
	Runs          int
	Documents     int
}

// DefaultDataDir returns the XDG data directory for run storage.
// XDG_DATA_HOME is read at call time so tests can override it.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, "topicnaming")
}

// DefaultDBPath returns the default database file path
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "topicnaming.db")
}

// Open opens or creates the run database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return attach(conn, path)
}

// OpenInMemory creates an in-memory run database for tests.
func OpenInMemory() (*DB, error) {
	conn, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Every pooled connection would get its own empty in-memory database
	conn.SetMaxOpenConns(1)
	return attach(conn, ":memory:")
}

func attach(conn *sql.DB, path string) (*DB, error) {
	db := &DB{conn: conn, path: path}
	if err := db.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

// migrate creates the tables on a fresh database and stamps the version.
// Older stamps are brought forward; Schema only uses IF NOT EXISTS.
func (db *DB) migrate() error {
	version, err := db.SchemaVersion()
	if err != nil {
		return err
	}
	if version > SchemaVersion {
		return fmt.Errorf("%w: %s has version %d, this build reads up to %d", ErrSchemaTooNew, db.path, version, SchemaVersion)
	}
	if _, err := db.conn.Exec(Schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	if version < SchemaVersion {
		// PRAGMA does not take bound parameters.
		if _, err := db.conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
			return fmt.Errorf("failed to stamp schema version: %w", err)
		}
	}
	return nil
}

// SchemaVersion reads the stamped schema version; 0 means unstamped.
func (db *DB) SchemaVersion() (int, error) {
	var v int
	if err := db.conn.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// Info reports the schema version and how much is stored.
func (db *DB) Info() (*Info, error) {
	info := &Info{Path: db.path}
	var err error
	if info.SchemaVersion, err = db.SchemaVersion(); err != nil {
		return nil, err
	}
	err = db.conn.QueryRow(`SELECT COUNT(*), COALESCE(SUM(document_count), 0) FROM runs`).Scan(&info.Runs, &info.Documents)
	if err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}
	return info, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Exec executes a query without returning rows
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// Begin starts a transaction
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

// QueryRow executes a query that returns at most one row
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}
