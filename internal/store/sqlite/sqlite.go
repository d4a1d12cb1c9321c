// Package sqlite implements the persistence port against an embedded
// SQLite database. Joins, aggregates and cascade deletes run natively in
// the engine; foreign keys carry ON DELETE CASCADE.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/rollcall/rollcall/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added UNIQUE index on attendance(student_id, session_id)
const currentSchemaVersion = 1

// Store is the SQLite adapter.
// Uses WAL mode for concurrent read access during writes.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement (cascade deletes depend on it)
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the connection works.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return model.Unknown("database ping failed", err)
	}
	return nil
}

// SetNow overrides the timestamp source. Tests only.
func (s *Store) SetNow(now func() time.Time) {
	s.now = now
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
		version = 1
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the UNIQUE attendance pair index for databases created
// before the constraint existed. New databases get it from schema.sql.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_student_session
		ON attendance(student_id, session_id)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. Used to map duplicate inserts to CodeConflict.
func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
