// Package database provides database setup, models, and the message archive.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/ostapv/leadwatch/migrations"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// NewDB opens the SQLite archive at dbPath, brings the schema up to
// date, and returns the connection pool.
func NewDB(dbPath string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", archiveDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	// The archive has one writer (the pipeline) and SQLite serializes
	// writes anyway, so a single connection is enough.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := migrateUp(db.DB, filePath(dbPath)); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("Error closing archive after migration failure", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to migrate archive schema: %w", err)
	}

	slog.Info("Archive database ready", "path", dbPath)
	return db, nil
}

// CloseDB closes the archive connection pool.
func CloseDB(db *sqlx.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		slog.Error("Error closing archive database", "error", err)
	}
}

// archiveDSN appends the pragmas the archive relies on to a plain file
// path. In-memory databases and paths that already carry options pass
// through untouched.
func archiveDSN(path string) string {
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// filePath strips DSN decorations down to the bare file path, which the
// migrate driver wants as its database name.
func filePath(path string) string {
	path = strings.TrimPrefix(path, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if decoded, err := url.PathUnescape(path); err == nil {
		return decoded
	}
	return path
}

// migrateUp applies the embedded migrations to the open database.
func migrateUp(db *sql.DB, name string) error {
	if db == nil {
		return errors.New("database connection is nil, cannot apply migrations")
	}
	if name == "" {
		return errors.New("database path for the migration driver is empty")
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	drv, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "sqlite3", drv)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	slog.Info("Archive schema migrated", "database", name)
	return nil
}
