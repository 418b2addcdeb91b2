// Package database records minyan fetch attempts in SQLite.
//
// The scrape log is the only table. The fetch job appends one row per Friday
// per run, and the status endpoints and CLI read it back. Nothing in the
// calendar engine touches the database.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// =============================================================================
// Database Connection
// =============================================================================

// DefaultRetention is how long scrape log rows are kept.
const DefaultRetention = 90 * 24 * time.Hour

// DefaultBusyTimeout is how long a connection waits on a locked database.
const DefaultBusyTimeout = 5 * time.Second

// DB wraps the standard sql.DB with scrape log methods.
type DB struct {
	*sql.DB
	logger    *slog.Logger
	retention time.Duration
}

// Config holds database configuration options.
type Config struct {
	Path        string        // Path to SQLite database file, or ":memory:"
	Retention   time.Duration // Scrape log rows older than this are pruned after each run; 0 keeps everything
	BusyTimeout time.Duration // How long to wait on a locked database (default: 5s)
}

// DefaultConfig returns the scrape log defaults for a database file.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		Retention:   DefaultRetention,
		BusyTimeout: DefaultBusyTimeout,
	}
}

// dsn builds the go-sqlite3 connection string.
//
// Why these pragmas?
//   - WAL: the status endpoints read while the fetch job writes a run.
//   - busy timeout: the CLI and the server may share one file; a second
//     writer waits instead of failing with "database is locked".
//   - immediate transactions: a run is written in one transaction, and taking
//     the write lock up front avoids a deadlock when two runs start together.
func dsn(cfg Config) string {
	timeout := cfg.BusyTimeout
	if timeout <= 0 {
		timeout = DefaultBusyTimeout
	}

	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", strconv.FormatInt(timeout.Milliseconds(), 10))
	params.Set("_txlock", "immediate")
	return cfg.Path + "?" + params.Encode()
}

// Open connects to the scrape log database, creating its directory if needed.
//
// The caller is responsible for calling Close() when done, and for calling
// Migrate before the first query.
func Open(cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	inMemory := cfg.Path == ":memory:"
	if dir := filepath.Dir(cfg.Path); !inMemory && dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection: SQLite allows a single writer, and an in-memory
	// database exists only as long as its connection, so it is never recycled.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("scrape log database connected",
		slog.String("path", cfg.Path),
		slog.Duration("retention", cfg.Retention),
	)

	return &DB{
		DB:        db,
		logger:    logger,
		retention: cfg.Retention,
	}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// Health checks that the database answers and that its schema is current.
// A database opened but never migrated is reported as unhealthy.
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	version, err := db.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}
	if want := latestVersion(); version < want {
		return fmt.Errorf("database schema at version %d, want %d", version, want)
	}

	return nil
}

// =============================================================================
// Migrations
// =============================================================================

// SchemaVersion returns the highest applied migration, or 0 for a fresh
// database.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var exists int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'",
	).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, nil
	}

	var version sql.NullInt64
	if err := db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		return 0, err
	}
	return int(version.Int64), nil
}

// Migrate runs all pending migrations and returns how many were applied.
//
// The strategy is forward-only: versions recorded in schema_migrations are
// skipped, the rest run in order. Everything happens in one transaction, so a
// failing migration leaves the schema where it was.
func (db *DB) Migrate(ctx context.Context) (int, error) {
	db.logger.Info("running database migrations")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		)
	`)
	if err != nil {
		return 0, fmt.Errorf("create schema_migrations table: %w", err)
	}

	applied, err := appliedVersions(ctx, tx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range migrations {
		if applied[m.version] {
			db.logger.Debug("migration already applied",
				slog.Int("version", m.version),
				slog.String("name", m.name),
			)
			continue
		}

		db.logger.Info("applying migration",
			slog.Int("version", m.version),
			slog.String("name", m.name),
		)

		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			return count, fmt.Errorf("execute migration %d (%s): %w", m.version, m.name, err)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			m.version, m.name,
		)
		if err != nil {
			return count, fmt.Errorf("record migration %d: %w", m.version, err)
		}

		count++
	}

	if err := tx.Commit(); err != nil {
		return count, fmt.Errorf("commit migrations: %w", err)
	}

	db.logger.Info("migrations complete",
		slog.Int("applied", count),
		slog.Int("total", len(migrations)),
	)

	return count, nil
}

// appliedVersions reads the versions already recorded in schema_migrations.
func appliedVersions(ctx context.Context, tx *Tx) (map[int]bool, error) {
	rows, err := tx.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate migration versions: %w", err)
	}

	return applied, nil
}

// =============================================================================
// Transaction Helpers
// =============================================================================

// Tx represents a database transaction with scrape log helpers.
type Tx struct {
	*sql.Tx
}

// BeginTx starts a new transaction.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := db.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx}, nil
}

// WithTx executes fn within a transaction.
// If fn returns an error, the transaction is rolled back.
// Otherwise, it's committed.
//
// Example:
//
//	err := db.WithTx(ctx, func(tx *database.Tx) error {
//	    return tx.LogScrapeAttempt(ctx, entry)
//	})
func (db *DB) WithTx(ctx context.Context, fn func(*Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// =============================================================================
// Error Types
// =============================================================================

// ErrNotFound is returned when a requested record doesn't exist.
var ErrNotFound = errors.New("record not found")

// IsNotFound checks if an error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}
