package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// sqliteTimeLayout is SQLite's datetime() format, which has no zone.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// parseTimestamp converts a SQLite timestamp string to time.Time.
// Tries RFC3339 first, then the SQLite datetime format; nil if neither fits.
func parseTimestamp(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}

	t, err := time.Parse(time.RFC3339, ns.String)
	if err == nil {
		return &t
	}

	t, err = time.Parse(sqliteTimeLayout, ns.String)
	if err == nil {
		return &t
	}

	return nil
}

// =============================================================================
// Scrape Log Queries
// =============================================================================

// execer is satisfied by *DB and *Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// LogScrapeAttempt records one fetch attempt. A zero ScrapedAt means now.
// The generated ID and timestamp are written back to entry.
func (db *DB) LogScrapeAttempt(ctx context.Context, entry *ScrapeLog) error {
	return insertScrapeLog(ctx, db, entry)
}

// LogScrapeAttempt records one fetch attempt inside the transaction.
func (tx *Tx) LogScrapeAttempt(ctx context.Context, entry *ScrapeLog) error {
	return insertScrapeLog(ctx, tx, entry)
}

// LogScrapeRun records every attempt of one fetch run atomically. Entries
// without a run ID share a fresh one. When the database has a retention
// period, rows older than the run's newest attempt minus that period are
// pruned in the same transaction, so the log never grows without bound.
func (db *DB) LogScrapeRun(ctx context.Context, entries []*ScrapeLog) error {
	if len(entries) == 0 {
		return nil
	}

	runID := uuid.NewString()
	var newest time.Time
	return db.WithTx(ctx, func(tx *Tx) error {
		for _, entry := range entries {
			if entry.RunID == nil {
				entry.RunID = &runID
			}
			if err := tx.LogScrapeAttempt(ctx, entry); err != nil {
				return err
			}
			if entry.ScrapedAt.After(newest) {
				newest = entry.ScrapedAt
			}
		}

		if db.retention <= 0 {
			return nil
		}
		pruned, err := tx.PruneScrapeLogs(ctx, newest.Add(-db.retention))
		if err != nil {
			return err
		}
		if pruned > 0 {
			db.logger.Info("pruned scrape log", "rows", pruned, "retention", db.retention)
		}
		return nil
	})
}

// PruneScrapeLogs deletes attempts logged before cutoff and returns how many
// were removed.
func (db *DB) PruneScrapeLogs(ctx context.Context, cutoff time.Time) (int64, error) {
	return pruneScrapeLogs(ctx, db, cutoff)
}

// PruneScrapeLogs deletes attempts logged before cutoff inside the transaction.
func (tx *Tx) PruneScrapeLogs(ctx context.Context, cutoff time.Time) (int64, error) {
	return pruneScrapeLogs(ctx, tx, cutoff)
}

func pruneScrapeLogs(ctx context.Context, ex execer, cutoff time.Time) (int64, error) {
	// RFC3339 UTC strings compare in time order.
	res, err := ex.ExecContext(ctx,
		"DELETE FROM scrape_log WHERE scraped_at < ?",
		cutoff.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("prune scrape log: %w", err)
	}
	return res.RowsAffected()
}

func insertScrapeLog(ctx context.Context, ex execer, entry *ScrapeLog) error {
	if entry.ScrapedAt.IsZero() {
		entry.ScrapedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO scrape_log (
			run_id, friday, url, success, error_message, fields_found, duration_ms, scraped_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := ex.ExecContext(ctx, query,
		entry.RunID,
		entry.Friday,
		entry.URL,
		entry.Success,
		entry.ErrorMessage,
		entry.FieldsFound,
		entry.DurationMs,
		entry.ScrapedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("log scrape attempt: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read scrape log id: %w", err)
	}
	entry.ID = id

	return nil
}

// GetRecentScrapeLogs returns the newest log entries first.
func (db *DB) GetRecentScrapeLogs(ctx context.Context, limit int) ([]*ScrapeLog, error) {
	query := `
		SELECT id, run_id, friday, url, success, error_message, fields_found, duration_ms, scraped_at
		FROM scrape_log
		ORDER BY scraped_at DESC, id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query scrape logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*ScrapeLog, 0, limit)
	for rows.Next() {
		entry, err := scanScrapeLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scrape log rows: %w", err)
	}

	return logs, nil
}

// LatestSuccessfulScrape returns the newest successful attempt for a Friday.
// Returns ErrNotFound if there is none.
func (db *DB) LatestSuccessfulScrape(ctx context.Context, friday string) (*ScrapeLog, error) {
	query := `
		SELECT id, run_id, friday, url, success, error_message, fields_found, duration_ms, scraped_at
		FROM scrape_log
		WHERE friday = ? AND success = 1
		ORDER BY scraped_at DESC, id DESC
		LIMIT 1
	`

	entry, err := scanScrapeLog(db.QueryRowContext(ctx, query, friday))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetScrapeStats summarizes every attempt in the log.
func (db *DB) GetScrapeStats(ctx context.Context) (*ScrapeStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0),
			COUNT(DISTINCT friday),
			COUNT(DISTINCT run_id),
			MAX(scraped_at),
			MAX(CASE WHEN success = 1 THEN scraped_at END)
		FROM scrape_log
	`

	var stats ScrapeStats
	var lastAttempt, lastSuccess sql.NullString

	err := db.QueryRowContext(ctx, query).Scan(
		&stats.TotalAttempts,
		&stats.Successful,
		&stats.DistinctFridays,
		&stats.Runs,
		&lastAttempt,
		&lastSuccess,
	)
	if err != nil {
		return nil, fmt.Errorf("query scrape stats: %w", err)
	}

	stats.Failed = stats.TotalAttempts - stats.Successful
	stats.LastAttemptAt = parseTimestamp(lastAttempt)
	stats.LastSuccessAt = parseTimestamp(lastSuccess)

	return &stats, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanScrapeLog(row rowScanner) (*ScrapeLog, error) {
	var entry ScrapeLog
	var runID, errorMessage, scrapedAt sql.NullString
	var durationMs sql.NullInt64

	err := row.Scan(
		&entry.ID,
		&runID,
		&entry.Friday,
		&entry.URL,
		&entry.Success,
		&errorMessage,
		&entry.FieldsFound,
		&durationMs,
		&scrapedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan scrape log row: %w", err)
	}

	if runID.Valid {
		entry.RunID = &runID.String
	}
	if errorMessage.Valid {
		entry.ErrorMessage = &errorMessage.String
	}
	if durationMs.Valid {
		entry.DurationMs = &durationMs.Int64
	}
	if t := parseTimestamp(scrapedAt); t != nil {
		entry.ScrapedAt = *t
	}

	return &entry, nil
}
