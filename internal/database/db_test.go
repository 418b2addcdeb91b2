package database

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// testDB creates a temporary in-memory database for testing. Retention is
// off so seeded rows from any date survive.
func testDB(t *testing.T) *DB {
	t.Helper()
	return openTestDB(t, Config{Path: ":memory:"})
}

func openTestDB(t *testing.T, cfg Config) *DB {
	t.Helper()

	// Quiet logger for tests
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	db, err := Open(cfg, logger)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	ctx := context.Background()
	if _, err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func strPtr(s string) *string {
	return &s
}

func int64Ptr(n int64) *int64 {
	return &n
}

// seedScrapeLogs inserts a failed and two successful attempts.
func seedScrapeLogs(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()

	base := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	entries := []*ScrapeLog{
		{Friday: "2025-01-03", URL: "https://example.org/a", Success: false, ErrorMessage: strPtr("HTTP status 503"), ScrapedAt: base},
		{Friday: "2025-01-03", URL: "https://example.org/a", Success: true, FieldsFound: 3, DurationMs: int64Ptr(420), ScrapedAt: base.Add(time.Minute)},
		{Friday: "2025-01-10", URL: "https://example.org/b", Success: true, FieldsFound: 4, DurationMs: int64Ptr(380), ScrapedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if err := db.LogScrapeAttempt(ctx, e); err != nil {
			t.Fatalf("seed scrape log: %v", err)
		}
	}
}

// -----------------------------------------------------------------
// DB tests
// -----------------------------------------------------------------

func TestOpen(t *testing.T) {
	db := testDB(t)

	ctx := context.Background()
	if err := db.Health(ctx); err != nil {
		t.Errorf("Health() error = %v", err)
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shabbat.db")

	db, err := Open(DefaultConfig(path), nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("database directory not created: %v", err)
	}
}

func TestHealth_RequiresMigrations(t *testing.T) {
	db, err := Open(Config{Path: ":memory:"}, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = db.Close() }()
	ctx := context.Background()

	if err := db.Health(ctx); err == nil {
		t.Error("Health() on an unmigrated database = nil, want error")
	}

	if _, err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.Health(ctx); err != nil {
		t.Errorf("Health() after Migrate() error = %v", err)
	}
}

func TestSchemaVersion(t *testing.T) {
	db, err := Open(Config{Path: ":memory:"}, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = db.Close() }()
	ctx := context.Background()

	version, err := db.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != 0 {
		t.Errorf("SchemaVersion() before Migrate = %d, want 0", version)
	}

	count, err := db.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if count != len(migrations) {
		t.Errorf("Migrate() count = %d, want %d", count, len(migrations))
	}

	version, err = db.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != latestVersion() {
		t.Errorf("SchemaVersion() = %d, want %d", version, latestVersion())
	}
}

func TestMigrations_Ordered(t *testing.T) {
	for i := 1; i < len(migrations); i++ {
		if migrations[i].version <= migrations[i-1].version {
			t.Errorf("migration %q (v%d) does not follow v%d",
				migrations[i].name, migrations[i].version, migrations[i-1].version)
		}
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"default timeout", Config{Path: "data/shabbat.db"}, "data/shabbat.db?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"},
		{"custom timeout", Config{Path: ":memory:", BusyTimeout: 250 * time.Millisecond}, ":memory:?_busy_timeout=250&_journal_mode=WAL&_txlock=immediate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dsn(tt.cfg); got != tt.want {
				t.Errorf("dsn() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMigrate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// Already applied by testDB; running again is a no-op.
	count, err := db.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Migrate() count = %d, want 0 (already applied)", count)
	}
}

// -----------------------------------------------------------------
// Scrape log tests
// -----------------------------------------------------------------

func TestLogScrapeAttempt(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	entry := &ScrapeLog{
		Friday:      "2025-01-03",
		URL:         "https://example.org/calendar",
		Success:     true,
		FieldsFound: 3,
		DurationMs:  int64Ptr(250),
	}
	if err := db.LogScrapeAttempt(ctx, entry); err != nil {
		t.Fatalf("LogScrapeAttempt() error = %v", err)
	}

	if entry.ID == 0 {
		t.Error("LogScrapeAttempt() did not set ID")
	}
	if entry.ScrapedAt.IsZero() {
		t.Error("LogScrapeAttempt() did not set ScrapedAt")
	}
}

func TestGetRecentScrapeLogs(t *testing.T) {
	db := testDB(t)
	seedScrapeLogs(t, db)
	ctx := context.Background()

	logs, err := db.GetRecentScrapeLogs(ctx, 2)
	if err != nil {
		t.Fatalf("GetRecentScrapeLogs() error = %v", err)
	}

	if len(logs) != 2 {
		t.Fatalf("GetRecentScrapeLogs() returned %d logs, want 2", len(logs))
	}
	if logs[0].Friday != "2025-01-10" {
		t.Errorf("logs[0].Friday = %q, want newest first", logs[0].Friday)
	}
	if logs[1].DurationMs == nil || *logs[1].DurationMs != 420 {
		t.Errorf("logs[1].DurationMs = %v, want 420", logs[1].DurationMs)
	}
	if !logs[1].ScrapedAt.Equal(time.Date(2025, time.January, 1, 12, 1, 0, 0, time.UTC)) {
		t.Errorf("logs[1].ScrapedAt = %v", logs[1].ScrapedAt)
	}
}

func TestGetRecentScrapeLogs_Empty(t *testing.T) {
	db := testDB(t)

	logs, err := db.GetRecentScrapeLogs(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetRecentScrapeLogs() error = %v", err)
	}
	if logs == nil || len(logs) != 0 {
		t.Errorf("GetRecentScrapeLogs() = %v, want empty slice", logs)
	}
}

func TestLatestSuccessfulScrape(t *testing.T) {
	db := testDB(t)
	seedScrapeLogs(t, db)
	ctx := context.Background()

	got, err := db.LatestSuccessfulScrape(ctx, "2025-01-03")
	if err != nil {
		t.Fatalf("LatestSuccessfulScrape() error = %v", err)
	}
	if !got.Success || got.FieldsFound != 3 {
		t.Errorf("LatestSuccessfulScrape() = %+v, want the successful attempt", got)
	}
	if got.ErrorMessage != nil {
		t.Errorf("ErrorMessage = %q, want nil", *got.ErrorMessage)
	}

	_, err = db.LatestSuccessfulScrape(ctx, "2025-02-07")
	if !IsNotFound(err) {
		t.Errorf("LatestSuccessfulScrape() missing error = %v, want ErrNotFound", err)
	}
}

func TestGetScrapeStats(t *testing.T) {
	db := testDB(t)
	seedScrapeLogs(t, db)

	stats, err := db.GetScrapeStats(context.Background())
	if err != nil {
		t.Fatalf("GetScrapeStats() error = %v", err)
	}

	if stats.TotalAttempts != 3 {
		t.Errorf("TotalAttempts = %d, want 3", stats.TotalAttempts)
	}
	if stats.Successful != 2 || stats.Failed != 1 {
		t.Errorf("Successful/Failed = %d/%d, want 2/1", stats.Successful, stats.Failed)
	}
	if stats.DistinctFridays != 2 {
		t.Errorf("DistinctFridays = %d, want 2", stats.DistinctFridays)
	}
	if stats.LastSuccessAt == nil || !stats.LastSuccessAt.Equal(time.Date(2025, time.January, 1, 12, 2, 0, 0, time.UTC)) {
		t.Errorf("LastSuccessAt = %v", stats.LastSuccessAt)
	}
}

func TestGetScrapeStats_Empty(t *testing.T) {
	db := testDB(t)

	stats, err := db.GetScrapeStats(context.Background())
	if err != nil {
		t.Fatalf("GetScrapeStats() error = %v", err)
	}
	if stats.TotalAttempts != 0 || stats.LastAttemptAt != nil {
		t.Errorf("GetScrapeStats() = %+v, want empty", stats)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
		want  bool
	}{
		{"rfc3339", "2025-01-03T18:00:00Z", true, true},
		{"sqlite datetime", "2025-01-03 18:00:00", true, true},
		{"garbage", "yesterday", true, false},
		{"null", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTimestamp(sqlNullString(tt.input, tt.valid))
			if (got != nil) != tt.want {
				t.Errorf("parseTimestamp(%q) = %v, want parsed=%v", tt.input, got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------
// Transaction tests
// -----------------------------------------------------------------

func TestLogScrapeRun(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	entries := []*ScrapeLog{
		{Friday: "2025-01-03", URL: "u", Success: true, FieldsFound: 3},
		{Friday: "2025-01-10", URL: "u", Success: false, ErrorMessage: strPtr("timeout")},
	}
	if err := db.LogScrapeRun(ctx, entries); err != nil {
		t.Fatalf("LogScrapeRun() error = %v", err)
	}

	logs, err := db.GetRecentScrapeLogs(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecentScrapeLogs() error = %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	if logs[0].RunID == nil || logs[1].RunID == nil {
		t.Fatalf("run IDs = %v, %v, want both set", logs[0].RunID, logs[1].RunID)
	}
	if *logs[0].RunID != *logs[1].RunID {
		t.Errorf("run IDs differ: %q vs %q", *logs[0].RunID, *logs[1].RunID)
	}

	// A second run gets its own ID.
	if err := db.LogScrapeRun(ctx, []*ScrapeLog{{Friday: "2025-01-03", URL: "u", Success: true}}); err != nil {
		t.Fatalf("LogScrapeRun() error = %v", err)
	}
	stats, err := db.GetScrapeStats(ctx)
	if err != nil {
		t.Fatalf("GetScrapeStats() error = %v", err)
	}
	if stats.Runs != 2 {
		t.Errorf("Runs = %d, want 2", stats.Runs)
	}
}

func TestLogScrapeRun_Empty(t *testing.T) {
	db := testDB(t)
	if err := db.LogScrapeRun(context.Background(), nil); err != nil {
		t.Errorf("LogScrapeRun(nil) error = %v", err)
	}
}

func TestLogScrapeRun_PrunesExpiredRows(t *testing.T) {
	db := openTestDB(t, Config{Path: ":memory:", Retention: 24 * time.Hour})
	ctx := context.Background()

	now := time.Date(2025, time.January, 3, 9, 0, 0, 0, time.UTC)
	old := []*ScrapeLog{
		{Friday: "2024-12-27", URL: "u", Success: true, ScrapedAt: now.Add(-48 * time.Hour)},
		{Friday: "2025-01-03", URL: "u", Success: true, ScrapedAt: now.Add(-2 * time.Hour)},
	}
	for _, e := range old {
		if err := db.LogScrapeAttempt(ctx, e); err != nil {
			t.Fatalf("LogScrapeAttempt() error = %v", err)
		}
	}

	if err := db.LogScrapeRun(ctx, []*ScrapeLog{{Friday: "2025-01-03", URL: "u", Success: true, ScrapedAt: now}}); err != nil {
		t.Fatalf("LogScrapeRun() error = %v", err)
	}

	logs, err := db.GetRecentScrapeLogs(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecentScrapeLogs() error = %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2 after pruning", len(logs))
	}
	for _, l := range logs {
		if l.Friday == "2024-12-27" {
			t.Errorf("row from %v survived a 24h retention", l.ScrapedAt)
		}
	}
}

func TestPruneScrapeLogs(t *testing.T) {
	db := testDB(t)
	seedScrapeLogs(t, db)
	ctx := context.Background()

	// Seeded rows are at 12:00, 12:01 and 12:02 on 2025-01-01.
	pruned, err := db.PruneScrapeLogs(ctx, time.Date(2025, time.January, 1, 12, 1, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("PruneScrapeLogs() error = %v", err)
	}
	if pruned != 1 {
		t.Errorf("PruneScrapeLogs() = %d, want 1", pruned)
	}

	logs, err := db.GetRecentScrapeLogs(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecentScrapeLogs() error = %v", err)
	}
	if len(logs) != 2 {
		t.Errorf("got %d logs, want 2", len(logs))
	}
}

func TestWithTx_Rollback(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *Tx) error {
		if err := tx.LogScrapeAttempt(ctx, &ScrapeLog{Friday: "2025-01-03", URL: "u"}); err != nil {
			return err
		}
		// Force error to trigger rollback
		return ErrNotFound
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("WithTx() rollback case error = %v, want ErrNotFound", err)
	}

	logs, err := db.GetRecentScrapeLogs(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecentScrapeLogs() error = %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("log should not exist after rollback, got %d rows", len(logs))
	}
}

func sqlNullString(s string, valid bool) sql.NullString {
	return sql.NullString{String: s, Valid: valid}
}
