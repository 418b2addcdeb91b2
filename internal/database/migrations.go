package database

// migration is one forward-only schema change.
type migration struct {
	version int
	name    string
	sql     string
}

// migrations are applied in order. Versions must increase and are never
// reused: a database records each version it has run, so editing a shipped
// migration has no effect on existing files.
var migrations = []migration{
	{1, "scrape_log", migrationV1ScrapeLog},
	{2, "scrape_log_indexes", migrationV2ScrapeLogIndexes},
	{3, "scrape_log_run_id", migrationV3ScrapeLogRunID},
}

func latestVersion() int {
	return migrations[len(migrations)-1].version
}

// migrationV1ScrapeLog creates the log of minyan fetch attempts.
//
// One row is written per Friday per run, successful or not. The Friday is
// stored as its cache key (YYYY-MM-DD) so rows join against the minyan cache
// without date arithmetic in SQL. scraped_at is RFC3339 UTC; string order is
// time order, which the recency queries rely on.
const migrationV1ScrapeLog = `
CREATE TABLE IF NOT EXISTS scrape_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	friday        TEXT    NOT NULL,
	url           TEXT    NOT NULL,
	success       INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	fields_found  INTEGER NOT NULL DEFAULT 0,
	duration_ms   INTEGER,
	scraped_at    TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
);
`

// migrationV2ScrapeLogIndexes backs the two read paths: the latest success
// for a Friday, and the newest rows overall. The scraped_at index also keeps
// retention pruning from scanning the table.
const migrationV2ScrapeLogIndexes = `
CREATE INDEX IF NOT EXISTS idx_scrape_log_friday ON scrape_log (friday, success);
CREATE INDEX IF NOT EXISTS idx_scrape_log_scraped_at ON scrape_log (scraped_at);
`

// migrationV3ScrapeLogRunID groups the attempts of one fetch run.
//
// Rows logged before this migration, and single attempts logged outside a
// run, have a NULL run_id.
const migrationV3ScrapeLogRunID = `
ALTER TABLE scrape_log ADD COLUMN run_id TEXT;
CREATE INDEX IF NOT EXISTS idx_scrape_log_run_id ON scrape_log (run_id);
`
