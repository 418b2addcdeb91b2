package database

import (
	"time"
)

// ScrapeLog is one attempt to fetch the minyan times for a Friday.
type ScrapeLog struct {
	ID           int64     `json:"id"`
	RunID        *string   `json:"run_id,omitempty"`
	Friday       string    `json:"friday"` // YYYY-MM-DD
	URL          string    `json:"url"`
	Success      bool      `json:"success"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	FieldsFound  int       `json:"fields_found"`
	DurationMs   *int64    `json:"duration_ms,omitempty"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

// ScrapeStats summarizes the scrape log.
type ScrapeStats struct {
	TotalAttempts   int        `json:"total_attempts"`
	Successful      int        `json:"successful"`
	Failed          int        `json:"failed"`
	DistinctFridays int        `json:"distinct_fridays"`
	Runs            int        `json:"runs"`
	LastAttemptAt   *time.Time `json:"last_attempt_at,omitempty"`
	LastSuccessAt   *time.Time `json:"last_success_at,omitempty"`
}
