package minyan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fairlawncommons/shabbat-api/internal/calendar"
	"github.com/fairlawncommons/shabbat-api/internal/database"
	"github.com/fairlawncommons/shabbat-api/internal/hebrew"
	"github.com/fairlawncommons/shabbat-api/internal/metrics"
)

// DefaultWeeks is how many Fridays a run fetches, starting with the coming one.
const DefaultWeeks = 4

// DefaultDelay is the pause between calendar requests.
const DefaultDelay = time.Second

// ErrRunInProgress is returned when a run is requested while one is active.
var ErrRunInProgress = errors.New("minyan fetch already running")

// Fetcher reads one week of times from the calendar.
type Fetcher interface {
	Fetch(ctx context.Context, friday hebrew.CivilDate) (Entry, error)
	WeekURL(friday hebrew.CivilDate) string
}

// RunRecorder persists the attempts of a run.
type RunRecorder interface {
	LogScrapeRun(ctx context.Context, entries []*database.ScrapeLog) error
}

// UpdaterOptions configures a fetch run.
type UpdaterOptions struct {
	Weeks    int
	Delay    time.Duration
	Location *time.Location
	// Now picks the starting week; nil means time.Now.
	Now func() time.Time
}

// WeekResult is the outcome for one Friday.
type WeekResult struct {
	Friday string `json:"friday"`
	URL    string `json:"url"`
	Found  int    `json:"found"`
	Error  string `json:"error,omitempty"`
}

// RunResult summarizes a fetch run.
type RunResult struct {
	StartedAt time.Time    `json:"startedAt"`
	Weeks     []WeekResult `json:"weeks"`
	Updated   int          `json:"updated"`
	Failed    int          `json:"failed"`
}

// Updater refreshes the cache from the calendar. Only one run is active at
// a time.
type Updater struct {
	store    *Store
	fetcher  Fetcher
	recorder RunRecorder
	limiter  *rate.Limiter
	weeks    int
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time

	running sync.Mutex
}

// NewUpdater creates an updater. recorder may be nil.
func NewUpdater(store *Store, fetcher Fetcher, recorder RunRecorder, opts UpdaterOptions, logger *slog.Logger) *Updater {
	if opts.Weeks <= 0 {
		opts.Weeks = DefaultWeeks
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Updater{
		store:    store,
		fetcher:  fetcher,
		recorder: recorder,
		limiter:  rate.NewLimiter(rate.Every(opts.Delay), 1),
		weeks:    opts.Weeks,
		loc:      opts.Location,
		logger:   logger,
		now:      opts.Now,
	}
}

// Weeks returns how many Fridays each run fetches.
func (u *Updater) Weeks() int {
	return u.weeks
}

// Run fetches the coming weeks and saves the cache. A week that fails keeps
// whatever the cache already had for it. The returned error is reserved for
// problems with the run itself: a busy updater, cancellation, or a failed save.
func (u *Updater) Run(ctx context.Context) (*RunResult, error) {
	if !u.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer u.running.Unlock()

	now := u.now().In(u.loc)
	result := &RunResult{StartedAt: now}
	attempts := make([]*database.ScrapeLog, 0, u.weeks)

	u.logger.Info("minyan fetch started", "weeks", u.weeks)

	for i := 0; i < u.weeks; i++ {
		if err := u.limiter.Wait(ctx); err != nil {
			u.record(ctx, attempts)
			return result, fmt.Errorf("minyan fetch interrupted: %w", err)
		}

		friday, _ := calendar.TargetWeek(now, i)
		key := friday.String()
		week := WeekResult{Friday: key, URL: u.fetcher.WeekURL(friday)}

		start := time.Now()
		entry, err := u.fetcher.Fetch(ctx, friday)
		elapsed := time.Since(start)
		metrics.RecordScrape(err == nil, elapsed.Seconds())

		attempt := &database.ScrapeLog{
			Friday:     key,
			URL:        week.URL,
			Success:    err == nil,
			DurationMs: ptr(elapsed.Milliseconds()),
		}

		if err != nil {
			msg := err.Error()
			week.Error = msg
			attempt.ErrorMessage = &msg
			result.Failed++
			u.logger.Warn("minyan fetch failed, keeping cached times", "friday", key, "error", err)
		} else {
			week.Found = entry.Found()
			attempt.FieldsFound = week.Found
			u.store.Merge(key, entry)
			result.Updated++
			u.logger.Info("minyan times fetched", "friday", key, "found", week.Found)
		}

		result.Weeks = append(result.Weeks, week)
		attempts = append(attempts, attempt)
	}

	u.store.Touch(u.now())
	if err := u.store.Save(); err != nil {
		u.record(ctx, attempts)
		return result, err
	}

	snap := u.store.Snapshot()
	metrics.SetCacheState(len(snap.Times), snap.LastUpdated.Unix())

	u.record(ctx, attempts)
	u.logger.Info("minyan fetch finished",
		"updated", result.Updated,
		"failed", result.Failed,
		"path", u.store.Path(),
	)
	return result, nil
}

func (u *Updater) record(ctx context.Context, attempts []*database.ScrapeLog) {
	if u.recorder == nil || len(attempts) == 0 {
		return
	}
	// Recording must outlive a cancelled run.
	if err := u.recorder.LogScrapeRun(context.WithoutCancel(ctx), attempts); err != nil {
		u.logger.Error("failed to record minyan fetch attempts", "error", err)
	}
}

func ptr[T any](v T) *T {
	return &v
}
