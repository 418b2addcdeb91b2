package minyan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairlawncommons/shabbat-api/internal/database"
	"github.com/fairlawncommons/shabbat-api/internal/hebrew"
)

type fakeFetcher struct {
	mu      sync.Mutex
	entries map[string]Entry
	errs    map[string]error
	calls   []string
	block   chan struct{}
	started chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, friday hebrew.CivilDate) (Entry, error) {
	if f.block != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
		select {
		case <-f.block:
		case <-ctx.Done():
			return Entry{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := friday.String()
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return Entry{}, err
	}
	return f.entries[key], nil
}

func (f *fakeFetcher) WeekURL(friday hebrew.CivilDate) string {
	return "https://example.org/calendar?date=" + friday.String()
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []*database.ScrapeLog
	err     error
}

func (r *fakeRecorder) LogScrapeRun(_ context.Context, entries []*database.ScrapeLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entries...)
	return r.err
}

func newTestUpdater(t *testing.T, f Fetcher, rec RunRecorder) (*Updater, *Store) {
	t.Helper()
	store := newTestStore(t)
	u := NewUpdater(store, f, rec, UpdaterOptions{
		Weeks:    4,
		Delay:    time.Millisecond,
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC) },
	}, quietLogger())
	return u, store
}

func TestUpdater_Run(t *testing.T) {
	fetcher := &fakeFetcher{
		entries: map[string]Entry{
			"2025-01-03": {FridayMincha: str("4:25 PM"), ShabbatMincha: str("4:10 PM"), ShabbatMaariv: str("5:35 PM")},
			"2025-01-10": {ShabbatMaariv: str("5:42 PM")},
			"2025-01-24": {FridayMincha: str("4:45 PM")},
		},
		errs: map[string]error{"2025-01-17": errors.New("HTTP status 503")},
	}
	rec := &fakeRecorder{}
	u, store := newTestUpdater(t, fetcher, rec)

	// A week that fails keeps what was already cached.
	store.Merge("2025-01-17", Entry{FridayMincha: str("4:38 PM")})

	result, err := u.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-01-03", "2025-01-10", "2025-01-17", "2025-01-24"}, fetcher.calls)
	assert.Equal(t, 3, result.Updated)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Weeks, 4)
	assert.Equal(t, 3, result.Weeks[0].Found)
	assert.Equal(t, "HTTP status 503", result.Weeks[2].Error)

	assert.Equal(t, "4:38 PM", store.Lookup("2025-01-17").FridayMincha)
	assert.Equal(t, "5:42 PM", store.Lookup("2025-01-10").ShabbatMaariv)

	reloaded := NewStore(store.Path(), quietLogger())
	require.NoError(t, reloaded.Load())
	snap := reloaded.Snapshot()
	assert.Len(t, snap.Times, 4)
	require.NotNil(t, snap.LastUpdated)
	assert.True(t, snap.LastUpdated.Equal(time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)))

	require.Len(t, rec.entries, 4)
	assert.True(t, rec.entries[0].Success)
	assert.Equal(t, 3, rec.entries[0].FieldsFound)
	assert.False(t, rec.entries[2].Success)
	require.NotNil(t, rec.entries[2].ErrorMessage)
	assert.Equal(t, "HTTP status 503", *rec.entries[2].ErrorMessage)
}

func TestUpdater_RecorderErrorDoesNotFailRun(t *testing.T) {
	fetcher := &fakeFetcher{entries: map[string]Entry{}}
	rec := &fakeRecorder{err: errors.New("database is locked")}
	u, _ := newTestUpdater(t, fetcher, rec)

	result, err := u.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, result.Updated)
}

func TestUpdater_NilRecorder(t *testing.T) {
	u, store := newTestUpdater(t, &fakeFetcher{entries: map[string]Entry{}}, nil)

	_, err := u.Run(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, store.Path())
}

func TestUpdater_RejectsConcurrentRun(t *testing.T) {
	fetcher := &fakeFetcher{
		entries: map[string]Entry{},
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	u, _ := newTestUpdater(t, fetcher, nil)

	first := make(chan error, 1)
	go func() {
		_, err := u.Run(context.Background())
		first <- err
	}()

	select {
	case <-fetcher.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first run never started fetching")
	}

	_, err := u.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(fetcher.block)
	require.NoError(t, <-first)
}

func TestUpdater_Cancelled(t *testing.T) {
	fetcher := &fakeFetcher{entries: map[string]Entry{}}
	rec := &fakeRecorder{}
	store := newTestStore(t)
	u := NewUpdater(store, fetcher, rec, UpdaterOptions{Weeks: 4, Delay: time.Hour, Location: time.UTC}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := u.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, store.Path())
}

func TestUpdater_ScheduleRejectsBadSpec(t *testing.T) {
	u, _ := newTestUpdater(t, &fakeFetcher{entries: map[string]Entry{}}, nil)

	err := u.Schedule(context.Background(), "whenever")
	assert.Error(t, err)
}

func TestUpdater_ScheduleStopsOnCancel(t *testing.T) {
	u, _ := newTestUpdater(t, &fakeFetcher{entries: map[string]Entry{}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- u.Schedule(ctx, "0 6 * * 5") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Schedule did not return after cancel")
	}
}
