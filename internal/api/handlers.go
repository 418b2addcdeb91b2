package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fairlawncommons/shabbat-api/internal/announce"
	"github.com/fairlawncommons/shabbat-api/internal/calendar"
	"github.com/fairlawncommons/shabbat-api/internal/database"
	"github.com/fairlawncommons/shabbat-api/internal/hebrew"
	"github.com/fairlawncommons/shabbat-api/internal/logger"
	"github.com/fairlawncommons/shabbat-api/internal/minyan"
)

// Deps are the collaborators the handlers need. Updater may be nil, which
// disables the refresh endpoint.
type Deps struct {
	DB            *database.DB
	Engine        *calendar.Engine
	Store         *minyan.Store
	Updater       *minyan.Updater
	Announcements *announce.List
	Location      hebrew.Location
	Logger        *slog.Logger
}

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	db            *database.DB
	engine        *calendar.Engine
	store         *minyan.Store
	updater       *minyan.Updater
	announcements *announce.List
	location      hebrew.Location
	validate      *validator.Validate
	logger        *slog.Logger
	now           func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(d Deps) *Handlers {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Location.TimeZone == nil {
		d.Location.TimeZone = time.Local
	}
	return &Handlers{
		db:            d.DB,
		engine:        d.Engine,
		store:         d.Store,
		updater:       d.Updater,
		announcements: d.Announcements,
		location:      d.Location,
		validate:      validator.New(),
		logger:        d.Logger,
		now:           time.Now,
	}
}

// ShabbatResponse is a week schedule with the presentation extras.
type ShabbatResponse struct {
	*calendar.WeekSchedule
	Location      string       `json:"location"`
	HolidayName   string       `json:"holidayName,omitempty"`
	MinyanTimes   minyan.Times `json:"minyanTimes"`
	Announcements []string     `json:"announcements"`
}

// NoticesResponse lists the notices for each requested service on a date.
type NoticesResponse struct {
	Date     hebrew.CivilDate                     `json:"date"`
	Services map[calendar.Service]calendar.Notices `json:"services"`
}

// KiddushLevanaResponse is the window for the night after a date.
type KiddushLevanaResponse struct {
	Date   hebrew.CivilDate             `json:"date"`
	Window calendar.KiddushLevanaWindow `json:"window"`
}

// CacheInfo describes the minyan times cache.
type CacheInfo struct {
	Path        string     `json:"path"`
	Entries     int        `json:"entries"`
	LastUpdated *time.Time `json:"lastUpdated"`
}

// FridayStatus is the fetch state of one upcoming Friday.
type FridayStatus struct {
	Friday        string     `json:"friday"`
	Cached        bool       `json:"cached"`
	LastFetchedAt *time.Time `json:"lastFetchedAt"`
}

// MinyanStatusResponse is the fetch job history.
type MinyanStatusResponse struct {
	Cache    CacheInfo             `json:"cache"`
	Stats    *database.ScrapeStats `json:"stats"`
	Upcoming []FridayStatus        `json:"upcoming"`
	Recent   []*database.ScrapeLog `json:"recent"`
}

type weekParams struct {
	Week int `validate:"gte=-52,lte=52"`
}

type statusParams struct {
	Limit int `validate:"gte=1,lte=100"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.db.Health(ctx); err != nil {
		h.log(r).Warn("health check failed", slog.Any("error", err))
		_ = WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
		return
	}

	_ = WriteSuccess(w, map[string]any{
		"status":      "healthy",
		"location":    h.location.Name,
		"minyanCache": h.cacheInfo(),
	})
}

// GetShabbat handles GET /api/v1/shabbat?week=N
func (h *Handlers) GetShabbat(w http.ResponseWriter, r *http.Request) {
	params := weekParams{}
	if s := r.URL.Query().Get("week"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			_ = WriteBadRequest(w, fmt.Sprintf("Invalid week: %s. Use an integer offset", s))
			return
		}
		params.Week = n
	}
	if err := h.validate.Struct(params); err != nil {
		_ = WriteBadRequest(w, "week must be between -52 and 52")
		return
	}

	_, shabbat := calendar.TargetWeek(h.now().In(h.location.TimeZone), params.Week)
	h.writeWeek(w, r, shabbat)
}

// GetShabbatForDate handles GET /api/v1/shabbat/{YYYY-MM-DD}. The Shabbat on
// or after the date is returned.
func (h *Handlers) GetShabbatForDate(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	h.writeWeek(w, r, calendar.ShabbatOnOrAfter(d))
}

func (h *Handlers) writeWeek(w http.ResponseWriter, r *http.Request, shabbat hebrew.CivilDate) {
	schedule, err := h.engine.Week(shabbat)
	if err != nil {
		h.log(r).Error("failed to assemble week", slog.String("shabbat", shabbat.String()), slog.Any("error", err))
		_ = WriteInternalError(w, "Failed to compute schedule")
		return
	}

	resp := ShabbatResponse{
		WeekSchedule:  schedule,
		Location:      h.location.Name,
		MinyanTimes:   h.store.Lookup(schedule.Friday.Date.String()),
		Announcements: h.announcements.Active(shabbat),
	}
	if name, ok := h.engine.HolidayName(shabbat); ok {
		resp.HolidayName = name
	}

	_ = WriteSuccess(w, resp)
}

// GetNotices handles GET /api/v1/notices/{YYYY-MM-DD}?service=maariv. Without
// a service, all three are returned.
func (h *Handlers) GetNotices(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	services := []calendar.Service{calendar.Shacharit, calendar.Mincha, calendar.Maariv}
	if s := r.URL.Query().Get("service"); s != "" {
		svc, err := calendar.ParseService(s)
		if err != nil {
			_ = WriteBadRequest(w, "service must be one of: shacharit, mincha, maariv")
			return
		}
		services = []calendar.Service{svc}
	}

	resp := NoticesResponse{Date: d, Services: make(map[calendar.Service]calendar.Notices, len(services))}
	for _, svc := range services {
		n := h.engine.Compose(d, svc)
		if svc == calendar.Maariv && d.Weekday() == time.Saturday && h.engine.VihiNoamOmitted(d) {
			n.Omissions.Add(calendar.NoticeVihiNoam)
		}
		resp.Services[svc] = n
	}

	_ = WriteSuccess(w, resp)
}

// GetKiddushLevana handles GET /api/v1/kiddush-levana/{YYYY-MM-DD}
func (h *Handlers) GetKiddushLevana(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	window, err := h.engine.KiddushLevana(d)
	if err != nil {
		h.log(r).Error("failed to compute kiddush levana", slog.String("date", d.String()), slog.Any("error", err))
		_ = WriteInternalError(w, "Failed to compute Kiddush Levana window")
		return
	}

	_ = WriteSuccess(w, KiddushLevanaResponse{Date: d, Window: window})
}

// GetMinyanStatus handles GET /api/v1/minyan/status?limit=N
func (h *Handlers) GetMinyanStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := statusParams{Limit: 20}
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			_ = WriteBadRequest(w, fmt.Sprintf("Invalid limit: %s", s))
			return
		}
		params.Limit = n
	}
	if err := h.validate.Struct(params); err != nil {
		_ = WriteBadRequest(w, "limit must be between 1 and 100")
		return
	}

	recent, err := h.db.GetRecentScrapeLogs(ctx, params.Limit)
	if err != nil {
		h.log(r).Error("failed to read scrape log", slog.Any("error", err))
		_ = WriteInternalError(w, "Failed to retrieve fetch history")
		return
	}

	stats, err := h.db.GetScrapeStats(ctx)
	if err != nil {
		h.log(r).Error("failed to read scrape stats", slog.Any("error", err))
		_ = WriteInternalError(w, "Failed to retrieve fetch history")
		return
	}

	upcoming, err := h.upcomingFridays(r)
	if err != nil {
		h.log(r).Error("failed to read latest fetches", slog.Any("error", err))
		_ = WriteInternalError(w, "Failed to retrieve fetch history")
		return
	}

	_ = WriteSuccess(w, MinyanStatusResponse{
		Cache:    h.cacheInfo(),
		Stats:    stats,
		Upcoming: upcoming,
		Recent:   recent,
	})
}

// upcomingFridays reports, for each Friday the fetch job covers, whether the
// cache has it and when it was last fetched successfully.
func (h *Handlers) upcomingFridays(r *http.Request) ([]FridayStatus, error) {
	weeks := minyan.DefaultWeeks
	if h.updater != nil {
		weeks = h.updater.Weeks()
	}

	now := h.now().In(h.location.TimeZone)
	out := make([]FridayStatus, 0, weeks)
	for i := 0; i < weeks; i++ {
		friday, _ := calendar.TargetWeek(now, i)
		key := friday.String()

		status := FridayStatus{Friday: key}
		if _, err := h.store.Get(key); err == nil {
			status.Cached = true
		}

		last, err := h.db.LatestSuccessfulScrape(r.Context(), key)
		switch {
		case err == nil:
			status.LastFetchedAt = &last.ScrapedAt
		case !database.IsNotFound(err):
			return nil, err
		}
		out = append(out, status)
	}
	return out, nil
}

// RefreshMinyan handles POST /api/v1/admin/minyan/refresh
func (h *Handlers) RefreshMinyan(w http.ResponseWriter, r *http.Request) {
	if h.updater == nil {
		_ = WriteUnavailable(w, "Minyan fetch job is not configured")
		return
	}

	// The run outlives the request so a client hanging up does not leave
	// the cache half refreshed.
	result, err := h.updater.Run(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, minyan.ErrRunInProgress):
		_ = WriteConflict(w, "A minyan fetch is already running")
		return
	case err != nil:
		h.log(r).Error("minyan refresh failed", slog.Any("error", err))
		_ = WriteInternalError(w, "Minyan refresh failed")
		return
	}

	h.log(r).Info("minyan refresh completed",
		slog.Int("updated", result.Updated),
		slog.Int("failed", result.Failed),
	)
	_ = WriteSuccess(w, result)
}

// dateParam reads the {date} URL parameter, writing a 400 when it is invalid.
func (h *Handlers) dateParam(w http.ResponseWriter, r *http.Request) (hebrew.CivilDate, bool) {
	s := chi.URLParam(r, "date")
	d, err := hebrew.ParseCivilDate(s)
	if err != nil {
		_ = WriteBadRequest(w, fmt.Sprintf("Invalid date format: %s. Use YYYY-MM-DD", s))
		return hebrew.CivilDate{}, false
	}
	return d, true
}

func (h *Handlers) cacheInfo() CacheInfo {
	snap := h.store.Snapshot()
	return CacheInfo{
		Path:        h.store.Path(),
		Entries:     len(snap.Times),
		LastUpdated: snap.LastUpdated,
	}
}

func (h *Handlers) log(r *http.Request) *slog.Logger {
	return logger.FromContext(r.Context(), h.logger)
}
