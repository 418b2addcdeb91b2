package minyan

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/temoto/robotstxt"

	"github.com/fairlawncommons/shabbat-api/internal/hebrew"
)

// DefaultCalendarURL is the synagogue's public calendar page.
const DefaultCalendarURL = "https://shomreitorah.shulcloud.com/calendar"

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultRobotsTTL is how long a robots.txt verdict is reused.
const DefaultRobotsTTL = 24 * time.Hour

// DefaultUserAgent identifies the fetch job to the calendar site.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ShabbatSchedule/1.0)"

// weekQuery asks for a week view spanning one Friday and Saturday.
const weekQuery = "advanced=Y&calendar=&date_start=specific+date&date_start_x=0&date_start_date=%s" +
	"&has_second_date=Y&date_end=specific+date&date_end_x=0&date_end_date=%s&view=week&day_view_horizontal=N"

// Day blocks in the week view.
const (
	fridayBlock  = "day5"
	shabbatBlock = "day6"
)

// FetchError represents an error fetching or reading the calendar page.
type FetchError struct {
	URL     string
	Message string
	Cause   error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Options configures the scraper.
type Options struct {
	CalendarURL   string
	Timeout       time.Duration
	UserAgent     string
	Headers       map[string]string
	RespectRobots bool
	RobotsTTL     time.Duration
}

// DefaultOptions returns sensible defaults for scraping.
func DefaultOptions() *Options {
	return &Options{
		CalendarURL:   DefaultCalendarURL,
		Timeout:       DefaultTimeout,
		UserAgent:     DefaultUserAgent,
		RespectRobots: true,
		RobotsTTL:     DefaultRobotsTTL,
	}
}

// Scraper reads minyan times from the synagogue calendar.
type Scraper struct {
	opts   *Options
	client *http.Client
	logger *slog.Logger

	now func() time.Time

	robotsMu      sync.Mutex
	robotsChecked time.Time
	robotsErr     error
}

// NewScraper creates a scraper. Nil options use DefaultOptions.
func NewScraper(opts *Options, logger *slog.Logger) *Scraper {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.CalendarURL == "" {
		opts.CalendarURL = DefaultCalendarURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RobotsTTL <= 0 {
		opts.RobotsTTL = DefaultRobotsTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		logger: logger,
		now:    time.Now,
	}
}

// WeekURL builds the calendar URL for a Friday and the following Saturday.
func (s *Scraper) WeekURL(friday hebrew.CivilDate) string {
	return s.opts.CalendarURL + "?" + fmt.Sprintf(weekQuery, friday, friday.AddDays(1))
}

// Fetch downloads the calendar week for friday and extracts the times.
func (s *Scraper) Fetch(ctx context.Context, friday hebrew.CivilDate) (Entry, error) {
	pageURL := s.WeekURL(friday)

	if err := s.checkRobots(ctx); err != nil {
		return Entry{}, err
	}

	body, err := s.get(ctx, pageURL)
	if err != nil {
		return Entry{}, err
	}

	entry, err := ParseWeek(bytes.NewReader(body))
	if err != nil {
		return Entry{}, &FetchError{URL: pageURL, Message: "failed to parse calendar", Cause: err}
	}

	s.logger.Debug("calendar week parsed", "friday", friday.String(), "found", entry.Found())
	return entry, nil
}

// checkRobots refuses to continue if robots.txt disallows the calendar path.
// The verdict is cached for RobotsTTL so a long-running server picks up
// changes. An unreachable robots.txt is allowed.
func (s *Scraper) checkRobots(ctx context.Context) error {
	if !s.opts.RespectRobots {
		return nil
	}

	s.robotsMu.Lock()
	defer s.robotsMu.Unlock()

	now := s.now()
	if !s.robotsChecked.IsZero() && now.Sub(s.robotsChecked) < s.opts.RobotsTTL {
		return s.robotsErr
	}
	s.robotsErr = s.fetchRobots(ctx)
	s.robotsChecked = now
	return s.robotsErr
}

func (s *Scraper) fetchRobots(ctx context.Context) error {
	cal, err := url.Parse(s.opts.CalendarURL)
	if err != nil || cal.Scheme == "" || cal.Host == "" {
		return &FetchError{URL: s.opts.CalendarURL, Message: "invalid URL", Cause: err}
	}

	robotsURL := cal.Scheme + "://" + cal.Host + "/robots.txt"
	status, body, err := s.getRaw(ctx, robotsURL)
	if err != nil {
		s.logger.Warn("robots.txt unavailable, continuing", "url", robotsURL, "error", err)
		return nil
	}

	robots, err := robotstxt.FromStatusAndBytes(status, body)
	if err != nil {
		s.logger.Warn("robots.txt unreadable, continuing", "url", robotsURL, "error", err)
		return nil
	}

	path := cal.EscapedPath()
	if path == "" {
		path = "/"
	}
	if !robots.TestAgent(path, s.opts.UserAgent) {
		return &FetchError{URL: s.opts.CalendarURL, Message: "disallowed by robots.txt"}
	}
	return nil
}

func (s *Scraper) get(ctx context.Context, pageURL string) ([]byte, error) {
	status, body, err := s.getRaw(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &FetchError{URL: pageURL, Message: fmt.Sprintf("HTTP status %d", status)}
	}
	return body, nil
}

func (s *Scraper) getRaw(ctx context.Context, pageURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return 0, nil, &FetchError{URL: pageURL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)
	for key, value := range s.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, &FetchError{URL: pageURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &FetchError{URL: pageURL, Message: "failed to read response body", Cause: err}
	}
	return resp.StatusCode, body, nil
}

// event is one row of a day block.
type event struct {
	name string
	time string
}

// ParseWeek extracts the Shabbat times from a calendar week page. It fails
// only when neither the Friday nor the Shabbat block is on the page.
func ParseWeek(r io.Reader) (Entry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	friday := doc.Find("#" + fridayBlock)
	shabbat := doc.Find("#" + shabbatBlock)
	if friday.Length() == 0 && shabbat.Length() == 0 {
		return Entry{}, fmt.Errorf("no %s or %s block in calendar page", fridayBlock, shabbatBlock)
	}

	fridayEvents := dayEvents(friday)
	shabbatEvents := dayEvents(shabbat)

	return Entry{
		FridayMincha:     findTime(fridayEvents, "Mincha/ Kabbalat Shabbat", "Mincha"),
		ShabbatMincha:    findTime(shabbatEvents, "Mincha"),
		ShabbatMaariv:    findTime(shabbatEvents, "Maariv"),
		ShabbatShacharis: findTime(shabbatEvents, "Shacharis", "Shacharit"),
	}, nil
}

func dayEvents(block *goquery.Selection) []event {
	var events []event
	block.Find("tr").Each(func(_ int, row *goquery.Selection) {
		t := strings.TrimSpace(row.Find("span.ce_time").First().Text())
		name := strings.Join(strings.Fields(row.Find("div.ce_event_name").First().Text()), " ")
		if t == "" || name == "" {
			return
		}
		events = append(events, event{name: name, time: t})
	})
	return events
}

// findTime returns the time of the first wanted name that matches an event,
// trying an exact match before a case-insensitive partial one.
func findTime(events []event, wanted ...string) *string {
	for _, name := range wanted {
		if t, ok := matchEvent(events, name); ok {
			return &t
		}
	}
	return nil
}

func matchEvent(events []event, name string) (string, bool) {
	for _, e := range events {
		if e.name == name {
			return e.time, true
		}
	}

	want := strings.ToLower(name)
	for _, e := range events {
		got := strings.ToLower(e.name)
		if strings.Contains(got, want) || strings.Contains(want, got) {
			return e.time, true
		}
	}
	return "", false
}
