// Package main is a smoke test client for a running Shabbat API server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fairlawncommons/shabbat-api/internal/output"
)

// =============================================================================
// Response Types
// =============================================================================

type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ShabbatResponse holds the fields of /api/v1/shabbat the checks look at.
type ShabbatResponse struct {
	Shabbat struct {
		Date       string `json:"date"`
		HebrewDate string `json:"hebrewDate"`
	} `json:"shabbat"`
	Parsha struct {
		CurrentWeekName string `json:"currentWeekName"`
		NextWeekName    string `json:"nextWeekName"`
	} `json:"parsha"`
	SpecialDay struct {
		IsSpecial bool   `json:"isSpecial"`
		Reason    string `json:"reason"`
	} `json:"specialDay"`
	HolidayName string `json:"holidayName"`
	MinyanTimes struct {
		FridayMincha string `json:"fridayMincha"`
	} `json:"minyanTimes"`
}

type NoticesResponse struct {
	Services map[string]struct {
		Additions []string `json:"additions"`
		Omissions []string `json:"omissions"`
	} `json:"services"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// =============================================================================
// Test Runner
// =============================================================================

type TestRunner struct {
	baseURL      string
	client       *http.Client
	printer      *output.Printer
	verbose      bool
	successCount int
	errorCount   int
	errors       []string
}

func NewTestRunner(baseURL string, verbose, color bool) *TestRunner {
	return &TestRunner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		printer: output.NewPrinter(color),
		verbose: verbose,
	}
}

func (tr *TestRunner) Run() {
	tr.printer.Header("Shabbat API smoke test")
	fmt.Printf("Base URL: %s\n", tr.baseURL)

	tr.testHealth()
	tr.testCurrentWeek()
	tr.testKnownWeeks()
	tr.testNotices()
	tr.testEdgeCases()
	tr.testMinyanStatus()

	tr.printSummary()
}

// =============================================================================
// Test Groups
// =============================================================================

func (tr *TestRunner) testHealth() {
	tr.printer.Header("Health Check")

	var health HealthResponse
	if err := tr.getData("/health", &health); err != nil {
		tr.recordError("Health", err.Error())
		return
	}
	if health.Status == "healthy" {
		tr.recordSuccess("Health check passed")
	} else {
		tr.recordError("Health", fmt.Sprintf("Unexpected status: %s", health.Status))
	}
}

func (tr *TestRunner) testCurrentWeek() {
	tr.printer.Header("Current Week")

	for _, offset := range []int{0, 1, -1} {
		var week ShabbatResponse
		path := fmt.Sprintf("/api/v1/shabbat?week=%d", offset)
		if err := tr.getData(path, &week); err != nil {
			tr.recordError(path, err.Error())
			continue
		}
		tr.recordSuccess(fmt.Sprintf("week %+d: %s (%s) %s", offset, week.Shabbat.Date, week.Shabbat.HebrewDate, week.Parsha.CurrentWeekName))
		if tr.verbose {
			fmt.Printf("    Friday Mincha: %s\n", week.MinyanTimes.FridayMincha)
		}
	}
}

func (tr *TestRunner) testKnownWeeks() {
	tr.printer.Header("Known Weeks")

	testCases := []struct {
		date        string
		parsha      string
		reason      string
		description string
	}{
		{"2025-01-04", "פרשת ויגש", "", "Vayigash, an ordinary Shabbat"},
		{"2024-12-28", "פרשת מקץ", "Chanukah", "Shabbat Chanukah"},
		{"2024-10-12", "יום כפור", "Yom Kippur", "Yom Kippur on Shabbat"},
	}

	for _, tc := range testCases {
		var week ShabbatResponse
		if err := tr.getData("/api/v1/shabbat/"+tc.date, &week); err != nil {
			tr.recordError(tc.date, err.Error())
			continue
		}

		switch {
		case !strings.HasPrefix(week.Parsha.CurrentWeekName, tc.parsha):
			tr.recordError(tc.date, fmt.Sprintf("Expected parsha '%s', got '%s'", tc.parsha, week.Parsha.CurrentWeekName))
		case tc.reason != "" && week.SpecialDay.Reason != tc.reason:
			tr.recordError(tc.date, fmt.Sprintf("Expected occasion '%s', got '%s'", tc.reason, week.SpecialDay.Reason))
		case tc.reason == "" && week.SpecialDay.IsSpecial:
			tr.recordError(tc.date, fmt.Sprintf("Expected an ordinary Shabbat, got '%s'", week.SpecialDay.Reason))
		default:
			tr.recordSuccess(fmt.Sprintf("%s: %s (%s)", tc.date, week.Parsha.CurrentWeekName, tc.description))
		}
	}
}

func (tr *TestRunner) testNotices() {
	tr.printer.Header("Notices")

	testCases := []struct {
		date    string
		service string
		want    string
	}{
		{"2024-12-26", "maariv", "על הניסים"},
		{"2024-11-01", "mincha", "יעלה ויבא"},
		{"2024-10-05", "shacharit", "המלך הקדוש"},
	}

	for _, tc := range testCases {
		var data NoticesResponse
		path := fmt.Sprintf("/api/v1/notices/%s?service=%s", tc.date, tc.service)
		if err := tr.getData(path, &data); err != nil {
			tr.recordError(path, err.Error())
			continue
		}
		additions := data.Services[tc.service].Additions
		if contains(additions, tc.want) {
			tr.recordSuccess(fmt.Sprintf("%s %s: %s", tc.date, tc.service, strings.Join(additions, ", ")))
		} else {
			tr.recordError(path, fmt.Sprintf("Expected '%s' in %v", tc.want, additions))
		}
	}
}

func (tr *TestRunner) testEdgeCases() {
	tr.printer.Header("Edge Cases")

	testCases := []struct {
		path string
		code int
		desc string
	}{
		{"/api/v1/shabbat/invalid", http.StatusBadRequest, "Invalid date format rejected"},
		{"/api/v1/shabbat?week=53", http.StatusBadRequest, "Week offset beyond a year rejected"},
		{"/api/v1/notices/2025-01-03?service=musaf", http.StatusBadRequest, "Unknown service rejected"},
		{"/api/v1/shabbat/2025/01/04", http.StatusNotFound, "Wrong date separator rejected"},
		{"/api/v1/shabbat/2024-02-29", http.StatusOK, "Leap day handled"},
		{"/api/v1/kiddush-levana/2030-06-15", http.StatusOK, "Far future date handled"},
	}

	for _, tc := range testCases {
		resp, err := tr.getRaw(tc.path)
		if err != nil {
			tr.recordError(tc.path, err.Error())
			continue
		}
		_ = resp.Body.Close()
		if resp.StatusCode == tc.code {
			tr.recordSuccess(tc.desc)
		} else {
			tr.recordError(tc.path, fmt.Sprintf("Expected HTTP %d, got %d", tc.code, resp.StatusCode))
		}
	}
}

func (tr *TestRunner) testMinyanStatus() {
	tr.printer.Header("Minyan Fetch Job")

	var status struct {
		Cache struct {
			Entries     int     `json:"entries"`
			LastUpdated *string `json:"lastUpdated"`
		} `json:"cache"`
	}
	if err := tr.getData("/api/v1/minyan/status", &status); err != nil {
		tr.recordError("Minyan status", err.Error())
		return
	}
	if status.Cache.LastUpdated == nil {
		tr.printer.Warning("minyan cache has never been written")
	}
	tr.recordSuccess(fmt.Sprintf("Minyan cache holds %d Fridays", status.Cache.Entries))
}

// =============================================================================
// Helper Methods
// =============================================================================

func (tr *TestRunner) getData(path string, target any) error {
	resp, err := tr.getRaw(path)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read error: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	if !apiResp.Success {
		errMsg := "unknown error"
		if apiResp.Error != nil {
			errMsg = apiResp.Error.Message
		}
		return fmt.Errorf("API error: %s", errMsg)
	}

	return json.Unmarshal(apiResp.Data, target)
}

func (tr *TestRunner) getRaw(path string) (*http.Response, error) {
	return tr.client.Get(tr.baseURL + path)
}

func (tr *TestRunner) recordSuccess(msg string) {
	tr.successCount++
	tr.printer.Success("%s", msg)
}

func (tr *TestRunner) recordError(context, msg string) {
	tr.errorCount++
	errStr := fmt.Sprintf("%s: %s", context, msg)
	tr.errors = append(tr.errors, errStr)
	tr.printer.Error("%s", errStr)
}

func (tr *TestRunner) printSummary() {
	tr.printer.Header("Summary")
	fmt.Printf("  Passed: %d\n", tr.successCount)
	fmt.Printf("  Failed: %d\n", tr.errorCount)

	if tr.errorCount > 0 {
		fmt.Println("\nFailures:")
		for _, err := range tr.errors {
			fmt.Printf("  • %s\n", err)
		}
		fmt.Printf("\nTests completed with %d failure(s)\n", tr.errorCount)
		return
	}
	fmt.Println("\nAll tests passed!")
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}

// =============================================================================
// Main
// =============================================================================

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	verbose := flag.Bool("v", false, "Verbose output")
	noColor := flag.Bool("no-color", false, "Disable coloured output")
	flag.Parse()

	// Check if server is reachable
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	_ = resp.Body.Close()

	runner := NewTestRunner(*baseURL, *verbose, !*noColor)
	runner.Run()

	// Exit with error code if tests failed
	if runner.errorCount > 0 {
		os.Exit(1)
	}
}
