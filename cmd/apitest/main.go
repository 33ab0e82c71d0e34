// Command apitest smoke-tests a running lunarcal API server against
// well-known dates.
//
// Usage:
//
//	go run ./cmd/apitest -url http://localhost:8080
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

	ical "github.com/arran4/golang-ical"
)

// =============================================================================
// Response Types - Match the actual API response structure
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

// LunisolarDate mirrors the date object of the API.
type LunisolarDate struct {
	Year        int  `json:"year"`
	Month       int  `json:"month"`
	IsLeapMonth bool `json:"is_leap_month"`
	Day         int  `json:"day"`
}

// DateResponse is the response for /api/v1/date/{date}
type DateResponse struct {
	Day        string        `json:"day"`
	Date       LunisolarDate `json:"date"`
	Label      string        `json:"label"`
	LeapMonth  int           `json:"leap_month"`
	Holidays   []string      `json:"holidays"`
	SolarTerms []struct {
		Name string `json:"name"`
	} `json:"solar_terms"`
}

// SnapshotResponse is the subset of /api/v1/snapshot checked here.
type SnapshotResponse struct {
	Day      string        `json:"day"`
	Date     LunisolarDate `json:"date"`
	Holidays []string      `json:"holidays"`
	Rings    struct {
		HourInDay float64   `json:"hour_in_day"`
		HourTicks []float64 `json:"hour_ticks"`
	} `json:"rings"`
}

// SolarTermsResponse is the response for /api/v1/solar-terms/{year}
type SolarTermsResponse struct {
	Year      int `json:"year"`
	LeapMonth int `json:"leap_month"`
	Terms     []struct {
		Name string    `json:"name"`
		Date time.Time `json:"date"`
	} `json:"terms"`
}

// HealthResponse is the response for /health
type HealthResponse struct {
	Status       string `json:"status"`
	ModelVersion string `json:"model_version"`
}

// =============================================================================
// Test Runner
// =============================================================================

type TestRunner struct {
	baseURL      string
	client       *http.Client
	verbose      bool
	successCount int
	errorCount   int
	errors       []string
	out          io.Writer
}

func NewTestRunner(baseURL string, verbose bool) *TestRunner {
	return &TestRunner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		verbose: verbose,
		out:     os.Stdout,
	}
}

func (tr *TestRunner) Run() {
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintln(tr.out, "Lunarcal API Test Suite")
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintf(tr.out, "Base URL: %s\n", tr.baseURL)
	fmt.Fprintln(tr.out)

	// Run test groups
	tr.testHealth()
	tr.testSnapshot()
	tr.testSpecificDates()
	tr.testSolarTerms()
	tr.testFindNext()
	tr.testCalendarExport()
	tr.testEdgeCases()

	// Print summary
	tr.printSummary()
}

// =============================================================================
// Test Groups
// =============================================================================

func (tr *TestRunner) testHealth() {
	tr.printSection("Health Check")

	var health HealthResponse
	if err := tr.getData("/health", &health); err != nil {
		tr.recordError("Health", err.Error())
		return
	}

	if health.Status == "healthy" {
		tr.recordSuccess(fmt.Sprintf("Health check passed (model %s)", health.ModelVersion))
	} else {
		tr.recordError("Health", fmt.Sprintf("Unexpected status: %s", health.Status))
	}
}

func (tr *TestRunner) testSnapshot() {
	tr.printSection("Snapshot")

	var snap SnapshotResponse
	path := "/api/v1/snapshot?at=2024-02-10T12:00:00%2B08:00&tz=Asia/Shanghai"
	if err := tr.getData(path, &snap); err != nil {
		tr.recordError("Snapshot", err.Error())
		return
	}

	switch {
	case snap.Date != (LunisolarDate{Year: 2024, Month: 1, Day: 1}):
		tr.recordError("Snapshot", fmt.Sprintf("date = %+v, want 2024-01-01", snap.Date))
	case !contains(snap.Holidays, "Lunar New Year"):
		tr.recordError("Snapshot", fmt.Sprintf("holidays = %v, want Lunar New Year", snap.Holidays))
	case len(snap.Rings.HourTicks) != 24:
		tr.recordError("Snapshot", fmt.Sprintf("%d hour ticks, want 24", len(snap.Rings.HourTicks)))
	default:
		tr.recordSuccess("Lunar New Year 2024 snapshot")
	}

	if tr.verbose {
		fmt.Fprintf(tr.out, "    Day: %s, hour position %.3f\n", snap.Day, snap.Rings.HourInDay)
	}
}

func (tr *TestRunner) testSpecificDates() {
	tr.printSection("Specific Dates")

	testCases := []struct {
		date    string
		label   string
		holiday string
	}{
		{"2024-02-10", "2024-01-01", "Lunar New Year"},
		{"2024-02-24", "2024-01-15", "Lantern Festival"},
		{"2024-04-04", "2024-02-26", "Qingming Festival"},
		{"2024-06-10", "2024-05-05", "Dragon Boat Festival"},
		{"2024-09-17", "2024-08-15", "Mid-Autumn Festival"},
		{"2024-12-21", "2024-11-21", "Winter Solstice Festival"},
		{"2025-07-25", "2025-L06-01", ""},
		{"2025-10-06", "2025-08-15", "Mid-Autumn Festival"},
	}

	for _, tc := range testCases {
		var d DateResponse
		if err := tr.getData("/api/v1/date/"+tc.date+"?tz=Asia/Shanghai", &d); err != nil {
			tr.recordError(tc.date, err.Error())
			continue
		}
		switch {
		case d.Label != tc.label:
			tr.recordError(tc.date, fmt.Sprintf("label = %s, want %s", d.Label, tc.label))
		case tc.holiday != "" && !contains(d.Holidays, tc.holiday):
			tr.recordError(tc.date, fmt.Sprintf("holidays = %v, want %s", d.Holidays, tc.holiday))
		default:
			tr.recordSuccess(fmt.Sprintf("%s → %s %s", tc.date, d.Label, strings.Join(d.Holidays, ", ")))
		}
	}
}

func (tr *TestRunner) testSolarTerms() {
	tr.printSection("Solar Terms")

	for year, leap := range map[int]int{2023: 2, 2024: 0, 2025: 6} {
		var st SolarTermsResponse
		if err := tr.getData(fmt.Sprintf("/api/v1/solar-terms/%d", year), &st); err != nil {
			tr.recordError(fmt.Sprintf("Solar terms %d", year), err.Error())
			continue
		}
		switch {
		case len(st.Terms) != 25:
			tr.recordError(fmt.Sprintf("Solar terms %d", year), fmt.Sprintf("%d terms, want 25", len(st.Terms)))
		case st.LeapMonth != leap:
			tr.recordError(fmt.Sprintf("Solar terms %d", year), fmt.Sprintf("leap month %d, want %d", st.LeapMonth, leap))
		default:
			tr.recordSuccess(fmt.Sprintf("%d: 25 terms, leap month %d", year, st.LeapMonth))
		}
	}
}

func (tr *TestRunner) testFindNext() {
	tr.printSection("Find Next")

	var found struct {
		Day string `json:"day"`
	}
	path := "/api/v1/find-next?month=8&day=15&at=2024-02-10T00:00:00Z&tz=Asia/Shanghai"
	if err := tr.getData(path, &found); err != nil {
		tr.recordError("Find next", err.Error())
		return
	}
	if found.Day == "2024-09-17" {
		tr.recordSuccess("Next Mid-Autumn after 2024-02-10 is 2024-09-17")
	} else {
		tr.recordError("Find next", fmt.Sprintf("day = %s, want 2024-09-17", found.Day))
	}
}

func (tr *TestRunner) testCalendarExport() {
	tr.printSection("Calendar Export")

	resp, err := tr.getRaw("/api/v1/calendar.ics?year=2024")
	if err != nil {
		tr.recordError("Calendar", err.Error())
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		tr.recordError("Calendar", fmt.Sprintf("status %d", resp.StatusCode))
		return
	}
	cal, err := ical.ParseCalendar(resp.Body)
	if err != nil {
		tr.recordError("Calendar", fmt.Sprintf("parse: %v", err))
		return
	}
	if n := len(cal.Events()); n < 24 {
		tr.recordError("Calendar", fmt.Sprintf("%d events, want at least 24", n))
		return
	}
	tr.recordSuccess(fmt.Sprintf("2024 calendar has %d events", len(cal.Events())))
}

func (tr *TestRunner) testEdgeCases() {
	tr.printSection("Edge Cases")

	testCases := []struct {
		path   string
		status int
		code   string
		desc   string
	}{
		{"/api/v1/date/2024-13-45", http.StatusBadRequest, "BAD_REQUEST", "Invalid date"},
		{"/api/v1/date/1850-01-01", http.StatusBadRequest, "OUT_OF_RANGE", "Date before range"},
		{"/api/v1/snapshot?tz=Not/AZone", http.StatusBadRequest, "BAD_REQUEST", "Unknown time zone"},
		{"/api/v1/snapshot?lat=12", http.StatusBadRequest, "BAD_REQUEST", "Latitude without longitude"},
		{"/api/v1/solar-terms/2200", http.StatusBadRequest, "OUT_OF_RANGE", "Year after range"},
		{"/api/v1/find-next?month=13&day=1", http.StatusBadRequest, "BAD_REQUEST", "Month 13"},
		{"/api/v1/nope", http.StatusNotFound, "NOT_FOUND", "Unknown route"},
	}

	for _, tc := range testCases {
		if err := tr.expectError(tc.path, tc.status, tc.code); err != nil {
			tr.recordError(tc.desc, err.Error())
		} else {
			tr.recordSuccess(fmt.Sprintf("%s → %d %s", tc.desc, tc.status, tc.code))
		}
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

// getData fetches path and decodes the data of a successful response.
func (tr *TestRunner) getData(path string, target any) error {
	resp, err := tr.getRaw(path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	apiResp, err := decodeResponse(resp.Body)
	if err != nil {
		return err
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

// expectError checks that path fails with status and code.
func (tr *TestRunner) expectError(path string, status int, code string) error {
	resp, err := tr.getRaw(path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != status {
		return fmt.Errorf("status %d, want %d", resp.StatusCode, status)
	}
	apiResp, err := decodeResponse(resp.Body)
	if err != nil {
		return err
	}
	if apiResp.Error == nil || apiResp.Error.Code != code {
		return fmt.Errorf("error %+v, want code %s", apiResp.Error, code)
	}
	return nil
}

func (tr *TestRunner) getRaw(path string) (*http.Response, error) {
	url := tr.baseURL + path
	return tr.client.Get(url)
}

func decodeResponse(r io.Reader) (*APIResponse, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}
	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return &apiResp, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (tr *TestRunner) printSection(name string) {
	fmt.Fprintln(tr.out)
	fmt.Fprintf(tr.out, "--- %s ---\n", name)
	fmt.Fprintln(tr.out)
}

func (tr *TestRunner) recordSuccess(msg string) {
	tr.successCount++
	fmt.Fprintf(tr.out, "  ✓ %s\n", msg)
}

func (tr *TestRunner) recordError(context, msg string) {
	tr.errorCount++
	errStr := fmt.Sprintf("%s: %s", context, msg)
	tr.errors = append(tr.errors, errStr)
	fmt.Fprintf(tr.out, "  ✗ %s\n", errStr)
}

func (tr *TestRunner) printSummary() {
	fmt.Fprintln(tr.out)
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintln(tr.out, "Summary")
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintf(tr.out, "  Passed: %d\n", tr.successCount)
	fmt.Fprintf(tr.out, "  Failed: %d\n", tr.errorCount)
	fmt.Fprintln(tr.out)

	if tr.errorCount > 0 {
		fmt.Fprintln(tr.out, "Failures:")
		for _, err := range tr.errors {
			fmt.Fprintf(tr.out, "  • %s\n", err)
		}
		fmt.Fprintln(tr.out)
	}

	if tr.errorCount == 0 {
		fmt.Fprintln(tr.out, "All tests passed! ✓")
	} else {
		fmt.Fprintf(tr.out, "Tests completed with %d failure(s)\n", tr.errorCount)
	}
}

// =============================================================================
// Main
// =============================================================================

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Check if server is reachable
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	runner := NewTestRunner(*baseURL, *verbose)
	runner.Run()

	// Exit with error code if tests failed
	if runner.errorCount > 0 {
		os.Exit(1)
	}
}
