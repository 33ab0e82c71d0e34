// Command coverage sweeps every civil day of a year range through the
// calendar engine, checking that each day resolves and that consecutive
// days form a well-formed lunisolar sequence.
//
// Usage:
//
//	go run ./cmd/coverage -start 1901 -years 199
//	go run ./cmd/coverage -start 2024 -years 4 -tz America/New_York -o coverage.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zapponejosh/lunarcal/internal/calendar"
)

// DayResult holds the result for a single day.
type DayResult struct {
	Date    string `json:"date"`
	Success bool   `json:"success"`
	Label   string `json:"label,omitempty"`
	Error   string `json:"error,omitempty"`
}

// YearStats tracks statistics for each Gregorian year.
type YearStats struct {
	Year        int    `json:"year"`
	TotalDays   int    `json:"total_days"`
	SuccessDays int    `json:"success_days"`
	FailedDays  int    `json:"failed_days"`
	Skipped     int    `json:"skipped"`
	LeapMonth   int    `json:"leap_month,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Analysis is the result of a sweep.
type Analysis struct {
	TotalDays    int
	TotalSuccess int
	TotalFailed  int
	ByYear       []*YearStats
	AllFailures  []DayResult
}

func main() {
	startYear := flag.Int("start", 2024, "Start year")
	years := flag.Int("years", 4, "Number of years to sweep")
	tzName := flag.String("tz", "Asia/Shanghai", "IANA time zone for day boundaries")
	globalMonth := flag.Bool("global-month", false, "Open months on UTC+8 days")
	verbose := flag.Bool("v", false, "Verbose output (show each day)")
	outputFile := flag.String("o", "", "Output results to JSON file")
	flag.Parse()

	endYear := *startYear + *years - 1

	tz, err := time.LoadLocation(*tzName)
	if err != nil {
		fmt.Printf("Error: unknown time zone %q\n", *tzName)
		os.Exit(1)
	}

	fmt.Println("================================================================")
	fmt.Println("Lunisolar Calendar - Coverage Sweep")
	fmt.Println("================================================================")
	fmt.Printf("Time zone:   %s\n", tz)
	fmt.Printf("Date Range:  %d-01-01 to %d-12-31\n", *startYear, endYear)
	fmt.Println()

	cfg := calendar.Config{GlobalMonth: *globalMonth}
	analysis, results, err := sweep(context.Background(), cfg, tz, *startYear, endYear)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		for _, r := range results {
			status := "✓"
			if !r.Success {
				status = "✗"
			}
			fmt.Printf("  %s %s %s %s\n", status, r.Date, r.Label, r.Error)
		}
		fmt.Println()
	}

	printSummary(analysis)
	printAllFailures(analysis)

	// Output to file if requested
	if *outputFile != "" {
		saveResults(*outputFile, analysis)
	}

	// Exit with error code if there were failures
	if analysis.TotalFailed > 0 {
		os.Exit(1)
	}
}

// sweep checks every day of [startYear, endYear], one worker per year.
func sweep(ctx context.Context, cfg calendar.Config, tz *time.Location, startYear, endYear int) (*Analysis, []DayResult, error) {
	if endYear < startYear {
		return nil, nil, fmt.Errorf("empty year range %d..%d", startYear, endYear)
	}
	base, err := calendar.NewDateResolver(cfg, tz, nil)
	if err != nil {
		return nil, nil, err
	}

	n := endYear - startYear + 1
	perYear := make([][]DayResult, n)
	stats := make([]*YearStats, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range n {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perYear[i], stats[i] = sweepYear(base.Clone(), startYear+i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	analysis := &Analysis{ByYear: stats}
	var all []DayResult
	for _, rs := range perYear {
		for _, r := range rs {
			analysis.TotalDays++
			if r.Success {
				analysis.TotalSuccess++
			} else {
				analysis.TotalFailed++
				analysis.AllFailures = append(analysis.AllFailures, r)
			}
		}
		all = append(all, rs...)
	}
	return analysis, all, nil
}

// sweepYear resolves every day of the Gregorian year, checking each against
// the day before it. Days outside the supported range are counted as
// skipped.
func sweepYear(r *calendar.DateResolver, year int) ([]DayResult, *YearStats) {
	stats := &YearStats{Year: year}
	if err := checkSui(r.Year(year)); err != nil {
		stats.Error = err.Error()
	}
	if leap, ok := r.Year(year).LeapMonth(); ok {
		stats.LeapMonth = leap
	}

	clock := r.DayClock()
	inRange := func(d calendar.Day) bool {
		return calendar.InRange(clock.StartOf(d)) && calendar.InRange(clock.StartOf(d.AddDays(1)).Add(-time.Nanosecond))
	}

	var prev *calendar.DayInfo
	first := calendar.Day{Year: year, Month: time.January, Day: 1}
	if d := first.AddDays(-1); inRange(d) {
		if info, err := r.ResolveDay(d); err == nil {
			prev = &info
		}
	}

	var results []DayResult
	for d := first; d.Year == year; d = d.AddDays(1) {
		if !inRange(d) {
			stats.Skipped++
			prev = nil
			continue
		}
		stats.TotalDays++
		res := DayResult{Date: d.String()}

		info, err := r.ResolveDay(d)
		switch {
		case err != nil:
			res.Error = err.Error()
			prev = nil
		default:
			res.Label = info.Date.String()
			if prev != nil {
				err = checkSuccession(*prev, info)
			}
			if err == nil {
				err = checkMonth(info)
			}
			if err != nil {
				res.Error = err.Error()
			} else {
				res.Success = true
			}
			prev = &info
		}

		if res.Success {
			stats.SuccessDays++
		} else {
			stats.FailedDays++
			if stats.Error == "" && stats.FailedDays == 1 {
				stats.Error = fmt.Sprintf("first failure on %s", res.Date)
			}
		}
		results = append(results, res)
	}
	return results, stats
}

// checkSuccession verifies that cur follows prev by exactly one day.
func checkSuccession(prev, cur calendar.DayInfo) error {
	p, c := prev.Date, cur.Date
	if p.Year == c.Year && p.Month == c.Month && p.IsLeapMonth == c.IsLeapMonth {
		if c.Day != p.Day+1 {
			return fmt.Errorf("day %s follows %s", c, p)
		}
		return nil
	}

	if c.Day != 1 {
		return fmt.Errorf("month changed mid-month: %s follows %s", c, p)
	}
	if p.Day != prev.Month.Days {
		return fmt.Errorf("month %s ended on day %d of %d", p, p.Day, prev.Month.Days)
	}
	switch {
	case c.IsLeapMonth:
		if c.Month != p.Month || p.IsLeapMonth || c.Year != p.Year {
			return fmt.Errorf("leap month %s does not follow its regular month (%s)", c, p)
		}
	case c.Month == 1:
		if p.Month != 12 || c.Year != p.Year+1 {
			return fmt.Errorf("new year %s follows %s", c, p)
		}
	default:
		if c.Month != p.Month+1 || c.Year != p.Year {
			return fmt.Errorf("month %s follows %s", c, p)
		}
	}
	return nil
}

// checkMonth verifies the shape of the month holding info.
func checkMonth(info calendar.DayInfo) error {
	m := info.Month
	if m.Days != 29 && m.Days != 30 {
		return fmt.Errorf("month %d of %d has %d days", m.Number, m.LunarYear, m.Days)
	}
	if m.Number < 1 || m.Number > 12 {
		return fmt.Errorf("month number %d", m.Number)
	}
	if !m.Contains(info.Day) {
		return fmt.Errorf("month starting %s does not contain %s", m.Start, info.Day)
	}
	return nil
}

// checkSui verifies month count, leap placement and term order of a sui.
func checkSui(y *calendar.Year) error {
	months := y.Months()
	leaps := 0
	for _, m := range months {
		if m.IsLeap {
			leaps++
		}
	}
	// Both ends are the month holding a winter solstice, so a common sui
	// lists 13 months and a leap sui 14.
	switch {
	case len(months) == 13 && leaps != 0, len(months) == 14 && leaps != 1:
		return fmt.Errorf("sui %d: %d months with %d leap months", y.Sui(), len(months), leaps)
	case len(months) < 13 || len(months) > 14:
		return fmt.Errorf("sui %d: %d months", y.Sui(), len(months))
	}

	terms := y.SolarTerms()
	if len(terms) != 25 {
		return fmt.Errorf("sui %d: %d solar terms", y.Sui(), len(terms))
	}
	if !sort.SliceIsSorted(terms, func(i, j int) bool { return terms[i].Date.Before(terms[j].Date) }) {
		return fmt.Errorf("sui %d: solar terms out of order", y.Sui())
	}
	return nil
}

func printSummary(analysis *Analysis) {
	fmt.Println("================================================================")
	fmt.Println("SUMMARY")
	fmt.Println("================================================================")
	fmt.Printf("Total Days Tested: %d\n", analysis.TotalDays)
	if analysis.TotalDays > 0 {
		fmt.Printf("Successful:        %d (%.1f%%)\n", analysis.TotalSuccess,
			float64(analysis.TotalSuccess)/float64(analysis.TotalDays)*100)
		fmt.Printf("Failed:            %d (%.1f%%)\n", analysis.TotalFailed,
			float64(analysis.TotalFailed)/float64(analysis.TotalDays)*100)
	}
	fmt.Println()

	// By year
	fmt.Println("By Year:")
	for _, stats := range analysis.ByYear {
		status := "✓"
		if stats.FailedDays > 0 || stats.Error != "" {
			status = "✗"
		}
		leap := "-"
		if stats.LeapMonth != 0 {
			leap = fmt.Sprintf("leap %d", stats.LeapMonth)
		}
		fmt.Printf("  %s %d: %d/%d days, %s", status, stats.Year, stats.SuccessDays, stats.TotalDays, leap)
		if stats.Skipped > 0 {
			fmt.Printf(", %d skipped", stats.Skipped)
		}
		if stats.Error != "" {
			fmt.Printf(" (%s)", stats.Error)
		}
		fmt.Println()
	}
	fmt.Println()
}

func printAllFailures(analysis *Analysis) {
	if analysis.TotalFailed == 0 {
		fmt.Println("No failures.")
		return
	}
	fmt.Println("Failures:")
	for _, f := range analysis.AllFailures {
		fmt.Printf("  %s: %s\n", f.Date, f.Error)
	}
	fmt.Println()
}

func saveResults(filename string, analysis *Analysis) {
	output := struct {
		GeneratedAt string         `json:"generated_at"`
		Summary     map[string]any `json:"summary"`
		ByYear      []*YearStats   `json:"by_year"`
		Failures    []DayResult    `json:"failures"`
	}{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Summary: map[string]any{
			"total_days":    analysis.TotalDays,
			"total_success": analysis.TotalSuccess,
			"total_failed":  analysis.TotalFailed,
		},
		ByYear:   analysis.ByYear,
		Failures: analysis.AllFailures,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling results: %v\n", err)
		return
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		fmt.Printf("Error writing file: %v\n", err)
		return
	}

	fmt.Printf("Results saved to: %s\n", filename)
}
