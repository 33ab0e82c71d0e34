// Command almanac prints one lunar year: its solar terms, months, leap
// month and holidays.
//
// Usage:
//
//	go run ./cmd/almanac -year 2025
//	go run ./cmd/almanac -year 2025 -tz America/New_York -format json
//	go run ./cmd/almanac -year 2025 -db data/lunarcal.db   # include custom holidays
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/zapponejosh/lunarcal/internal/almanac"
	"github.com/zapponejosh/lunarcal/internal/calendar"
	"github.com/zapponejosh/lunarcal/internal/database"
)

func main() {
	year := flag.Int("year", time.Now().Year(), "Lunar year to print")
	tzName := flag.String("tz", "Asia/Shanghai", "IANA time zone for day boundaries")
	lat := flag.Float64("lat", 0, "Latitude (with -apparent)")
	lon := flag.Float64("lon", 0, "Longitude (with -apparent)")
	apparent := flag.Bool("apparent", false, "Use apparent solar time at -lat/-lon")
	globalMonth := flag.Bool("global-month", false, "Open months on UTC+8 days")
	dbPath := flag.String("db", "", "Optional SQLite database with custom holiday rules")
	format := flag.String("format", "text", "Output format: text or json")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(*year, *tzName, *lat, *lon, *apparent, *globalMonth, *dbPath, *format, logger); err != nil {
		logger.Error("almanac failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(year int, tzName string, lat, lon float64, apparent, globalMonth bool, dbPath, format string, logger *slog.Logger) error {
	if err := almanac.CheckYear(year); err != nil {
		return err
	}
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return fmt.Errorf("load time zone: %w", err)
	}

	var loc *calendar.GeoLocation
	if apparent {
		loc = &calendar.GeoLocation{Latitude: lat, Longitude: lon}
	}
	cfg := calendar.Config{GlobalMonth: globalMonth, ApparentTime: apparent}

	var extra []calendar.HolidayRule
	if dbPath != "" {
		db, err := database.Open(database.DefaultConfig(dbPath), logger)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if extra, err = db.CalendarRules(context.Background()); err != nil {
			return fmt.Errorf("load holiday rules: %w", err)
		}
	}

	rep, err := buildReport(year, cfg, tz, loc, calendar.NewHolidayResolver(extra...))
	if err != nil {
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "text":
		return writeText(os.Stdout, rep)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// report is one lunar year.
type report struct {
	Year      int                  `json:"year"`
	TimeZone  string               `json:"timezone"`
	LeapMonth int                  `json:"leap_month,omitempty"`
	Terms     []calendar.NamedDate `json:"solar_terms"`
	Months    []calendar.Month     `json:"months"`
	Holidays  []holidayDay         `json:"holidays"`
}

type holidayDay struct {
	Day   string   `json:"day"`
	Date  string   `json:"date"`
	Names []string `json:"names"`
}

// buildReport collects the months whose lunar year is year, the solar terms
// of that sui and the holidays falling in those months. Days beyond the
// supported range are left out.
func buildReport(year int, cfg calendar.Config, tz *time.Location, loc *calendar.GeoLocation, holidays *calendar.HolidayResolver) (*report, error) {
	resolver, err := calendar.NewDateResolver(cfg, tz, loc)
	if err != nil {
		return nil, err
	}

	rep := &report{Year: year, TimeZone: tz.String()}
	for _, t := range resolver.SolarTerms(year) {
		rep.Terms = append(rep.Terms, calendar.NamedDate{Name: t.Name, Date: t.Date.In(tz)})
	}

	seen := map[calendar.Day]bool{}
	for _, sui := range []int{year, year + 1} {
		for _, m := range resolver.Year(sui).Months() {
			if m.LunarYear != year || seen[m.Start] {
				continue
			}
			seen[m.Start] = true
			rep.Months = append(rep.Months, m)
			if m.IsLeap {
				rep.LeapMonth = m.Number
			}
		}
	}
	if len(rep.Months) == 0 {
		return nil, fmt.Errorf("no months found for lunar year %d", year)
	}

	clock := resolver.DayClock()
	first, end := rep.Months[0].Start, rep.Months[len(rep.Months)-1].End()
	for d := first; d.Before(end); d = d.AddDays(1) {
		if !calendar.InRange(clock.StartOf(d)) || !calendar.InRange(clock.StartOf(d.AddDays(1)).Add(-time.Nanosecond)) {
			continue
		}
		info, err := resolver.ResolveDay(d)
		if err != nil {
			return nil, err
		}
		if names := holidays.Holidays(info); len(names) > 0 {
			rep.Holidays = append(rep.Holidays, holidayDay{Day: d.String(), Date: info.Date.String(), Names: names})
		}
	}
	return rep, nil
}

func writeText(out io.Writer, rep *report) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "=== Lunar year %d (%s) ===\n\n", rep.Year, rep.TimeZone)
	if rep.LeapMonth != 0 {
		fmt.Fprintf(w, "Leap month:\t%d\n\n", rep.LeapMonth)
	} else {
		fmt.Fprintf(w, "Leap month:\tnone\n\n")
	}

	fmt.Fprintln(w, "Solar terms:")
	for _, t := range rep.Terms {
		fmt.Fprintf(w, "  %s\t%s\n", t.Name, t.Date.Format("2006-01-02 15:04 MST"))
	}

	fmt.Fprintln(w, "\nMonths:")
	for _, m := range rep.Months {
		label := fmt.Sprintf("%d", m.Number)
		if m.IsLeap {
			label = fmt.Sprintf("leap %d", m.Number)
		}
		fmt.Fprintf(w, "  %s\t%s\t%d days\tfull moon %s\n", label, m.Start, m.Days, m.FullMoon.Format("2006-01-02 15:04"))
	}

	fmt.Fprintln(w, "\nHolidays:")
	for _, h := range rep.Holidays {
		for _, name := range h.Names {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", h.Day, h.Date, name)
		}
	}
	return w.Flush()
}
