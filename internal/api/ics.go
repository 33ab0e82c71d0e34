package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/zapponejosh/lunarcal/internal/almanac"
	"github.com/zapponejosh/lunarcal/internal/calendar"
	"github.com/zapponejosh/lunarcal/internal/logger"
)

// uidSpace namespaces the name-based event UIDs, so re-exporting a year
// yields the same UIDs and subscribers update events in place.
var uidSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/zapponejosh/lunarcal"))

// dayHolidays pairs a civil day with the holidays on it.
type dayHolidays struct {
	Day      calendar.Day
	Date     calendar.LunisolarDate
	Holidays []string
}

// GetCalendarICS handles GET /api/v1/calendar.ics?year=YYYY
func (h *Handlers) GetCalendarICS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		WriteBadRequest(w, "year is required and must be an integer")
		return
	}
	if err := almanac.CheckYear(year); err != nil {
		WriteOutOfRange(w, err.Error())
		return
	}
	req, ok := h.calendarRequest(w, r)
	if !ok {
		return
	}

	y, _, err := h.almanac.Year(ctx, year)
	if err != nil {
		h.writeCalendarError(w, r, "almanac year", err)
		return
	}
	holidays, err := h.holidays(ctx)
	if err != nil {
		h.logger.Error("failed to load holiday rules", slog.Any("error", err))
		WriteInternalError(w, "Failed to load holiday rules")
		return
	}
	resolver, err := calendar.NewDateResolver(req.Cfg, req.TZ, req.Loc)
	if err != nil {
		h.writeCalendarError(w, r, "create resolver", err)
		return
	}

	done := logger.Timed(ctx, "holiday sweep", slog.Int("year", year))
	days, err := yearHolidays(resolver, holidays, year)
	done()
	if err != nil {
		h.writeCalendarError(w, r, "holiday sweep", err)
		return
	}

	cal := buildCalendar(year, req.TZ, y.Terms[1:], days, h.now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="lunarcal-%d.ics"`, year))
	if err := cal.SerializeTo(w); err != nil {
		logger.Error(ctx, "write calendar", err)
	}
}

// yearHolidays resolves every day of the Gregorian year on the resolver's
// day clock and keeps those with holidays. Days outside the supported range
// are skipped.
func yearHolidays(resolver *calendar.DateResolver, holidays *calendar.HolidayResolver, year int) ([]dayHolidays, error) {
	clock := resolver.DayClock()
	var out []dayHolidays
	for d := (calendar.Day{Year: year, Month: time.January, Day: 1}); d.Year == year; d = d.AddDays(1) {
		if !calendar.InRange(clock.StartOf(d)) || !calendar.InRange(clock.StartOf(d.AddDays(1)).Add(-time.Nanosecond)) {
			continue
		}
		info, err := resolver.ResolveDay(d)
		if err != nil {
			return nil, err
		}
		if names := holidays.Holidays(info); len(names) > 0 {
			out = append(out, dayHolidays{Day: d, Date: info.Date, Holidays: names})
		}
	}
	return out, nil
}

// buildCalendar renders solar terms as timed events and holidays as
// all-day events.
func buildCalendar(year int, tz *time.Location, terms []calendar.NamedDate, days []dayHolidays, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//lunarcal//Lunisolar Calendar//EN")
	cal.SetXWRCalName(fmt.Sprintf("Lunisolar calendar %d", year))
	cal.SetXWRTimezone(tz.String())

	for _, t := range terms {
		ev := cal.AddEvent(eventUID("term", t.Name, t.Date.UTC().Format(time.RFC3339)))
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(t.Date)
		ev.SetEndAt(t.Date)
		ev.SetSummary(termTitle(t.Name))
		ev.SetDescription(fmt.Sprintf("Solar term %s begins at %s", t.Name, t.Date.In(tz).Format("2006-01-02 15:04 MST")))
		ev.AddProperty(ical.ComponentPropertyCategories, "solar-term")
	}

	for _, dh := range days {
		for _, name := range dh.Holidays {
			ev := cal.AddEvent(eventUID("holiday", name, dh.Day.String()))
			ev.SetDtStampTime(stamp)
			ev.SetAllDayStartAt(dh.Day.Midnight(time.UTC))
			ev.SetAllDayEndAt(dh.Day.AddDays(1).Midnight(time.UTC))
			ev.SetSummary(name)
			ev.SetDescription(fmt.Sprintf("%s, lunisolar %s", name, dh.Date))
			ev.AddProperty(ical.ComponentPropertyCategories, "holiday")
		}
	}
	return cal
}

func eventUID(parts ...string) string {
	return uuid.NewSHA1(uidSpace, []byte(strings.Join(parts, "|"))).String() + "@lunarcal"
}

// termTitle turns "start_of_spring" into "Start of Spring".
func termTitle(name string) string {
	b := []byte(name)
	upper := true
	for i, c := range b {
		switch {
		case c == '_':
			b[i] = ' '
			upper = true
		case upper:
			if c >= 'a' && c <= 'z' && !minorWord(name, i) {
				b[i] = c - 'a' + 'A'
			}
			upper = false
		}
	}
	return string(b)
}

// minorWord reports whether the word starting at i is "of" or "in", which
// stay lower case unless they open the title.
func minorWord(name string, i int) bool {
	if i == 0 {
		return false
	}
	rest := name[i:]
	return rest == "of" || rest == "in" ||
		len(rest) > 3 && (rest[:3] == "of_" || rest[:3] == "in_")
}
