package snapshot

import (
	"sort"
	"time"

	"github.com/zapponejosh/lunarcal/internal/astro"
	"github.com/zapponejosh/lunarcal/internal/calendar"
	"github.com/zapponejosh/lunarcal/internal/riseset"
)

// Divisions of the day ring.
const (
	hoursPerDay = 24
	kePerDay    = 100
)

// position returns where t falls on the ring [start, end), if it does.
func position(t, start, end time.Time) (float64, bool) {
	if t.Before(start) || !t.Before(end) {
		return 0, false
	}
	p := float64(t.Sub(start)) / float64(end.Sub(start))
	if p >= 1 {
		return 0, false
	}
	return p, true
}

// eclipticPosition maps an ecliptic longitude onto the year ring, which
// starts at the winter solstice point (270°).
func eclipticPosition(lon float64) float64 {
	return astro.Normalize360(lon-270) / 360
}

// division returns start + span·num/den using integer nanoseconds, so
// boundaries computed twice always compare equal.
func division(start time.Time, span time.Duration, num, den int64) time.Time {
	return start.Add(time.Duration(int64(span) * num / den))
}

// hourTicks returns the hour-unit boundaries as fractions of the day ring.
// Double hours start on odd hours, so the first one (zi) straddles midnight.
func hourTicks(large bool) []float64 {
	var out []float64
	if large {
		for j := 0; j < 12; j++ {
			out = append(out, float64(2*j+1)/hoursPerDay)
		}
		return out
	}
	for k := 0; k < hoursPerDay; k++ {
		out = append(out, float64(k)/hoursPerDay)
	}
	return out
}

// hourBounds returns the hour unit containing t on the day ring
// [dayStart, dayEnd).
func hourBounds(t, dayStart, dayEnd time.Time, large bool) (time.Time, time.Time) {
	span := dayEnd.Sub(dayStart)
	n := int64(t.Sub(dayStart)) * hoursPerDay / int64(span)
	// Boundaries are floored to the nanosecond; t may sit exactly on one.
	for n < hoursPerDay-1 && !t.Before(division(dayStart, span, n+1, hoursPerDay)) {
		n++
	}
	if !large {
		return division(dayStart, span, n, hoursPerDay), division(dayStart, span, n+1, hoursPerDay)
	}
	// Double hour j covers hours 2j-1 and 2j.
	j := (n + 1) / 2
	return division(dayStart, span, 2*j-1, hoursPerDay), division(dayStart, span, 2*j+1, hoursPerDay)
}

// keBoundaries returns the ke (1/100 day) boundaries in [from, to) for the
// day ring [dayStart, dayEnd).
func keBoundaries(dayStart, dayEnd, from, to time.Time) []time.Time {
	span := dayEnd.Sub(dayStart)
	k := int64(from.Sub(dayStart)) * kePerDay / int64(span)
	if from.Before(dayStart) {
		k--
	}

	var out []time.Time
	for ; ; k++ {
		b := division(dayStart, span, k, kePerDay)
		if !b.Before(to) {
			break
		}
		if !b.Before(from) {
			out = append(out, b)
		}
	}
	return out
}

// subhourTicks returns the ke boundaries inside the hour ring.
func subhourTicks(dayStart, dayEnd, hourStart, hourEnd time.Time) []float64 {
	var out []float64
	for _, b := range keBoundaries(dayStart, dayEnd, hourStart, hourEnd) {
		if p, ok := position(b, hourStart, hourEnd); ok {
			out = append(out, p)
		}
	}
	return out
}

// eventsIn places the named dates that fall on the ring [start, end),
// ordered by position.
func eventsIn(start, end time.Time, lists ...[]calendar.NamedDate) []calendar.NamedPosition {
	var out []calendar.NamedPosition
	for _, list := range lists {
		for _, e := range list {
			if p, ok := position(e.Date, start, end); ok {
				out = append(out, calendar.NamedPosition{Name: e.Name, Pos: p})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Pos < out[j].Pos })
	return out
}

func sunEvents(st riseset.SunTimes) []calendar.NamedDate {
	return collect(
		named("midnight", st.Midnight),
		named("dawn", st.Dawn),
		named("sunrise", st.Sunrise),
		named("noon", st.Noon),
		named("sunset", st.Sunset),
		named("dusk", st.Dusk),
	)
}

func moonEvents(mt riseset.MoonTimes) []calendar.NamedDate {
	return collect(
		named("moonrise", mt.Moonrise),
		named("culmination", mt.Culmination),
		named("moonset", mt.Moonset),
	)
}

func named(name string, t *time.Time) *calendar.NamedDate {
	if t == nil {
		return nil
	}
	return &calendar.NamedDate{Name: name, Date: *t}
}

func collect(in ...*calendar.NamedDate) []calendar.NamedDate {
	var out []calendar.NamedDate
	for _, e := range in {
		if e != nil {
			out = append(out, *e)
		}
	}
	return out
}

// dayEvents are the candidates drawn on the day and hour rings.
func (s *Snapshot) dayEvents() [][]calendar.NamedDate {
	var lists [][]calendar.NamedDate
	lists = append(lists, s.year.nearTerms, s.month.phases)
	for i := range s.day.sun {
		lists = append(lists, sunEvents(s.day.sun[i]), moonEvents(s.day.moon[i]))
	}
	return lists
}

// =============================================================================
// Ring accessors
// =============================================================================

// CurrentDayInYear is the position of the instant on the solar-term year
// ring, winter solstice to winter solstice.
func (s *Snapshot) CurrentDayInYear() float64 {
	p, _ := position(s.instant, s.year.start, s.year.end)
	return p
}

// CurrentDayInMonth is the position of the instant on the lunar month ring.
func (s *Snapshot) CurrentDayInMonth() float64 {
	p, _ := position(s.instant, s.month.start, s.month.end)
	return p
}

// CurrentHourInDay is the position of the instant on the day ring.
func (s *Snapshot) CurrentHourInDay() float64 {
	p, _ := position(s.instant, s.day.start, s.day.end)
	return p
}

// SubhourInHour is the position of the instant on the hour ring.
func (s *Snapshot) SubhourInHour() float64 {
	p, _ := position(s.instant, s.day.hourStart, s.day.hourEnd)
	return p
}

// MonthTicks are the month starts on the year ring.
func (s *Snapshot) MonthTicks() []float64 { return cloneFloats(s.year.monthTicks) }

// DayTicks are the day starts on the month ring, excluding the first.
func (s *Snapshot) DayTicks() []float64 { return cloneFloats(s.month.dayTicks) }

// HourTicks are the hour-unit boundaries on the day ring.
func (s *Snapshot) HourTicks() []float64 { return cloneFloats(s.day.hourTicks) }

// SubhourTicks are the ke boundaries on the hour ring.
func (s *Snapshot) SubhourTicks() []float64 { return cloneFloats(s.day.subhourTicks) }

// EventsInYear places the solar terms on the year ring.
func (s *Snapshot) EventsInYear() []calendar.NamedPosition {
	return eventsIn(s.year.start, s.year.end, s.year.terms[:len(s.year.terms)-1])
}

// EventsInMonth places solar terms and moon phases on the month ring.
func (s *Snapshot) EventsInMonth() []calendar.NamedPosition {
	return eventsIn(s.month.start, s.month.end, s.year.nearTerms, s.month.phases)
}

// EventsInDay places terms, phases and sun and moon events on the day ring.
func (s *Snapshot) EventsInDay() []calendar.NamedPosition {
	return eventsIn(s.day.start, s.day.end, s.dayEvents()...)
}

// EventsInHour places the same events on the hour ring.
func (s *Snapshot) EventsInHour() []calendar.NamedPosition {
	return eventsIn(s.day.hourStart, s.day.hourEnd, s.dayEvents()...)
}
