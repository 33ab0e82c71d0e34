// Package snapshot combines the calendar engine into one value: the state of
// the lunisolar calendar at an instant, for a time zone, an optional
// location and a configuration.
//
// A Snapshot is not safe for concurrent mutation. Use Copy to hand an
// independent value to each goroutine.
package snapshot

import (
	"fmt"
	"time"

	"github.com/zapponejosh/lunarcal/internal/astro"
	"github.com/zapponejosh/lunarcal/internal/calendar"
	"github.com/zapponejosh/lunarcal/internal/riseset"
)

// Snapshot is the calendar state at one instant. It caches three layers:
// the solar-term year, the lunar month and the day. Update recomputes only
// the layers its arguments invalidate.
type Snapshot struct {
	cfg      calendar.Config
	holidays *calendar.HolidayResolver
	resolver *calendar.DateResolver

	instant time.Time
	tz      *time.Location
	loc     *calendar.GeoLocation

	year  *yearLayer
	month *monthLayer
	day   *dayLayer

	stats layerStats
}

// layerStats counts layer rebuilds.
type layerStats struct {
	years, months, days int
}

type yearKey struct {
	sui    int
	tz     string
	hasLoc bool
	lat    float64
	lon    float64
}

type yearLayer struct {
	key        yearKey
	terms      []calendar.NamedDate
	nearTerms  []calendar.NamedDate
	start, end time.Time
	leap       int
	hasLeap    bool
	monthTicks []float64
}

type monthKey struct {
	year  yearKey
	start calendar.Day
}

type monthLayer struct {
	key        monthKey
	month      calendar.Month
	start, end time.Time
	phases     []calendar.NamedDate
	dayTicks   []float64
}

type dayLayer struct {
	day        calendar.Day
	date       calendar.LunisolarDate
	start, end time.Time
	holidays   []string
	sun        [3]riseset.SunTimes
	moon       [3]riseset.MoonTimes
	planets    []calendar.NamedPosition

	hourStart, hourEnd time.Time
	hourTicks          []float64
	subhourTicks       []float64
}

// Option customises a Snapshot.
type Option func(*Snapshot)

// WithHolidays replaces the holiday table.
func WithHolidays(h *calendar.HolidayResolver) Option {
	return func(s *Snapshot) {
		if h != nil {
			s.holidays = h
		}
	}
}

// New builds a snapshot at t. tz may be nil (UTC) and loc may be nil, in
// which case every location-dependent field is absent.
func New(t time.Time, tz *time.Location, loc *calendar.GeoLocation, cfg calendar.Config, opts ...Option) (*Snapshot, error) {
	s := &Snapshot{
		cfg:      cfg,
		holidays: calendar.NewHolidayResolver(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Update(t, tz, loc); err != nil {
		return nil, err
	}
	return s, nil
}

// Update moves the snapshot to t, tz and loc. Identical arguments yield
// identical state; nothing but t is consulted for the current time.
func (s *Snapshot) Update(t time.Time, tz *time.Location, loc *calendar.GeoLocation) error {
	if tz == nil {
		tz = time.UTC
	}
	if !calendar.InRange(t) {
		return fmt.Errorf("update snapshot: %w: %s", calendar.ErrOutOfRange, t.UTC().Format(time.RFC3339))
	}
	if loc != nil {
		if err := loc.Validate(); err != nil {
			return fmt.Errorf("update snapshot: %w", err)
		}
		l := *loc
		loc = &l
	}

	if s.resolver == nil || !sameLocation(s.tz, tz, s.loc, loc) {
		r, err := calendar.NewDateResolver(s.cfg, tz, loc)
		if err != nil {
			return fmt.Errorf("update snapshot: %w", err)
		}
		s.resolver = r
		s.year, s.month = nil, nil
	}
	s.instant, s.tz, s.loc = t, tz, loc

	info, err := s.resolver.ResolveDate(t)
	if err != nil {
		return fmt.Errorf("update snapshot: %w", err)
	}

	yk := s.yearKeyFor(t)
	if s.year == nil || s.year.key != yk {
		s.year = s.buildYear(yk)
		s.month = nil
		s.stats.years++
	}

	mk := monthKey{year: yk, start: info.Month.Start}
	if s.month == nil || s.month.key != mk {
		s.month = s.buildMonth(mk, info.Month)
		s.stats.months++
	}

	s.day = s.buildDay(info)
	s.stats.days++
	return nil
}

func sameLocation(tzA, tzB *time.Location, a, b *calendar.GeoLocation) bool {
	if tzA == nil || tzA.String() != tzB.String() {
		return false
	}
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func (s *Snapshot) yearKeyFor(t time.Time) yearKey {
	k := yearKey{sui: calendar.SolarTermYear(t), tz: s.tz.String()}
	if s.loc != nil {
		k.hasLoc, k.lat, k.lon = true, s.loc.Latitude, s.loc.Longitude
	}
	return k
}

func (s *Snapshot) buildYear(k yearKey) *yearLayer {
	terms := s.resolver.SolarTerms(k.sui)
	y := &yearLayer{
		key:   k,
		terms: terms,
		start: terms[0].Date,
		end:   terms[len(terms)-1].Date,
	}

	// Months at either end of the ring overlap the neighbouring years.
	y.nearTerms = append(y.nearTerms, s.resolver.SolarTerms(k.sui - 1)[:24]...)
	y.nearTerms = append(y.nearTerms, terms...)
	y.nearTerms = append(y.nearTerms, s.resolver.SolarTerms(k.sui + 1)[1:]...)

	year := s.resolver.Year(k.sui)
	y.leap, y.hasLeap = year.LeapMonth()
	for _, m := range year.Months() {
		if p, ok := position(m.StartInstant, y.start, y.end); ok {
			y.monthTicks = append(y.monthTicks, p)
		}
	}
	return y
}

func (s *Snapshot) buildMonth(k monthKey, m calendar.Month) *monthLayer {
	clock := s.resolver.DayClock()
	ml := &monthLayer{
		key:    k,
		month:  m,
		start:  clock.StartOf(m.Start),
		end:    clock.StartOf(m.End()),
		phases: calendar.MoonPhasesAround(m.NewMoon.Add(time.Hour)),
	}
	for i := 1; i < m.Days; i++ {
		if p, ok := position(clock.StartOf(m.Start.AddDays(i)), ml.start, ml.end); ok {
			ml.dayTicks = append(ml.dayTicks, p)
		}
	}
	return ml
}

func (s *Snapshot) buildDay(info calendar.DayInfo) *dayLayer {
	clock := s.resolver.DayClock()
	dl := &dayLayer{
		day:      info.Day,
		date:     info.Date,
		start:    clock.StartOf(info.Day),
		end:      clock.StartOf(info.Day.AddDays(1)),
		holidays: s.holidays.Holidays(info),
	}

	for i, w := range []riseset.Window{riseset.Previous, riseset.Current, riseset.Next} {
		dl.sun[i] = riseset.SunEvents(w, s.instant, s.loc, clock)
		dl.moon[i] = riseset.MoonEvents(w, s.instant, s.loc)
	}

	pos := astro.PositionsAt(s.instant)
	dl.planets = append(dl.planets, calendar.NamedPosition{Name: "moon", Pos: eclipticPosition(pos.Moon)})
	for i, p := range astro.Planets {
		dl.planets = append(dl.planets, calendar.NamedPosition{Name: p.String(), Pos: eclipticPosition(pos.Planets[i])})
	}

	dl.hourTicks = hourTicks(s.cfg.LargeHour)
	dl.hourStart, dl.hourEnd = hourBounds(s.instant, dl.start, dl.end, s.cfg.LargeHour)
	dl.subhourTicks = subhourTicks(dl.start, dl.end, dl.hourStart, dl.hourEnd)
	return dl
}

// Copy returns an independent snapshot. The copy owns its own caches and
// may be updated concurrently with the original.
func (s *Snapshot) Copy() *Snapshot {
	c := &Snapshot{
		cfg:      s.cfg,
		holidays: s.holidays,
		resolver: s.resolver.Clone(),
		instant:  s.instant,
		tz:       s.tz,
		stats:    s.stats,
	}
	if s.loc != nil {
		l := *s.loc
		c.loc = &l
	}
	if s.year != nil {
		y := *s.year
		y.terms = cloneNamed(s.year.terms)
		y.nearTerms = cloneNamed(s.year.nearTerms)
		y.monthTicks = cloneFloats(s.year.monthTicks)
		c.year = &y
	}
	if s.month != nil {
		m := *s.month
		m.phases = cloneNamed(s.month.phases)
		m.dayTicks = cloneFloats(s.month.dayTicks)
		c.month = &m
	}
	if s.day != nil {
		d := *s.day
		d.holidays = append([]string(nil), s.day.holidays...)
		d.planets = append([]calendar.NamedPosition(nil), s.day.planets...)
		d.hourTicks = cloneFloats(s.day.hourTicks)
		d.subhourTicks = cloneFloats(s.day.subhourTicks)
		for i := range d.sun {
			d.sun[i] = s.day.sun[i].Clone()
			d.moon[i] = s.day.moon[i].Clone()
		}
		c.day = &d
	}
	return c
}

func cloneNamed(in []calendar.NamedDate) []calendar.NamedDate {
	if in == nil {
		return nil
	}
	out := make([]calendar.NamedDate, len(in))
	copy(out, in)
	return out
}

func cloneFloats(in []float64) []float64 {
	if in == nil {
		return nil
	}
	out := make([]float64, len(in))
	copy(out, in)
	return out
}

// =============================================================================
// Accessors
// =============================================================================

// Instant returns the snapshot's instant.
func (s *Snapshot) Instant() time.Time { return s.instant }

// Location returns the snapshot's time zone.
func (s *Snapshot) Location() *time.Location { return s.tz }

// GeoLocation returns a copy of the observer location, or nil.
func (s *Snapshot) GeoLocation() *calendar.GeoLocation {
	if s.loc == nil {
		return nil
	}
	l := *s.loc
	return &l
}

// Config returns the configuration the snapshot was built with.
func (s *Snapshot) Config() calendar.Config { return s.cfg }

// Date returns the lunisolar date of the current day.
func (s *Snapshot) Date() calendar.LunisolarDate { return s.day.date }

// Day returns the current day label on the day clock.
func (s *Snapshot) Day() calendar.Day { return s.day.day }

// Month returns the current lunar month.
func (s *Snapshot) Month() calendar.Month { return s.month.month }

// LeapMonth returns the leap month of the current solar-term year, if any.
func (s *Snapshot) LeapMonth() (int, bool) { return s.year.leap, s.year.hasLeap }

// SolarTerms returns the 25 solar terms of the current solar-term year.
func (s *Snapshot) SolarTerms() []calendar.NamedDate { return cloneNamed(s.year.terms) }

// MoonPhases returns the new and full moons around the current month.
func (s *Snapshot) MoonPhases() []calendar.NamedDate { return cloneNamed(s.month.phases) }

// SunTimes returns the solar events of the day selected by w.
func (s *Snapshot) SunTimes(w riseset.Window) riseset.SunTimes {
	return s.day.sun[windowIndex(w)].Clone()
}

// MoonTimes returns the lunar events of the lunar day selected by w.
func (s *Snapshot) MoonTimes(w riseset.Window) riseset.MoonTimes {
	return s.day.moon[windowIndex(w)].Clone()
}

func windowIndex(w riseset.Window) int {
	switch {
	case w < riseset.Previous:
		return 0
	case w > riseset.Next:
		return 2
	default:
		return int(w) + 1
	}
}

// PlanetPositions returns the moon and the five planets on the year ring,
// measured in ecliptic longitude from the winter solstice point.
func (s *Snapshot) PlanetPositions() []calendar.NamedPosition {
	return append([]calendar.NamedPosition(nil), s.day.planets...)
}

// Holidays returns the holidays of the current day.
func (s *Snapshot) Holidays() []string {
	return append([]string(nil), s.day.holidays...)
}
