package calendar

import (
	"fmt"
	"sync"
	"time"
)

// DayInfo is everything known about one day label: its lunisolar date, the
// month holding it and the solar terms around it.
type DayInfo struct {
	Day   Day           `json:"day"`
	Date  LunisolarDate `json:"date"`
	Month Month         `json:"month"`

	// Terms are the solar terms of the solar-term year that contains the
	// start of Day.
	Terms []NamedDate `json:"-"`

	// Clock is the day clock that labelled Day.
	Clock Clock `json:"-"`

	resolver *DateResolver
}

// Shift returns the DayInfo n days away from i.
func (i DayInfo) Shift(n int) (DayInfo, error) {
	if i.resolver == nil {
		return DayInfo{}, fmt.Errorf("shift %s by %d: day not produced by a resolver", i.Day, n)
	}
	return i.resolver.ResolveDay(i.Day.AddDays(n))
}

// DateResolver resolves instants and day labels to lunisolar dates for one
// caller configuration. Sui years are built on demand and cached; it is safe
// for concurrent use.
type DateResolver struct {
	cfg        Config
	tz         *time.Location
	loc        *GeoLocation
	dayClock   Clock
	monthClock Clock

	mu    sync.Mutex
	years map[int]*Year
	terms map[int][]NamedDate
}

// NewDateResolver creates a resolver for a caller in tz at the optional loc.
func NewDateResolver(cfg Config, tz *time.Location, loc *GeoLocation) (*DateResolver, error) {
	if tz == nil {
		tz = time.UTC
	}
	if loc != nil {
		if err := loc.Validate(); err != nil {
			return nil, err
		}
		l := *loc
		loc = &l
	}
	return &DateResolver{
		cfg:        cfg,
		tz:         tz,
		loc:        loc,
		dayClock:   DayClock(cfg, tz, loc),
		monthClock: MonthClock(cfg, tz, loc),
		years:      make(map[int]*Year),
		terms:      make(map[int][]NamedDate),
	}, nil
}

// Config returns the resolver's configuration.
func (r *DateResolver) Config() Config { return r.cfg }

// Location returns the time zone the resolver labels civil days in.
func (r *DateResolver) Location() *time.Location { return r.tz }

// GeoLocation returns a copy of the observer location, or nil.
func (r *DateResolver) GeoLocation() *GeoLocation {
	if r.loc == nil {
		return nil
	}
	l := *r.loc
	return &l
}

// DayClock returns the clock that labels days.
func (r *DateResolver) DayClock() Clock { return r.dayClock }

// MonthClock returns the clock on which months begin.
func (r *DateResolver) MonthClock() Clock { return r.monthClock }

// Year returns the sui year, building it on first use.
func (r *DateResolver) Year(sui int) *Year {
	r.mu.Lock()
	defer r.mu.Unlock()

	if y, ok := r.years[sui]; ok {
		return y
	}
	y := buildYear(sui, r.monthClock)
	r.years[sui] = y
	return y
}

// SolarTerms returns the solar terms of a solar-term year, cached.
func (r *DateResolver) SolarTerms(year int) []NamedDate {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.terms[year]; ok {
		return t
	}
	if y, ok := r.years[year]; ok {
		r.terms[year] = y.terms
		return y.terms
	}
	t := SolarTerms(year)
	r.terms[year] = t
	return t
}

// ResolveDate returns the DayInfo of the day containing t.
func (r *DateResolver) ResolveDate(t time.Time) (DayInfo, error) {
	if err := checkRange(t); err != nil {
		return DayInfo{}, err
	}
	return r.ResolveDay(r.dayClock.DayOf(t))
}

// ResolveDay returns the DayInfo of a day label.
func (r *DateResolver) ResolveDay(d Day) (DayInfo, error) {
	start := r.dayClock.StartOf(d)
	sui := SolarTermYear(start)

	// The day clock and month clock may disagree near the solstice, so the
	// owning sui can be a neighbour of the solar-term year.
	for _, s := range []int{sui, sui + 1, sui - 1} {
		y := r.Year(s)
		m, ok := y.MonthOf(d)
		if !ok {
			continue
		}
		date, _ := y.Lookup(d)
		return DayInfo{
			Day:      d,
			Date:     date,
			Month:    m,
			Terms:    r.SolarTerms(sui),
			Clock:    r.dayClock,
			resolver: r,
		}, nil
	}
	return DayInfo{}, fmt.Errorf("resolve %s: no sui year contains the day", d)
}

// FindDay returns the first day on or after from that carries target's
// month, leap flag and day, searching forward through sui years until
// MaxSupported.
func (r *DateResolver) FindDay(target LunisolarDate, from Day) (Day, bool) {
	start := SolarTermYear(r.dayClock.StartOf(from))
	last := SolarTermYear(MaxSupported) + 1
	for sui := start - 1; sui <= last; sui++ {
		y := r.Year(sui)
		for _, m := range y.months {
			if m.Number != target.Month || m.IsLeap != target.IsLeapMonth {
				continue
			}
			if target.Day < 1 || target.Day > m.Days {
				continue
			}
			d := m.Start.AddDays(target.Day - 1)
			if d.Before(from) {
				continue
			}
			if r.dayClock.StartOf(d).After(MaxSupported) {
				return Day{}, false
			}
			return d, true
		}
	}
	return Day{}, false
}

// Clone returns a resolver with the same configuration sharing the already
// built (immutable) years.
func (r *DateResolver) Clone() *DateResolver {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := &DateResolver{
		cfg:        r.cfg,
		tz:         r.tz,
		loc:        r.GeoLocation(),
		dayClock:   r.dayClock,
		monthClock: r.monthClock,
		years:      make(map[int]*Year, len(r.years)),
		terms:      make(map[int][]NamedDate, len(r.terms)),
	}
	for k, v := range r.years {
		c.years[k] = v
	}
	for k, v := range r.terms {
		c.terms[k] = v
	}
	return c
}
