package calendar

import (
	"time"
)

// Month is one lunar month of a sui.
type Month struct {
	// LunarYear is the Gregorian year in which this month's lunar year began.
	LunarYear int  `json:"lunar_year"`
	Number    int  `json:"number"`
	IsLeap    bool `json:"is_leap"`

	// Start is the first day of the month on the month clock and Days its
	// length (29 or 30).
	Start Day `json:"start"`
	Days  int `json:"days"`

	// StartInstant is the first instant of Start on the month clock.
	StartInstant time.Time `json:"start_instant"`
	NewMoon      time.Time `json:"new_moon"`
	FullMoon     time.Time `json:"full_moon"`
}

// End returns the first day after the month.
func (m Month) End() Day {
	return m.Start.AddDays(m.Days)
}

// Contains reports whether d falls inside the month.
func (m Month) Contains(d Day) bool {
	return !d.Before(m.Start) && d.Before(m.End())
}

// Year is a sui: the months from the one containing the winter solstice of
// Sui-1 through the one containing the winter solstice of Sui, inclusive.
// The last month of one sui is the first month of the next. A Year is
// immutable once built and safe to share.
type Year struct {
	sui    int
	clock  Clock
	terms  []NamedDate
	months []Month
	leap   int
}

// BuildYear assembles the months of sui year for a caller in tz at loc.
func BuildYear(year int, cfg Config, tz *time.Location, loc *GeoLocation) (*Year, error) {
	if loc != nil {
		if err := loc.Validate(); err != nil {
			return nil, err
		}
	}
	return buildYear(year, MonthClock(cfg, tz, loc)), nil
}

func buildYear(sui int, clock Clock) *Year {
	termJD := solarTermsJD(sui)
	ws0, ws1 := termJD[0], termJD[24]

	moons := newMoonsJD(ws0-31, ws1+60)
	starts := make([]Day, len(moons))
	for i, jd := range moons {
		starts[i] = clock.DayOf(instant(jd))
	}

	i0 := lastStartOnOrBefore(starts, clock.DayOf(instant(ws0)))
	i1 := lastStartOnOrBefore(starts, clock.DayOf(instant(ws1)))

	y := &Year{sui: sui, clock: clock, leap: -1}
	y.terms = make([]NamedDate, len(termJD))
	for k, jd := range termJD {
		y.terms[k] = NamedDate{Name: SolarTermName(k), Date: instant(jd)}
	}

	var principal []Day
	for k := 0; k < len(termJD); k += 2 {
		principal = append(principal, clock.DayOf(y.terms[k].Date))
	}

	leap := -1
	if i1-i0 == 13 {
		for i := i0; i < i1; i++ {
			if !hasPrincipal(principal, starts[i], starts[i+1]) {
				leap = i
				break
			}
		}
	}

	num := 11
	seenFirst := false
	for i := i0; i <= i1; i++ {
		if i > i0 && i != leap {
			num = num%12 + 1
		}
		isLeap := i == leap
		if num == 1 && !isLeap {
			seenFirst = true
		}
		lunarYear := sui - 1
		if seenFirst {
			lunarYear = sui
		}
		if isLeap {
			y.leap = len(y.months)
		}
		y.months = append(y.months, Month{
			LunarYear:    lunarYear,
			Number:       num,
			IsLeap:       isLeap,
			Start:        starts[i],
			Days:         starts[i+1].DaysSince(starts[i]),
			StartInstant: clock.StartOf(starts[i]),
			NewMoon:      instant(moons[i]),
			FullMoon:     instant(fullMoonAfter(moons[i])),
		})
	}
	return y
}

func lastStartOnOrBefore(starts []Day, d Day) int {
	idx := 0
	for i, s := range starts {
		if s.After(d) {
			break
		}
		idx = i
	}
	return idx
}

func hasPrincipal(principal []Day, start, end Day) bool {
	for _, p := range principal {
		if !p.Before(start) && p.Before(end) {
			return true
		}
	}
	return false
}

// Sui returns the solar-term year of y.
func (y *Year) Sui() int { return y.sui }

// Clock returns the month clock the year was built on.
func (y *Year) Clock() Clock { return y.clock }

// Months returns a copy of the months, ascending.
func (y *Year) Months() []Month {
	out := make([]Month, len(y.months))
	copy(out, y.months)
	return out
}

// SolarTerms returns a copy of the 25 solar terms of the year.
func (y *Year) SolarTerms() []NamedDate {
	out := make([]NamedDate, len(y.terms))
	copy(out, y.terms)
	return out
}

// LeapMonth returns the number of the leap month, if the sui has one.
func (y *Year) LeapMonth() (int, bool) {
	if y.leap < 0 {
		return 0, false
	}
	return y.months[y.leap].Number, true
}

// Start returns the first day covered by the year.
func (y *Year) Start() Day { return y.months[0].Start }

// End returns the first day after the year.
func (y *Year) End() Day { return y.months[len(y.months)-1].End() }

// MonthOf returns the month containing d.
func (y *Year) MonthOf(d Day) (Month, bool) {
	for _, m := range y.months {
		if m.Contains(d) {
			return m, true
		}
	}
	return Month{}, false
}

// Lookup returns the lunisolar date of day d, or false when d falls outside
// the year.
func (y *Year) Lookup(d Day) (LunisolarDate, bool) {
	m, ok := y.MonthOf(d)
	if !ok {
		return LunisolarDate{}, false
	}
	return LunisolarDate{
		Year:        m.LunarYear,
		Month:       m.Number,
		IsLeapMonth: m.IsLeap,
		Day:         d.DaysSince(m.Start) + 1,
	}, true
}

// Find returns the day carrying the lunisolar date target, if it falls in
// the year.
func (y *Year) Find(target LunisolarDate) (Day, bool) {
	for _, m := range y.months {
		if m.LunarYear != target.Year || m.Number != target.Month || m.IsLeap != target.IsLeapMonth {
			continue
		}
		if target.Day < 1 || target.Day > m.Days {
			return Day{}, false
		}
		return m.Start.AddDays(target.Day - 1), true
	}
	return Day{}, false
}
