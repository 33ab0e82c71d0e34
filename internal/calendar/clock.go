package calendar

import (
	"fmt"
	"time"

	"github.com/zapponejosh/lunarcal/internal/astro"
)

// Clock maps instants to day labels and back.
type Clock interface {
	// DayOf returns the label of the day containing t.
	DayOf(t time.Time) Day
	// StartOf returns the first instant of d. DayOf(StartOf(d)) == d.
	StartOf(d Day) time.Time
	// String identifies the clock for cache keys and diagnostics.
	String() string
}

// NewCivilClock returns a clock whose days run from local midnight in loc.
func NewCivilClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return civilClock{loc: loc}
}

type civilClock struct {
	loc *time.Location
}

func (c civilClock) DayOf(t time.Time) Day {
	return DayFromTime(t.In(c.loc))
}

func (c civilClock) StartOf(d Day) time.Time {
	return d.Midnight(c.loc)
}

func (c civilClock) String() string {
	return "civil:" + c.loc.String()
}

// NewApparentClock returns a clock whose days run from local apparent solar
// midnight at longitude lon. Instants it returns are expressed in display.
func NewApparentClock(lon float64, display *time.Location) Clock {
	if display == nil {
		display = time.UTC
	}
	return apparentClock{lon: lon, display: display}
}

type apparentClock struct {
	lon     float64
	display *time.Location
}

func (c apparentClock) DayOf(t time.Time) Day {
	return DayFromTime(t.UTC().Add(astro.ApparentSolarOffset(t, c.lon)))
}

func (c apparentClock) StartOf(d Day) time.Time {
	naive := d.Midnight(time.UTC)
	s := naive
	for i := 0; i < 3; i++ {
		s = naive.Add(-astro.ApparentSolarOffset(s, c.lon))
	}
	// Whole seconds, and never before the true start.
	s = s.Truncate(time.Second)
	for i := 0; i < 3 && c.DayOf(s).Before(d); i++ {
		s = s.Add(time.Second)
	}
	return s.In(c.display)
}

func (c apparentClock) String() string {
	return fmt.Sprintf("apparent:%.6f", c.lon)
}

// DayClock returns the clock that labels days for a caller: apparent solar
// time when cfg.ApparentTime is set and a location is known, civil time in
// tz otherwise.
func DayClock(cfg Config, tz *time.Location, loc *GeoLocation) Clock {
	if cfg.ApparentTime && loc != nil {
		return NewApparentClock(loc.Longitude, tz)
	}
	return NewCivilClock(tz)
}

// MonthClock returns the clock on which new moons open months. With
// cfg.GlobalMonth it is the ReferenceZone civil clock, so every caller gets
// the same month boundaries; otherwise it is the caller's day clock.
func MonthClock(cfg Config, tz *time.Location, loc *GeoLocation) Clock {
	if cfg.GlobalMonth {
		return NewCivilClock(ReferenceZone)
	}
	return DayClock(cfg, tz, loc)
}
