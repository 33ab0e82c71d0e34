// Package calendar provides Chinese lunisolar calendar calculations: solar
// terms, lunar phases, month assembly and holidays.
package calendar

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrOutOfRange is returned for instants outside the supported range.
	ErrOutOfRange = errors.New("instant outside supported range")

	// ErrInvalidLocation is returned for coordinates off the globe.
	ErrInvalidLocation = errors.New("invalid location")
)

var (
	// MinSupported is the earliest instant the engine resolves.
	MinSupported = time.Date(1901, 1, 1, 0, 0, 0, 0, time.UTC)

	// MaxSupported is the latest instant the engine resolves.
	MaxSupported = time.Date(2099, 12, 31, 0, 0, 0, 0, time.UTC)
)

// InRange reports whether t lies within [MinSupported, MaxSupported].
func InRange(t time.Time) bool {
	return !t.Before(MinSupported) && !t.After(MaxSupported)
}

func checkRange(t time.Time) error {
	if !InRange(t) {
		return fmt.Errorf("%w: %s", ErrOutOfRange, t.UTC().Format(time.RFC3339))
	}
	return nil
}

// ReferenceZone is the fixed UTC+8 zone in which month boundaries are
// computed when Config.GlobalMonth is set.
var ReferenceZone = time.FixedZone("UTC+8", 8*60*60)

// Config holds the calendar switches. It is a plain value threaded through
// every call; there is no package-level mutable configuration.
type Config struct {
	// GlobalMonth computes month boundaries in ReferenceZone instead of the
	// caller's day clock.
	GlobalMonth bool `json:"global_month"`

	// ApparentTime labels days by local apparent solar time (requires a
	// location) instead of civil time.
	ApparentTime bool `json:"apparent_time"`

	// LargeHour divides the day into twelve double hours.
	LargeHour bool `json:"large_hour"`
}

// GeoLocation is an observer position in degrees, east and north positive.
type GeoLocation struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// Validate checks that the coordinates are on the globe.
func (g GeoLocation) Validate() error {
	if math.IsNaN(g.Latitude) || math.IsNaN(g.Longitude) {
		return fmt.Errorf("%w: NaN coordinate", ErrInvalidLocation)
	}
	if g.Latitude < -90 || g.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidLocation, g.Latitude)
	}
	if g.Longitude < -180 || g.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidLocation, g.Longitude)
	}
	return nil
}

// NamedDate is a named instant: a solar term, a moon phase, a day event.
type NamedDate struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

// NamedPosition is a named point on a ring, Pos in [0, 1).
type NamedPosition struct {
	Name string  `json:"name"`
	Pos  float64 `json:"pos"`
}

// LunisolarDate is a date in the Chinese calendar. Year is the Gregorian
// year in which that lunar year's first month begins.
type LunisolarDate struct {
	Year        int  `json:"year"`
	Month       int  `json:"month"`
	IsLeapMonth bool `json:"is_leap_month"`
	Day         int  `json:"day"`
}

// Stem returns the heavenly stem index (0 = jia) of the lunar year.
func (d LunisolarDate) Stem() int {
	return mod(d.Year-4, 10)
}

// Branch returns the earthly branch index (0 = zi) of the lunar year.
func (d LunisolarDate) Branch() int {
	return mod(d.Year-4, 12)
}

func (d LunisolarDate) String() string {
	leap := ""
	if d.IsLeapMonth {
		leap = "L"
	}
	return fmt.Sprintf("%04d-%s%02d-%02d", d.Year, leap, d.Month, d.Day)
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}

// =============================================================================
// Day labels
// =============================================================================

// Day is a calendar day label, independent of any zone. Which instants belong
// to a Day is decided by a Clock.
type Day struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// DayFromTime labels t by its own wall clock fields.
func DayFromTime(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

// ParseDay parses a YYYY-MM-DD label.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Day{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return DayFromTime(t), nil
}

// Midnight returns 00:00 of d on the wall clock of loc.
func (d Day) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Day) number() int {
	return int(d.Midnight(time.UTC).Unix() / 86400)
}

// AddDays returns the label n days after d.
func (d Day) AddDays(n int) Day {
	return DayFromTime(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// DaysSince returns the number of days from o to d.
func (d Day) DaysSince(o Day) int {
	return d.number() - o.number()
}

func (d Day) Before(o Day) bool { return d.number() < o.number() }
func (d Day) After(o Day) bool  { return o.Before(d) }

// IsZero reports whether d is the zero label.
func (d Day) IsZero() bool { return d == Day{} }

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
