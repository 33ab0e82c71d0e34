// Package riseset finds daily sun and moon events for an observer: transits,
// rising and setting, and civil twilight.
package riseset

import (
	"time"

	"github.com/zapponejosh/lunarcal/internal/astro"
	"github.com/zapponejosh/lunarcal/internal/solver"
)

// Window selects the day relative to the one containing the query instant.
type Window int

const (
	Previous Window = -1
	Current  Window = 0
	Next     Window = 1
)

// String returns the lower-case window name.
func (w Window) String() string {
	switch w {
	case Previous:
		return "previous"
	case Next:
		return "next"
	default:
		return "current"
	}
}

// ParseWindow parses a window name; unknown names map to Current.
func ParseWindow(s string) Window {
	switch s {
	case "previous", "prev":
		return Previous
	case "next":
		return Next
	default:
		return Current
	}
}

const (
	// SunHorizon is the altitude of the sun's centre at rise and set:
	// refraction plus semidiameter.
	SunHorizon = -0.8333

	// CivilTwilight is the altitude bounding civil dawn and dusk.
	CivilTwilight = -6.0

	// MoonHorizon is the geocentric altitude of the moon's centre at rise
	// and set: mean parallax minus refraction and semidiameter.
	MoonHorizon = 0.125

	// Mean rates of the hour angle, degrees per day.
	sunHourRate  = 360.0
	moonHourRate = 347.81

	// lunarDay is the mean interval between lunar transits in days.
	lunarDay = 360.0 / moonHourRate
)

// body evaluates hour angle and altitude of one body for an observer.
type body struct {
	lat, lon float64
	position func(jdTT float64) astro.Equatorial
}

func (b body) hourAngle(jdUT float64) float64 {
	eq := b.position(astro.TTFromUT(jdUT))
	return astro.HourAngle(jdUT, b.lon, eq.RA)
}

func (b body) altitude(jdUT float64) float64 {
	eq := b.position(astro.TTFromUT(jdUT))
	return astro.Altitude(jdUT, b.lat, b.lon, eq)
}

func (b body) transit(target, estimate, rate float64) float64 {
	return solver.FindAngle(b.hourAngle, target, estimate, rate).JD
}

// crossing returns the instant b crosses h0 in (from, to) in direction dir.
func (b body) crossing(from, to, h0 float64, dir solver.Direction) *time.Time {
	res, ok := solver.FindCrossing(b.altitude, from, to, h0, dir)
	if !ok {
		return nil
	}
	return at(res.JD)
}

func at(jdUT float64) *time.Time {
	t := astro.TimeFromJulian(jdUT)
	return &t
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
