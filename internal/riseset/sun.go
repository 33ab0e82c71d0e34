package riseset

import (
	"time"

	"github.com/zapponejosh/lunarcal/internal/astro"
	"github.com/zapponejosh/lunarcal/internal/calendar"
	"github.com/zapponejosh/lunarcal/internal/solver"
)

// SunTimes are the solar events of one day. A nil field means the event
// does not occur that day.
type SunTimes struct {
	Midnight *time.Time `json:"midnight,omitempty"`
	Dawn     *time.Time `json:"dawn,omitempty"`
	Sunrise  *time.Time `json:"sunrise,omitempty"`
	Noon     *time.Time `json:"noon,omitempty"`
	Sunset   *time.Time `json:"sunset,omitempty"`
	Dusk     *time.Time `json:"dusk,omitempty"`

	// AlwaysAbove and AlwaysBelow report polar day and polar night.
	AlwaysAbove bool `json:"always_above,omitempty"`
	AlwaysBelow bool `json:"always_below,omitempty"`
}

// Clone returns a copy of st that shares no event times with it.
func (st SunTimes) Clone() SunTimes {
	st.Midnight = cloneTime(st.Midnight)
	st.Dawn = cloneTime(st.Dawn)
	st.Sunrise = cloneTime(st.Sunrise)
	st.Noon = cloneTime(st.Noon)
	st.Sunset = cloneTime(st.Sunset)
	st.Dusk = cloneTime(st.Dusk)
	return st
}

// SunEvents returns the solar events of the day selected by w relative to
// the day (per clock) containing t. Noon is the upper transit within that
// day and midnight the lower transit before it; sunrise lies between the
// two and sunset between noon and the following lower transit. A nil loc
// yields the zero value.
func SunEvents(w Window, t time.Time, loc *calendar.GeoLocation, clock calendar.Clock) SunTimes {
	if loc == nil {
		return SunTimes{}
	}

	d := clock.DayOf(t).AddDays(int(w))
	start := astro.JulianDay(clock.StartOf(d))
	end := astro.JulianDay(clock.StartOf(d.AddDays(1)))

	sun := body{lat: loc.Latitude, lon: loc.Longitude, position: astro.SunEquatorial}
	noon := sun.transit(0, (start+end)/2, sunHourRate)
	midnight := sun.transit(180, noon-0.5, sunHourRate)
	nextMidnight := sun.transit(180, noon+0.5, sunHourRate)

	st := SunTimes{
		Midnight: at(midnight),
		Noon:     at(noon),
		Dawn:     sun.crossing(midnight, noon, CivilTwilight, solver.Rising),
		Sunrise:  sun.crossing(midnight, noon, SunHorizon, solver.Rising),
		Sunset:   sun.crossing(noon, nextMidnight, SunHorizon, solver.Falling),
		Dusk:     sun.crossing(noon, nextMidnight, CivilTwilight, solver.Falling),
	}
	if st.Sunrise == nil && st.Sunset == nil {
		if sun.altitude(noon) > SunHorizon {
			st.AlwaysAbove = true
		} else {
			st.AlwaysBelow = true
		}
	}
	return st
}
