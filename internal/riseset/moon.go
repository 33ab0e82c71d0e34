package riseset

import (
	"time"

	"github.com/zapponejosh/lunarcal/internal/astro"
	"github.com/zapponejosh/lunarcal/internal/calendar"
	"github.com/zapponejosh/lunarcal/internal/solver"
)

// MoonTimes are the lunar events of one lunar day.
type MoonTimes struct {
	Moonrise    *time.Time `json:"moonrise,omitempty"`
	Culmination *time.Time `json:"culmination,omitempty"`
	Moonset     *time.Time `json:"moonset,omitempty"`

	AlwaysAbove bool `json:"always_above,omitempty"`
	AlwaysBelow bool `json:"always_below,omitempty"`
}

// Clone returns a copy of mt that shares no event times with it.
func (mt MoonTimes) Clone() MoonTimes {
	mt.Moonrise = cloneTime(mt.Moonrise)
	mt.Culmination = cloneTime(mt.Culmination)
	mt.Moonset = cloneTime(mt.Moonset)
	return mt
}

// MoonEvents returns the lunar events of the lunar day selected by w. The
// lunar day containing t runs between consecutive lower transits of the
// moon; w shifts it by whole lunar days. A nil loc yields the zero value.
func MoonEvents(w Window, t time.Time, loc *calendar.GeoLocation) MoonTimes {
	if loc == nil {
		return MoonTimes{}
	}

	moon := body{lat: loc.Latitude, lon: loc.Longitude, position: astro.MoonEquatorial}
	jd := astro.JulianDay(t)

	// Lower transit at or before t.
	since := astro.Normalize360(moon.hourAngle(jd)-180) / moonHourRate
	start := moon.transit(180, jd-since, moonHourRate)
	if start > jd {
		start = moon.transit(180, start-lunarDay, moonHourRate)
	}
	for i := Window(0); i < w; i++ {
		start = moon.transit(180, start+lunarDay, moonHourRate)
	}
	for i := Window(0); i > w; i-- {
		start = moon.transit(180, start-lunarDay, moonHourRate)
	}
	end := moon.transit(180, start+lunarDay, moonHourRate)
	culm := moon.transit(0, (start+end)/2, moonHourRate)

	mt := MoonTimes{
		Moonrise:    moon.crossing(start, culm, MoonHorizon, solver.Rising),
		Culmination: at(culm),
		Moonset:     moon.crossing(culm, end, MoonHorizon, solver.Falling),
	}
	if mt.Moonrise == nil && mt.Moonset == nil {
		if moon.altitude(culm) > MoonHorizon {
			mt.AlwaysAbove = true
		} else {
			mt.AlwaysBelow = true
		}
	}
	return mt
}
