package snapshot

import (
	"time"

	"github.com/zapponejosh/lunarcal/internal/calendar"
	"github.com/zapponejosh/lunarcal/internal/riseset"
)

// State is the exposed state of a snapshot as one plain value, suitable for
// JSON encoding and comparison.
type State struct {
	Instant   time.Time              `json:"instant"`
	TimeZone  string                 `json:"timezone"`
	Location  *calendar.GeoLocation  `json:"location,omitempty"`
	Config    calendar.Config        `json:"config"`
	Day       string                 `json:"day"`
	Date      calendar.LunisolarDate `json:"date"`
	LeapMonth int                    `json:"leap_month,omitempty"`
	Holidays  []string               `json:"holidays"`

	SolarTerms []calendar.NamedDate `json:"solar_terms"`
	MoonPhases []calendar.NamedDate `json:"moon_phases"`

	Sun  map[string]riseset.SunTimes  `json:"sun,omitempty"`
	Moon map[string]riseset.MoonTimes `json:"moon,omitempty"`

	Planets []calendar.NamedPosition `json:"planets"`

	Rings Rings `json:"rings"`
}

// Rings holds ring positions, tick arrays and the events drawn on each ring.
type Rings struct {
	DayInYear  float64 `json:"day_in_year"`
	DayInMonth float64 `json:"day_in_month"`
	HourInDay  float64 `json:"hour_in_day"`
	SubInHour  float64 `json:"subhour_in_hour"`

	MonthTicks   []float64 `json:"month_ticks"`
	DayTicks     []float64 `json:"day_ticks"`
	HourTicks    []float64 `json:"hour_ticks"`
	SubhourTicks []float64 `json:"subhour_ticks"`

	EventsInYear  []calendar.NamedPosition `json:"events_in_year"`
	EventsInMonth []calendar.NamedPosition `json:"events_in_month"`
	EventsInDay   []calendar.NamedPosition `json:"events_in_day"`
	EventsInHour  []calendar.NamedPosition `json:"events_in_hour"`
}

// State returns the exposed state of s.
func (s *Snapshot) State() State {
	st := State{
		Instant:    s.instant.In(s.tz),
		TimeZone:   s.tz.String(),
		Location:   s.GeoLocation(),
		Config:     s.cfg,
		Day:        s.Day().String(),
		Date:       s.Date(),
		Holidays:   s.Holidays(),
		SolarTerms: s.SolarTerms(),
		MoonPhases: s.MoonPhases(),
		Planets:    s.PlanetPositions(),
		Rings: Rings{
			DayInYear:     s.CurrentDayInYear(),
			DayInMonth:    s.CurrentDayInMonth(),
			HourInDay:     s.CurrentHourInDay(),
			SubInHour:     s.SubhourInHour(),
			MonthTicks:    s.MonthTicks(),
			DayTicks:      s.DayTicks(),
			HourTicks:     s.HourTicks(),
			SubhourTicks:  s.SubhourTicks(),
			EventsInYear:  s.EventsInYear(),
			EventsInMonth: s.EventsInMonth(),
			EventsInDay:   s.EventsInDay(),
			EventsInHour:  s.EventsInHour(),
		},
	}
	if leap, ok := s.LeapMonth(); ok {
		st.LeapMonth = leap
	}
	if s.loc != nil {
		st.Sun = make(map[string]riseset.SunTimes, 3)
		st.Moon = make(map[string]riseset.MoonTimes, 3)
		for _, w := range []riseset.Window{riseset.Previous, riseset.Current, riseset.Next} {
			st.Sun[w.String()] = s.SunTimes(w)
			st.Moon[w.String()] = s.MoonTimes(w)
		}
	}
	return st
}
