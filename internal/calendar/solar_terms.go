package calendar

import (
	"time"

	"github.com/zapponejosh/lunarcal/internal/astro"
	"github.com/zapponejosh/lunarcal/internal/solver"
)

const (
	// tropicalYear is the mean tropical year in days.
	tropicalYear = 365.24219

	// solarRate is the sun's mean motion in ecliptic longitude, degrees/day.
	solarRate = 360 / tropicalYear

	// termSpacing is the mean interval between consecutive solar terms.
	termSpacing = tropicalYear / 24
)

// Solar term names, starting from the winter solstice (270°). Index k of a
// year's terms carries solarTermNames[k%24].
var solarTermNames = [24]string{
	"winter_solstice",
	"minor_cold",
	"major_cold",
	"start_of_spring",
	"rain_water",
	"awakening_of_insects",
	"spring_equinox",
	"pure_brightness",
	"grain_rain",
	"start_of_summer",
	"grain_buds",
	"grain_in_ear",
	"summer_solstice",
	"minor_heat",
	"major_heat",
	"start_of_autumn",
	"end_of_heat",
	"white_dew",
	"autumn_equinox",
	"cold_dew",
	"frost_descent",
	"start_of_winter",
	"minor_snow",
	"major_snow",
}

// SolarTermName returns the name of term index k (0..24).
func SolarTermName(k int) string {
	return solarTermNames[mod(k, 24)]
}

// SolarTermIndex returns the index in 0..23 of a term name.
func SolarTermIndex(name string) (int, bool) {
	for i, n := range solarTermNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// SolarTermAngle returns the apparent solar longitude, in degrees, at which
// term k begins.
func SolarTermAngle(k int) float64 {
	return float64(mod(270+15*k, 360))
}

// IsPrincipalTerm reports whether term k is a principal term (zhongqi).
// Principal terms sit on multiples of 30° and carry even indices.
func IsPrincipalTerm(k int) bool {
	return mod(k, 2) == 0
}

// winterSolstice returns the winter solstice of the given Gregorian year as
// a Julian Day in TT.
func winterSolstice(year int) float64 {
	estimate := julian(time.Date(year, time.December, 21, 12, 0, 0, 0, time.UTC))
	return solver.FindAngle(astro.SunLongitude, 270, estimate, solarRate).JD
}

// solarTermsJD returns the 25 term instants (TT) from WS(year-1) to WS(year).
func solarTermsJD(year int) [25]float64 {
	var out [25]float64
	out[0] = winterSolstice(year - 1)
	for k := 1; k < 24; k++ {
		out[k] = solver.FindAngle(astro.SunLongitude, SolarTermAngle(k), out[k-1]+termSpacing, solarRate).JD
	}
	out[24] = winterSolstice(year)
	return out
}

// SolarTerms returns the 25 solar terms of the solar-term year: the winter
// solstice of year-1 through the winter solstice of year, ascending.
func SolarTerms(year int) []NamedDate {
	jds := solarTermsJD(year)
	out := make([]NamedDate, len(jds))
	for k, jd := range jds {
		out[k] = NamedDate{Name: SolarTermName(k), Date: instant(jd)}
	}
	return out
}

// SolarTermYear returns the year Y with WS(Y-1) <= t < WS(Y).
func SolarTermYear(t time.Time) int {
	y := t.UTC().Year()
	if julian(t) >= winterSolstice(y) {
		return y + 1
	}
	return y
}

// SolarTermsAround returns the solar terms of the solar-term year
// containing t.
func SolarTermsAround(t time.Time) []NamedDate {
	return SolarTerms(SolarTermYear(t))
}

// julian converts an instant to a Julian Day in TT.
func julian(t time.Time) float64 {
	return astro.TTFromUT(astro.JulianDay(t))
}

// instant converts a Julian Day in TT to a UTC instant.
func instant(jdTT float64) time.Time {
	return astro.TimeFromJulian(astro.UTFromTT(jdTT))
}
