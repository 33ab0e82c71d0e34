// Package astro provides apparent geocentric positions of the sun, the moon
// and the five naked-eye planets, plus the time scales and coordinate
// transforms needed to turn them into calendar and horizon events.
//
// All series are evaluated in Terrestrial Time (TT). Callers hand in civil
// instants as time.Time; conversion to Julian Days and the ΔT correction
// happen here and nowhere else.
package astro

import (
	"math"
	"time"
)

// ModelVersion identifies the ephemeris model. Exact output values used in
// tests depend on it, so bump it whenever a series or constant changes.
const ModelVersion = "vsop87-meeus-trunc/elp2000-82-trunc/v1"

const (
	// J2000 is the Julian Day of 2000-01-01 12:00 TT.
	J2000 = 2451545.0

	// unixEpochJD is the Julian Day of 1970-01-01 00:00 UTC.
	unixEpochJD = 2440587.5

	// SecondsPerDay is the length of a Julian day in SI seconds.
	SecondsPerDay = 86400.0

	daysPerCentury    = 36525.0
	daysPerMillennium = 365250.0
)

// JulianDay returns the Julian Day (UT) of t.
func JulianDay(t time.Time) float64 {
	return unixEpochJD + float64(t.Unix())/SecondsPerDay + float64(t.Nanosecond())/(SecondsPerDay*1e9)
}

// TimeFromJulian converts a Julian Day (UT) back to a UTC instant, rounded to
// the nearest millisecond so repeated conversions are stable.
func TimeFromJulian(jd float64) time.Time {
	ms := math.Round((jd - unixEpochJD) * SecondsPerDay * 1000)
	return time.UnixMilli(int64(ms)).UTC()
}

// DeltaT returns TT − UT in seconds for a decimal year, using the
// Espenak–Meeus polynomial fits. Outside 1860..2150 it falls back to the
// long-term parabola.
func DeltaT(year float64) float64 {
	switch {
	case year < 1860:
		u := (year - 1820) / 100
		return -20 + 32*u*u
	case year < 1900:
		t := year - 1860
		return 7.62 + 0.5737*t - 0.251754*t*t + 0.01680668*t*t*t -
			0.0004473624*t*t*t*t + t*t*t*t*t/233174
	case year < 1920:
		t := year - 1900
		return -2.79 + 1.494119*t - 0.0598939*t*t + 0.0061966*t*t*t - 0.000197*t*t*t*t
	case year < 1941:
		t := year - 1920
		return 21.20 + 0.84493*t - 0.076100*t*t + 0.0020936*t*t*t
	case year < 1961:
		t := year - 1950
		return 29.07 + 0.407*t - t*t/233 + t*t*t/2547
	case year < 1986:
		t := year - 1975
		return 45.45 + 1.067*t - t*t/260 - t*t*t/718
	case year < 2005:
		t := year - 2000
		return 63.86 + 0.3345*t - 0.060374*t*t + 0.0017275*t*t*t +
			0.000651814*t*t*t*t + 0.00002373599*t*t*t*t*t
	case year < 2050:
		t := year - 2000
		return 62.92 + 0.32217*t + 0.005589*t*t
	case year < 2150:
		u := (year - 1820) / 100
		return -20 + 32*u*u - 0.5628*(2150-year)
	default:
		u := (year - 1820) / 100
		return -20 + 32*u*u
	}
}

// decimalYear approximates the decimal year of a Julian Day.
func decimalYear(jd float64) float64 {
	return 2000 + (jd-J2000)/365.25
}

// TTFromUT converts a Julian Day in UT to TT.
func TTFromUT(jdUT float64) float64 {
	return jdUT + DeltaT(decimalYear(jdUT))/SecondsPerDay
}

// UTFromTT converts a Julian Day in TT to UT.
func UTFromTT(jdTT float64) float64 {
	return jdTT - DeltaT(decimalYear(jdTT))/SecondsPerDay
}

// centuries returns Julian centuries since J2000.
func centuries(jd float64) float64 {
	return (jd - J2000) / daysPerCentury
}

// millennia returns Julian millennia since J2000, the VSOP87 time argument.
func millennia(jd float64) float64 {
	return (jd - J2000) / daysPerMillennium
}

// -----------------------------------------------------------------------------
// Angle helpers
// -----------------------------------------------------------------------------

const (
	degToRad    = math.Pi / 180
	radToDeg    = 180 / math.Pi
	arcsecToDeg = 1.0 / 3600
)

// Normalize360 maps an angle in degrees into [0, 360).
func Normalize360(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}

// Normalize180 maps an angle in degrees into [-180, 180).
func Normalize180(d float64) float64 {
	d = Normalize360(d)
	if d >= 180 {
		d -= 360
	}
	return d
}

func sinD(d float64) float64 { return math.Sin(d * degToRad) }
func cosD(d float64) float64 { return math.Cos(d * degToRad) }
