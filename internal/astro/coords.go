package astro

import (
	"math"
	"time"
)

// Equatorial holds right ascension and declination in degrees.
type Equatorial struct {
	RA  float64
	Dec float64
}

// EclipticToEquatorial converts ecliptic coordinates to equatorial ones for
// obliquity eps (all degrees).
func EclipticToEquatorial(lon, lat, eps float64) Equatorial {
	sl, cl := math.Sincos(lon * degToRad)
	sb, cb := math.Sincos(lat * degToRad)
	se, ce := math.Sincos(eps * degToRad)

	ra := math.Atan2(sl*ce-(sb/cb)*se, cl)
	dec := math.Asin(sb*ce + cb*se*sl)
	return Equatorial{RA: Normalize360(ra * radToDeg), Dec: dec * radToDeg}
}

// SunEquatorial returns the apparent equatorial position of the sun.
func SunEquatorial(jdTT float64) Equatorial {
	p := SunPosition(jdTT)
	return EclipticToEquatorial(p.Lon, p.Lat, TrueObliquity(jdTT))
}

// MoonEquatorial returns the apparent geocentric equatorial position of the moon.
func MoonEquatorial(jdTT float64) Equatorial {
	p := MoonPosition(jdTT)
	return EclipticToEquatorial(p.Lon, p.Lat, TrueObliquity(jdTT))
}

// SiderealTime returns the Greenwich apparent sidereal time in degrees for a
// Julian Day in UT.
func SiderealTime(jdUT float64) float64 {
	t := centuries(jdUT)
	mean := 280.46061837 + 360.98564736629*(jdUT-J2000) + 0.000387933*t*t - t*t*t/38710000
	jdTT := TTFromUT(jdUT)
	dpsi, _ := Nutation(jdTT)
	return Normalize360(mean + dpsi*cosD(TrueObliquity(jdTT)))
}

// HourAngle returns the local hour angle, in [-180, 180), of a body at
// right ascension ra for an observer at longitude lon (east positive).
func HourAngle(jdUT, lon, ra float64) float64 {
	return Normalize180(SiderealTime(jdUT) + lon - ra)
}

// Altitude returns the geometric altitude in degrees of a body with
// equatorial coordinates eq, for an observer at lat/lon.
func Altitude(jdUT, lat, lon float64, eq Equatorial) float64 {
	h := HourAngle(jdUT, lon, eq.RA)
	sinAlt := sinD(lat)*sinD(eq.Dec) + cosD(lat)*cosD(eq.Dec)*cosD(h)
	return math.Asin(math.Max(-1, math.Min(1, sinAlt))) * radToDeg
}

// EquationOfTime returns apparent minus mean solar time, in minutes.
func EquationOfTime(jdTT float64) float64 {
	tau := millennia(jdTT)
	l0 := 280.4664567 + 360007.6982779*tau + 0.03032028*tau*tau +
		tau*tau*tau/49931 - tau*tau*tau*tau/15300 - tau*tau*tau*tau*tau/2000000

	sun := SunEquatorial(jdTT)
	dpsi, _ := Nutation(jdTT)
	e := l0 - 0.0057183 - sun.RA + dpsi*cosD(TrueObliquity(jdTT))
	return Normalize180(e) * 4
}

// ApparentSolarOffset returns how far local apparent solar time runs ahead
// of UTC at t for an observer at longitude lon.
func ApparentSolarOffset(t time.Time, lon float64) time.Duration {
	eot := EquationOfTime(TTFromUT(JulianDay(t)))
	minutes := lon*4 + eot
	return time.Duration(minutes * float64(time.Minute))
}
