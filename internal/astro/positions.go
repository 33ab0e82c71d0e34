package astro

import "time"

// Positions is a snapshot of apparent geocentric ecliptic longitudes, in
// degrees, at one instant.
type Positions struct {
	Sun     float64
	Moon    float64
	Planets [5]float64
}

// PositionsAt returns the positions of the sun, the moon and the planets at t.
// It is pure: the same instant always yields the same result.
func PositionsAt(t time.Time) Positions {
	jd := TTFromUT(JulianDay(t))
	return Positions{
		Sun:     SunLongitude(jd),
		Moon:    MoonLongitude(jd),
		Planets: PlanetLongitudes(jd),
	}
}
