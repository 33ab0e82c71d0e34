package astro

import "math"

// Planet identifies one of the five naked-eye planets.
type Planet int

const (
	Mercury Planet = iota
	Venus
	Mars
	Jupiter
	Saturn
)

// Planets lists the planets in the order used by Positions.Planets.
var Planets = [5]Planet{Mercury, Venus, Mars, Jupiter, Saturn}

func (p Planet) String() string {
	switch p {
	case Mercury:
		return "mercury"
	case Venus:
		return "venus"
	case Mars:
		return "mars"
	case Jupiter:
		return "jupiter"
	case Saturn:
		return "saturn"
	default:
		return "unknown"
	}
}

// keplerElements are the JPL approximate mean elements (Standish, valid
// 1800–2050) and their rates per Julian century: semi-major axis (AU),
// eccentricity, inclination, mean longitude, longitude of perihelion and
// longitude of the ascending node (degrees, J2000 ecliptic).
type keplerElements struct {
	A, E, I, L, Peri, Node float64

	ADot, EDot, IDot, LDot, PeriDot, NodeDot float64
}

var (
	earthMoonBary = keplerElements{
		1.00000261, 0.01671123, -0.00001531, 100.46457166, 102.93768193, 0,
		0.00000562, -0.00004392, -0.01294668, 35999.37244981, 0.32327364, 0,
	}

	planetElements = map[Planet]keplerElements{
		Mercury: {
			0.38709927, 0.20563593, 7.00497902, 252.25032350, 77.45779628, 48.33076593,
			0.00000037, 0.00001906, -0.00594749, 149472.67411175, 0.16047689, -0.12534081,
		},
		Venus: {
			0.72333566, 0.00677672, 3.39467605, 181.97909950, 131.60246718, 76.67984255,
			0.00000390, -0.00004107, -0.00078890, 58517.81538729, 0.00268329, -0.27769418,
		},
		Mars: {
			1.52371034, 0.09339410, 1.84969142, -4.55343205, -23.94362959, 49.55953891,
			0.00001847, 0.00007882, -0.00813131, 19140.30268499, 0.44441088, -0.29257343,
		},
		Jupiter: {
			5.20288700, 0.04838624, 1.30439695, 34.39644051, 14.72847983, 100.47390909,
			-0.00011607, -0.00013253, -0.00183714, 3034.74612775, 0.21252668, 0.20469106,
		},
		Saturn: {
			9.53667594, 0.05386179, 2.48599187, 49.95424423, 92.59887831, 113.66242448,
			-0.00125060, -0.00050991, 0.00193609, 1222.49362201, -0.41897216, -0.28867794,
		},
	}
)

// heliocentric returns J2000 ecliptic rectangular coordinates in AU.
func (k keplerElements) heliocentric(t float64) (x, y, z float64) {
	a := k.A + k.ADot*t
	e := k.E + k.EDot*t
	inc := (k.I + k.IDot*t) * degToRad
	l := k.L + k.LDot*t
	peri := k.Peri + k.PeriDot*t
	node := k.Node + k.NodeDot*t

	m := Normalize180(l-peri) * degToRad
	omega := (peri - node) * degToRad
	nodeRad := node * degToRad

	ecc := solveKepler(m, e)
	xp := a * (math.Cos(ecc) - e)
	yp := a * math.Sqrt(1-e*e) * math.Sin(ecc)

	cw, sw := math.Cos(omega), math.Sin(omega)
	cn, sn := math.Cos(nodeRad), math.Sin(nodeRad)
	ci, si := math.Cos(inc), math.Sin(inc)

	x = (cw*cn-sw*sn*ci)*xp + (-sw*cn-cw*sn*ci)*yp
	y = (cw*sn+sw*cn*ci)*xp + (-sw*sn+cw*cn*ci)*yp
	z = (sw*si)*xp + (cw*si)*yp
	return x, y, z
}

// solveKepler solves E − e·sin E = M by Newton iteration (radians).
func solveKepler(m, e float64) float64 {
	ecc := m + e*math.Sin(m)
	for i := 0; i < 15; i++ {
		delta := (ecc - e*math.Sin(ecc) - m) / (1 - e*math.Cos(ecc))
		ecc -= delta
		if math.Abs(delta) < 1e-12 {
			break
		}
	}
	return ecc
}

// PlanetLongitude returns the geocentric ecliptic longitude of p referred to
// the equinox of date, in degrees. Light time and aberration are ignored;
// the result is good to a few arcminutes, which is plenty for ring display.
func PlanetLongitude(p Planet, jdTT float64) float64 {
	el, ok := planetElements[p]
	if !ok {
		return 0
	}
	t := centuries(jdTT)
	px, py, _ := el.heliocentric(t)
	ex, ey, _ := earthMoonBary.heliocentric(t)

	lon := math.Atan2(py-ey, px-ex) * radToDeg
	// General precession in longitude from J2000 to date.
	lon += 1.3969713 * t
	return Normalize360(lon)
}

// PlanetLongitudes returns the longitudes of all five planets, ordered as
// Planets.
func PlanetLongitudes(jdTT float64) [5]float64 {
	var out [5]float64
	for i, p := range Planets {
		out[i] = PlanetLongitude(p, jdTT)
	}
	return out
}
