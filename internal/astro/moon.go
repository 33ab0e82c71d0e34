package astro

import "math"

// moonTerm is one periodic term of the truncated ELP-2000/82 series:
// multiples of D, M, M', F and the coefficients for the sine (longitude or
// latitude, 1e-6 degree) and cosine (distance, 1e-3 km) sums.
type moonTerm struct {
	D, M, Mp, F int8
	Sin         float64
	Cos         float64
}

// Meeus table 47.A: longitude and distance.
var moonLonDist = []moonTerm{
	{0, 0, 1, 0, 6288774, -20905355},
	{2, 0, -1, 0, 1274027, -3699111},
	{2, 0, 0, 0, 658314, -2955968},
	{0, 0, 2, 0, 213618, -569925},
	{0, 1, 0, 0, -185116, 48888},
	{0, 0, 0, 2, -114332, -3149},
	{2, 0, -2, 0, 58793, 246158},
	{2, -1, -1, 0, 57066, -152138},
	{2, 0, 1, 0, 53322, -170733},
	{2, -1, 0, 0, 45758, -204586},
	{0, 1, -1, 0, -40923, -129620},
	{1, 0, 0, 0, -34720, 108743},
	{0, 1, 1, 0, -30383, 104755},
	{2, 0, 0, -2, 15327, 10321},
	{0, 0, 1, 2, -12528, 0},
	{0, 0, 1, -2, 10980, 79661},
	{4, 0, -1, 0, 10675, -34782},
	{0, 0, 3, 0, 10034, -23210},
	{4, 0, -2, 0, 8548, -21636},
	{2, 1, -1, 0, -7888, 24208},
	{2, 1, 0, 0, -6766, 30824},
	{1, 0, -1, 0, -5163, -8379},
	{1, 1, 0, 0, 4987, -16675},
	{2, -1, 1, 0, 4036, -12831},
	{2, 0, 2, 0, 3994, -10445},
	{4, 0, 0, 0, 3861, -11650},
	{2, 0, -3, 0, 3665, 14403},
	{0, 1, -2, 0, -2689, -7003},
	{2, 0, -1, 2, -2602, 0},
	{2, -1, -2, 0, 2390, 10056},
	{1, 0, 1, 0, -2348, 6322},
	{2, -2, 0, 0, 2236, -9884},
	{0, 1, 2, 0, -2120, 5751},
	{0, 2, 0, 0, -2069, 0},
	{2, -2, -1, 0, 2048, -4950},
	{2, 0, 1, -2, -1773, 4130},
	{2, 0, 0, 2, -1595, 0},
	{4, -1, -1, 0, 1215, -3958},
	{0, 0, 2, 2, -1110, 0},
	{3, 0, -1, 0, -892, 3258},
	{2, 1, 1, 0, -810, 2616},
	{4, -1, -2, 0, 759, -1897},
	{0, 2, -1, 0, -713, -2117},
	{2, 2, -1, 0, -700, 2354},
	{2, 1, -2, 0, 691, 0},
	{2, -1, 0, -2, 596, 0},
	{4, 0, 1, 0, 549, -1423},
	{0, 0, 4, 0, 537, -1117},
	{4, -1, 0, 0, 520, -1571},
	{1, 0, -2, 0, -487, -1739},
	{2, 1, 0, -2, -399, 0},
	{0, 0, 2, -2, -381, -4421},
	{1, 1, 1, 0, 351, 0},
	{3, 0, -2, 0, -340, 0},
	{4, 0, -3, 0, 330, 0},
	{2, -1, 2, 0, 327, 0},
	{0, 2, 1, 0, -323, 1165},
	{1, 1, -1, 0, 299, 0},
	{2, 0, 3, 0, 294, 0},
	{2, 0, -1, -2, 0, 8752},
}

// Meeus table 47.B: latitude.
var moonLat = []moonTerm{
	{0, 0, 0, 1, 5128122, 0},
	{0, 0, 1, 1, 280602, 0},
	{0, 0, 1, -1, 277693, 0},
	{2, 0, 0, -1, 173237, 0},
	{2, 0, -1, 1, 55413, 0},
	{2, 0, -1, -1, 46271, 0},
	{2, 0, 0, 1, 32573, 0},
	{0, 0, 2, 1, 17198, 0},
	{2, 0, 1, -1, 9266, 0},
	{0, 0, 2, -1, 8822, 0},
	{2, -1, 0, -1, 8216, 0},
	{2, 0, -2, -1, 4324, 0},
	{2, 0, 1, 1, 4200, 0},
	{2, 1, 0, -1, -3359, 0},
	{2, -1, -1, 1, 2463, 0},
	{2, -1, 0, 1, 2211, 0},
	{2, -1, -1, -1, 2065, 0},
	{0, 1, -1, -1, -1870, 0},
	{4, 0, -1, -1, 1828, 0},
	{0, 1, 0, 1, -1794, 0},
	{0, 0, 0, 3, -1749, 0},
	{0, 1, -1, 1, -1565, 0},
	{1, 0, 0, 1, -1491, 0},
	{0, 1, 1, 1, -1475, 0},
	{0, 1, 1, -1, -1410, 0},
	{0, 1, 0, -1, -1344, 0},
	{1, 0, 0, -1, -1335, 0},
	{0, 0, 3, 1, 1107, 0},
	{4, 0, 0, -1, 1021, 0},
	{4, 0, -1, 1, 833, 0},
	{0, 0, 1, -3, 777, 0},
	{4, 0, -2, 1, 671, 0},
	{2, 0, 0, -3, 607, 0},
	{2, 0, 2, -1, 596, 0},
	{2, -1, 1, -1, 491, 0},
	{2, 0, -2, 1, -451, 0},
	{0, 0, 3, -1, 439, 0},
	{2, 0, 2, 1, 422, 0},
	{2, 0, -3, -1, 421, 0},
	{2, 1, -1, 1, -366, 0},
	{2, 1, 0, 1, -351, 0},
	{4, 0, 0, 1, 331, 0},
	{2, -1, 1, 1, 315, 0},
	{2, -2, 0, -1, 302, 0},
	{0, 0, 1, 3, -283, 0},
	{2, 1, 1, -1, -229, 0},
	{1, 1, 0, -1, 223, 0},
	{1, 1, 0, 1, 223, 0},
	{0, 1, -2, -1, -220, 0},
	{2, 1, -1, -1, -220, 0},
	{1, 0, 1, 1, -185, 0},
	{2, -1, -2, -1, 181, 0},
	{0, 1, 2, 1, -177, 0},
	{4, 0, -2, -1, 176, 0},
	{4, -1, -1, -1, 166, 0},
	{1, 0, 1, -1, -164, 0},
	{4, 0, 1, -1, 132, 0},
	{1, 0, -1, -1, -119, 0},
	{4, -1, 0, -1, 115, 0},
	{2, -2, 0, 1, 107, 0},
}

// moonArguments holds the fundamental arguments of the lunar theory, in degrees.
type moonArguments struct {
	Lp, D, M, Mp, F float64
	A1, A2, A3      float64
	E               float64
}

func lunarArguments(jdTT float64) moonArguments {
	t := centuries(jdTT)
	t2, t3, t4 := t*t, t*t*t, t*t*t*t
	return moonArguments{
		Lp: Normalize360(218.3164477 + 481267.88123421*t - 0.0015786*t2 + t3/538841 - t4/65194000),
		D:  Normalize360(297.8501921 + 445267.1114034*t - 0.0018819*t2 + t3/545868 - t4/113065000),
		M:  Normalize360(357.5291092 + 35999.0502909*t - 0.0001536*t2 + t3/24490000),
		Mp: Normalize360(134.9633964 + 477198.8675055*t + 0.0087414*t2 + t3/69699 - t4/14712000),
		F:  Normalize360(93.2720950 + 483202.0175233*t - 0.0036539*t2 - t3/3526000 + t4/863310000),
		A1: Normalize360(119.75 + 131.849*t),
		A2: Normalize360(53.09 + 479264.290*t),
		A3: Normalize360(313.45 + 481266.484*t),
		E:  1 - 0.002516*t - 0.0000074*t2,
	}
}

// eccentricityFactor scales terms involving the sun's mean anomaly M.
func (a moonArguments) eccentricityFactor(m int8) float64 {
	switch m {
	case 1, -1:
		return a.E
	case 2, -2:
		return a.E * a.E
	default:
		return 1
	}
}

func (a moonArguments) argument(t moonTerm) float64 {
	return float64(t.D)*a.D + float64(t.M)*a.M + float64(t.Mp)*a.Mp + float64(t.F)*a.F
}

// MoonGeometric returns the geocentric position of the moon referred to the
// mean equinox of date (no nutation). Distance is in kilometres.
func MoonGeometric(jdTT float64) Ecliptic {
	a := lunarArguments(jdTT)

	var sl, sr, sb float64
	for _, term := range moonLonDist {
		arg := a.argument(term) * degToRad
		e := a.eccentricityFactor(term.M)
		sl += term.Sin * e * math.Sin(arg)
		sr += term.Cos * e * math.Cos(arg)
	}
	for _, term := range moonLat {
		sb += term.Sin * a.eccentricityFactor(term.M) * math.Sin(a.argument(term)*degToRad)
	}

	sl += 3958*sinD(a.A1) + 1962*sinD(a.Lp-a.F) + 318*sinD(a.A2)
	sb += -2235*sinD(a.Lp) + 382*sinD(a.A3) + 175*sinD(a.A1-a.F) +
		175*sinD(a.A1+a.F) + 127*sinD(a.Lp-a.Mp) - 115*sinD(a.Lp+a.Mp)

	return Ecliptic{
		Lon:  Normalize360(a.Lp + sl*1e-6),
		Lat:  sb * 1e-6,
		Dist: 385000.56 + sr*1e-3,
	}
}

// MoonPosition returns the apparent geocentric position of the moon.
func MoonPosition(jdTT float64) Ecliptic {
	g := MoonGeometric(jdTT)
	dpsi, _ := Nutation(jdTT)
	g.Lon = Normalize360(g.Lon + dpsi)
	return g
}

// MoonLongitude returns the apparent ecliptic longitude of the moon in degrees.
func MoonLongitude(jdTT float64) float64 {
	return MoonPosition(jdTT).Lon
}

// Elongation returns the apparent longitude of the moon minus that of the
// sun, in [0, 360). 0° is new moon and 180° full moon.
func Elongation(jdTT float64) float64 {
	return Normalize360(MoonLongitude(jdTT) - SunLongitude(jdTT))
}
