package astro

// Nutation returns the nutation in longitude (Δψ) and in obliquity (Δε), in
// degrees, from the four leading IAU-1980 terms (accurate to about 0.5").
func Nutation(jdTT float64) (dpsi, deps float64) {
	t := centuries(jdTT)
	omega := 125.04452 - 1934.136261*t + 0.0020708*t*t + t*t*t/450000
	l := 280.4665 + 36000.7698*t
	lp := 218.3165 + 481267.8813*t

	dpsi = -17.20*sinD(omega) - 1.32*sinD(2*l) - 0.23*sinD(2*lp) + 0.21*sinD(2*omega)
	deps = 9.20*cosD(omega) + 0.57*cosD(2*l) + 0.10*cosD(2*lp) - 0.09*cosD(2*omega)
	return dpsi * arcsecToDeg, deps * arcsecToDeg
}

// MeanObliquity returns the mean obliquity of the ecliptic in degrees.
func MeanObliquity(jdTT float64) float64 {
	t := centuries(jdTT)
	seconds := 21.448 - 46.8150*t - 0.00059*t*t + 0.001813*t*t*t
	return 23 + 26.0/60 + seconds*arcsecToDeg
}

// TrueObliquity returns the obliquity of the ecliptic including nutation.
func TrueObliquity(jdTT float64) float64 {
	_, deps := Nutation(jdTT)
	return MeanObliquity(jdTT) + deps
}
