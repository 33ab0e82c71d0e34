package calendar

import (
	"math"
	"sort"
	"time"

	"github.com/zapponejosh/lunarcal/internal/astro"
	"github.com/zapponejosh/lunarcal/internal/solver"
)

const (
	// synodicMonth is the mean synodic month in days.
	synodicMonth = 29.530588861

	// elongationRate is the mean rate of the moon's elongation, degrees/day.
	elongationRate = 360 / synodicMonth

	// referenceNewMoon is the mean new moon of 2000-01-06 (TT), lunation 0.
	referenceNewMoon = 2451550.09766
)

// Phase names.
const (
	NewMoon  = "newmoon"
	FullMoon = "fullmoon"
)

// phaseAt solves for the phase (0° new, 180° full) of lunation k.
func phaseAt(k int, angle float64) float64 {
	estimate := referenceNewMoon + (float64(k)+angle/360)*synodicMonth
	return solver.FindAngle(astro.Elongation, angle, estimate, elongationRate).JD
}

// lunation returns the mean lunation number at or before jd.
func lunation(jd float64) int {
	return int(math.Floor((jd - referenceNewMoon) / synodicMonth))
}

// newMoonsJD returns the new moons in [from, to) as ascending Julian Days (TT).
func newMoonsJD(from, to float64) []float64 {
	var out []float64
	for k := lunation(from) - 1; ; k++ {
		jd := phaseAt(k, 0)
		if jd >= to {
			break
		}
		if jd >= from {
			out = append(out, jd)
		}
	}
	return out
}

// fullMoonAfter returns the first full moon following the new moon nm.
func fullMoonAfter(nm float64) float64 {
	estimate := nm + synodicMonth/2
	return solver.FindAngle(astro.Elongation, 180, estimate, elongationRate).JD
}

// NewMoons returns the new moons in [from, to), ascending.
func NewMoons(from, to time.Time) []NamedDate {
	jds := newMoonsJD(julian(from), julian(to))
	out := make([]NamedDate, len(jds))
	for i, jd := range jds {
		out[i] = NamedDate{Name: NewMoon, Date: instant(jd)}
	}
	return out
}

// MoonPhases returns new and full moons in [from, to), ascending.
func MoonPhases(from, to time.Time) []NamedDate {
	f, t := julian(from), julian(to)

	var out []NamedDate
	for k := lunation(f) - 1; ; k++ {
		nm := phaseAt(k, 0)
		if nm >= t {
			break
		}
		if nm >= f {
			out = append(out, NamedDate{Name: NewMoon, Date: instant(nm)})
		}
		if fm := fullMoonAfter(nm); fm >= f && fm < t {
			out = append(out, NamedDate{Name: FullMoon, Date: instant(fm)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// MoonPhasesAround returns the phases from the new moon preceding the
// current lunation through the new moon two lunations after it.
func MoonPhasesAround(t time.Time) []NamedDate {
	jd := julian(t)
	k := lunation(jd)
	// The mean lunation can be off by a day or so from the true one.
	if phaseAt(k, 0) > jd {
		k--
	} else if phaseAt(k+1, 0) <= jd {
		k++
	}
	from := instant(phaseAt(k-1, 0)).Add(-time.Millisecond)
	to := instant(phaseAt(k+2, 0)).Add(time.Millisecond)
	return MoonPhases(from, to)
}
