// Package solver finds the instants at which a smooth astronomical quantity
// reaches a target value. Time is measured in Julian Days throughout.
package solver

import (
	"math"

	"github.com/zapponejosh/lunarcal/internal/astro"
)

const (
	// MaxIterations bounds every refinement loop.
	MaxIterations = 50

	// TimeTolerance is the convergence threshold: one second, in days.
	TimeTolerance = 1.0 / astro.SecondsPerDay

	// sampleStep is the scan step used to bracket crossings (one hour).
	sampleStep = 1.0 / 24
)

// AngleFunc returns a periodic angle in degrees at a Julian Day.
type AngleFunc func(jd float64) float64

// ScalarFunc returns a non-periodic quantity (e.g. altitude) at a Julian Day.
type ScalarFunc func(jd float64) float64

// Direction selects which crossings FindCrossing accepts.
type Direction int

const (
	Either Direction = iota
	Rising
	Falling
)

// Result is the outcome of a search. JD is always the best estimate found,
// even when Converged is false.
type Result struct {
	JD         float64
	Iterations int
	Converged  bool
	Residual   float64
}

// FindAngle finds the instant near estimate at which f equals target
// (mod 360). rate is the mean rate of change of f in degrees per day and
// seeds the secant iteration; it is also the fallback slope whenever the
// local secant is unusable.
func FindAngle(f AngleFunc, target, estimate, rate float64) Result {
	diff := func(jd float64) float64 {
		return astro.Normalize180(f(jd) - target)
	}

	x0 := estimate
	d0 := diff(x0)
	x1 := x0 - d0/rate

	res := Result{JD: x0, Residual: d0}
	for i := 1; i <= MaxIterations; i++ {
		res.Iterations = i
		if math.Abs(x1-x0) < TimeTolerance {
			res.JD = x1
			res.Residual = diff(x1)
			res.Converged = true
			return res
		}

		d1 := diff(x1)
		slope := rate
		if dx := x1 - x0; dx != 0 {
			if s := (d1 - d0) / dx; s*rate > 0 && !math.IsInf(s, 0) && !math.IsNaN(s) {
				slope = s
			}
		}

		if math.Abs(d1) < math.Abs(res.Residual) {
			res.JD, res.Residual = x1, d1
		}

		x0, d0 = x1, d1
		x1 = x1 - d1/slope
	}
	return res
}

// FindCrossing looks for the first instant in [start, end] at which f
// crosses target in the requested direction. The interval is scanned in
// one-hour steps and the first bracketing step is bisected. found is false
// when no crossing exists in the interval.
func FindCrossing(f ScalarFunc, start, end, target float64, dir Direction) (Result, bool) {
	if end <= start {
		return Result{}, false
	}

	g := func(jd float64) float64 { return f(jd) - target }

	a := start
	ga := g(a)
	for a < end {
		b := math.Min(a+sampleStep, end)
		gb := g(b)
		if brackets(ga, gb, dir) {
			return bisect(g, a, b, ga), true
		}
		a, ga = b, gb
	}
	return Result{}, false
}

func brackets(ga, gb float64, dir Direction) bool {
	rising := ga < 0 && gb >= 0
	falling := ga > 0 && gb <= 0
	switch dir {
	case Rising:
		return rising
	case Falling:
		return falling
	default:
		return rising || falling
	}
}

func bisect(g func(float64) float64, a, b, ga float64) Result {
	res := Result{}
	for i := 1; i <= MaxIterations; i++ {
		res.Iterations = i
		mid := (a + b) / 2
		gm := g(mid)
		if (ga < 0) == (gm < 0) {
			a, ga = mid, gm
		} else {
			b = mid
		}
		if b-a < TimeTolerance {
			res.Converged = true
			break
		}
	}
	res.JD = (a + b) / 2
	res.Residual = g(res.JD)
	return res
}
