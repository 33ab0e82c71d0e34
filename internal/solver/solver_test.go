package solver

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/lunarcal/internal/astro"
)

func TestFindAngle_Linear(t *testing.T) {
	f := func(jd float64) float64 { return astro.Normalize360(10 + 2*jd) }

	tests := []struct {
		name     string
		target   float64
		estimate float64
		want     float64
	}{
		{"exact estimate", 30, 10, 10},
		{"wraps around", 0, 170, 175},
		{"estimate a day late", 50, 21, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := FindAngle(f, tt.target, tt.estimate, 2)
			require.True(t, res.Converged)
			assert.InDelta(t, tt.want, res.JD, TimeTolerance)
			assert.LessOrEqual(t, res.Iterations, MaxIterations)
		})
	}
}

func TestFindAngle_VernalEquinox2024(t *testing.T) {
	estimate := astro.TTFromUT(astro.JulianDay(time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)))
	res := FindAngle(astro.SunLongitude, 0, estimate, 360/365.2422)
	require.True(t, res.Converged)

	got := astro.TimeFromJulian(astro.UTFromTT(res.JD))
	want := time.Date(2024, 3, 20, 3, 6, 0, 0, time.UTC)
	assert.WithinDuration(t, want, got, 2*time.Minute)
}

func TestFindAngle_NonConvergentReportsBestEstimate(t *testing.T) {
	// Never reaches the target; the solver must still return, not loop.
	f := func(jd float64) float64 { return 90 + 10*math.Sin(jd) }
	res := FindAngle(f, 0, 0, 1)
	assert.False(t, res.Converged)
	assert.Equal(t, MaxIterations, res.Iterations)
	assert.False(t, math.IsNaN(res.JD))
}

func TestFindCrossing(t *testing.T) {
	// Sine with period one day: rises through 0 at 0, falls at 0.5.
	f := func(jd float64) float64 { return math.Sin(2 * math.Pi * jd) }

	tests := []struct {
		name      string
		start     float64
		end       float64
		dir       Direction
		want      float64
		wantFound bool
	}{
		{"falling", 0.1, 0.9, Falling, 0.5, true},
		{"rising", 0.6, 1.4, Rising, 1.0, true},
		{"either takes first", 0.3, 1.3, Either, 0.5, true},
		{"no rising inside", 0.1, 0.9, Rising, 0, false},
		{"empty interval", 1, 1, Either, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, found := FindCrossing(f, tt.start, tt.end, 0, tt.dir)
			require.Equal(t, tt.wantFound, found)
			if !found {
				return
			}
			assert.True(t, res.Converged)
			assert.InDelta(t, tt.want, res.JD, 2*TimeTolerance)
		})
	}
}

func TestFindCrossing_Threshold(t *testing.T) {
	f := func(jd float64) float64 { return jd * 10 }
	res, found := FindCrossing(f, 0, 1, 2.5, Rising)
	require.True(t, found)
	assert.InDelta(t, 0.25, res.JD, 2*TimeTolerance)
}
