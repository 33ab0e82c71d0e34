package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolarTermAngle(t *testing.T) {
	tests := []struct {
		k         int
		want      float64
		principal bool
	}{
		{0, 270, true},
		{1, 285, false},
		{6, 0, true},
		{12, 90, true},
		{18, 180, true},
		{23, 255, false},
		{24, 270, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SolarTermAngle(tt.k), "k=%d", tt.k)
		assert.Equal(t, tt.principal, IsPrincipalTerm(tt.k), "k=%d", tt.k)
	}
}

func TestSolarTermIndex(t *testing.T) {
	k, ok := SolarTermIndex("pure_brightness")
	require.True(t, ok)
	assert.Equal(t, 7, k)
	assert.Equal(t, "pure_brightness", SolarTermName(k))
	assert.Equal(t, "winter_solstice", SolarTermName(24))

	_, ok = SolarTermIndex("qingming")
	assert.False(t, ok)
}

func TestSolarTerms2024(t *testing.T) {
	terms := SolarTerms(2024)
	require.Len(t, terms, 25)

	known := []struct {
		k    int
		name string
		want time.Time
	}{
		{0, "winter_solstice", time.Date(2023, 12, 22, 3, 27, 0, 0, time.UTC)},
		{6, "spring_equinox", time.Date(2024, 3, 20, 3, 6, 0, 0, time.UTC)},
		{12, "summer_solstice", time.Date(2024, 6, 20, 20, 51, 0, 0, time.UTC)},
		{18, "autumn_equinox", time.Date(2024, 9, 22, 12, 44, 0, 0, time.UTC)},
		{24, "winter_solstice", time.Date(2024, 12, 21, 9, 20, 0, 0, time.UTC)},
	}
	for _, tt := range known {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, terms[tt.k].Name)
			assert.WithinDuration(t, tt.want, terms[tt.k].Date, 2*time.Minute)
		})
	}
}

func TestSolarTerms_Spacing(t *testing.T) {
	for _, year := range []int{1902, 1950, 2000, 2024, 2050, 2099} {
		terms := SolarTerms(year)
		require.Len(t, terms, 25, "year %d", year)
		for i := 1; i < len(terms); i++ {
			gap := terms[i].Date.Sub(terms[i-1].Date)
			assert.GreaterOrEqual(t, gap, 14*24*time.Hour, "%d: gap before %s", year, terms[i].Name)
			assert.LessOrEqual(t, gap, 16*24*time.Hour, "%d: gap before %s", year, terms[i].Name)
		}
	}
}

func TestSolarTerms_AdjacentYearsShareSolstice(t *testing.T) {
	a := SolarTerms(2030)
	b := SolarTerms(2031)
	assert.Equal(t, a[24].Date, b[0].Date)
}

func TestSolarTermYear(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want int
	}{
		{"just before solstice", time.Date(2024, 12, 21, 9, 0, 0, 0, time.UTC), 2024},
		{"just after solstice", time.Date(2024, 12, 21, 9, 40, 0, 0, time.UTC), 2025},
		{"new year's day", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 2025},
		{"mid year", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), 2024},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SolarTermYear(tt.at))
		})
	}
}

func TestSolarTermsAround(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	terms := SolarTermsAround(at)
	require.Len(t, terms, 25)
	assert.True(t, terms[0].Date.Before(at))
	assert.True(t, terms[24].Date.After(at))
}
