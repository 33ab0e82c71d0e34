package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shanghai(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	return loc
}

func day(t *testing.T, s string) Day {
	t.Helper()
	d, err := ParseDay(s)
	require.NoError(t, err)
	return d
}

func TestBuildYear_Structure(t *testing.T) {
	for _, sui := range []int{1901, 1985, 2000, 2023, 2024, 2025, 2034, 2099} {
		y, err := BuildYear(sui, Config{}, shanghai(t), nil)
		require.NoError(t, err)

		months := y.Months()
		_, hasLeap := y.LeapMonth()
		if hasLeap {
			assert.Len(t, months, 14, "sui %d", sui)
		} else {
			assert.Len(t, months, 13, "sui %d", sui)
		}

		assert.Equal(t, 11, months[0].Number, "sui %d", sui)
		assert.Equal(t, 11, months[len(months)-1].Number, "sui %d", sui)
		assert.False(t, months[len(months)-1].IsLeap, "sui %d", sui)

		for i, m := range months {
			assert.Contains(t, []int{29, 30}, m.Days, "sui %d month %d", sui, i)
			if i > 0 {
				assert.Equal(t, months[i-1].End(), m.Start, "sui %d month %d", sui, i)
			}
		}
	}
}

func TestBuildYear_LeapMonths(t *testing.T) {
	tests := []struct {
		sui      int
		wantLeap int
		wantOK   bool
	}{
		{2017, 6, true},
		{2020, 4, true},
		{2023, 2, true},
		{2024, 0, false},
		{2025, 6, true},
		{2028, 5, true},
		// The leap month after month 11 of 2033 belongs to sui 2034.
		{2034, 11, true},
	}
	for _, tt := range tests {
		y, err := BuildYear(tt.sui, Config{}, shanghai(t), nil)
		require.NoError(t, err)
		leap, ok := y.LeapMonth()
		assert.Equal(t, tt.wantOK, ok, "sui %d", tt.sui)
		assert.Equal(t, tt.wantLeap, leap, "sui %d", tt.sui)
	}
}

func TestYear_Lookup(t *testing.T) {
	y, err := BuildYear(2024, Config{}, shanghai(t), nil)
	require.NoError(t, err)

	tests := []struct {
		day  string
		want LunisolarDate
	}{
		{"2024-02-10", LunisolarDate{Year: 2024, Month: 1, Day: 1}},
		{"2024-02-09", LunisolarDate{Year: 2023, Month: 12, Day: 30}},
		{"2024-01-11", LunisolarDate{Year: 2023, Month: 12, Day: 1}},
		{"2024-09-17", LunisolarDate{Year: 2024, Month: 8, Day: 15}},
		{"2024-06-10", LunisolarDate{Year: 2024, Month: 5, Day: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			got, ok := y.Lookup(day(t, tt.day))
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := y.Lookup(day(t, "2023-06-01"))
	assert.False(t, ok)
	_, ok = y.Lookup(day(t, "2025-03-01"))
	assert.False(t, ok)
}

func TestYear_LeapLookup2033(t *testing.T) {
	y, err := BuildYear(2034, Config{}, shanghai(t), nil)
	require.NoError(t, err)

	got, ok := y.Lookup(day(t, "2033-12-22"))
	require.True(t, ok)
	assert.Equal(t, LunisolarDate{Year: 2033, Month: 11, IsLeapMonth: true, Day: 1}, got)
}

func TestYear_Find(t *testing.T) {
	y, err := BuildYear(2024, Config{}, shanghai(t), nil)
	require.NoError(t, err)

	d, ok := y.Find(LunisolarDate{Year: 2024, Month: 8, Day: 15})
	require.True(t, ok)
	assert.Equal(t, day(t, "2024-09-17"), d)

	_, ok = y.Find(LunisolarDate{Year: 2024, Month: 4, IsLeapMonth: true, Day: 1})
	assert.False(t, ok)
}

func TestBuildYear_InvalidLocation(t *testing.T) {
	_, err := BuildYear(2024, Config{}, time.UTC, &GeoLocation{Latitude: 91})
	assert.ErrorIs(t, err, ErrInvalidLocation)
}
