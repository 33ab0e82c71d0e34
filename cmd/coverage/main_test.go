package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/lunarcal/internal/calendar"
)

func TestSweep(t *testing.T) {
	tz, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)

	analysis, results, err := sweep(context.Background(), calendar.Config{}, tz, 2024, 2025)
	require.NoError(t, err)

	assert.Equal(t, 366+365, analysis.TotalDays)
	assert.Len(t, results, analysis.TotalDays)
	assert.Zero(t, analysis.TotalFailed, "failures: %v", analysis.AllFailures)

	require.Len(t, analysis.ByYear, 2)
	assert.Zero(t, analysis.ByYear[0].LeapMonth)
	assert.Equal(t, 6, analysis.ByYear[1].LeapMonth)
	assert.Empty(t, analysis.ByYear[1].Error)
}

func TestSweep_RangeEdge(t *testing.T) {
	analysis, _, err := sweep(context.Background(), calendar.Config{}, time.UTC, 2099, 2099)
	require.NoError(t, err)

	// MaxSupported is 2099-12-31T00:00Z, so the last day is not whole.
	assert.Equal(t, 1, analysis.ByYear[0].Skipped)
	assert.Zero(t, analysis.TotalFailed, "failures: %v", analysis.AllFailures)
}

func TestSweep_EmptyRange(t *testing.T) {
	_, _, err := sweep(context.Background(), calendar.Config{}, time.UTC, 2025, 2024)
	assert.Error(t, err)
}

func TestCheckSuccession(t *testing.T) {
	day := func(y, m, d int, leap bool, days int) calendar.DayInfo {
		return calendar.DayInfo{
			Date:  calendar.LunisolarDate{Year: y, Month: m, Day: d, IsLeapMonth: leap},
			Month: calendar.Month{LunarYear: y, Number: m, IsLeap: leap, Days: days},
		}
	}

	tests := []struct {
		name      string
		prev, cur calendar.DayInfo
		wantErr   bool
	}{
		{"next day", day(2024, 3, 4, false, 30), day(2024, 3, 5, false, 30), false},
		{"skipped day", day(2024, 3, 4, false, 30), day(2024, 3, 6, false, 30), true},
		{"next month", day(2024, 3, 30, false, 30), day(2024, 4, 1, false, 29), false},
		{"short month", day(2024, 3, 29, false, 30), day(2024, 4, 1, false, 29), true},
		{"into leap", day(2025, 6, 29, false, 29), day(2025, 6, 1, true, 30), false},
		{"out of leap", day(2025, 6, 30, true, 30), day(2025, 7, 1, false, 29), false},
		{"new year", day(2024, 12, 29, false, 29), day(2025, 1, 1, false, 30), false},
		{"new year same label", day(2024, 12, 29, false, 29), day(2024, 1, 1, false, 30), true},
		{"mid-month start", day(2024, 3, 30, false, 30), day(2024, 4, 2, false, 29), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkSuccession(tt.prev, tt.cur)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckSui(t *testing.T) {
	for _, year := range []int{1901, 2017, 2033, 2057, 2099} {
		y, err := calendar.BuildYear(year, calendar.Config{}, calendar.ReferenceZone, nil)
		require.NoError(t, err)
		assert.NoError(t, checkSui(y), "sui %d", year)
	}
}
