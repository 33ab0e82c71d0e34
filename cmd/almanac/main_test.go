package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/lunarcal/internal/calendar"
)

func shanghai(t *testing.T) *time.Location {
	t.Helper()
	tz, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	return tz
}

func TestBuildReport_LeapYear(t *testing.T) {
	rep, err := buildReport(2025, calendar.Config{}, shanghai(t), nil, calendar.NewHolidayResolver())
	require.NoError(t, err)

	assert.Equal(t, 6, rep.LeapMonth)
	require.Len(t, rep.Months, 13)
	assert.Equal(t, "2025-01-29", rep.Months[0].Start.String())
	assert.Len(t, rep.Terms, 25)

	byName := map[string]string{}
	for _, h := range rep.Holidays {
		for _, n := range h.Names {
			byName[n] = h.Day
		}
	}
	assert.Equal(t, "2025-01-29", byName["Lunar New Year"])
	assert.Equal(t, "2025-10-06", byName["Mid-Autumn Festival"])
	assert.Equal(t, "2026-02-16", byName["New Year's Eve"])
}

func TestBuildReport_CommonYear(t *testing.T) {
	rep, err := buildReport(2024, calendar.Config{}, shanghai(t), nil, calendar.NewHolidayResolver())
	require.NoError(t, err)

	assert.Zero(t, rep.LeapMonth)
	assert.Len(t, rep.Months, 12)
	for i, m := range rep.Months {
		assert.Equal(t, i+1, m.Number)
		assert.False(t, m.IsLeap)
	}
}

func TestBuildReport_CustomHoliday(t *testing.T) {
	extra := calendar.HolidayRule{Name: "Flower Festival", Kind: calendar.KindLunar, Month: 2, Day: 12}
	rep, err := buildReport(2024, calendar.Config{}, shanghai(t), nil, calendar.NewHolidayResolver(extra))
	require.NoError(t, err)

	var found bool
	for _, h := range rep.Holidays {
		for _, n := range h.Names {
			if n == "Flower Festival" {
				found = true
				assert.Equal(t, "2024-03-21", h.Day)
			}
		}
	}
	assert.True(t, found)
}

func TestWriteText(t *testing.T) {
	rep, err := buildReport(2025, calendar.Config{}, shanghai(t), nil, calendar.NewHolidayResolver())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeText(&buf, rep))

	out := buf.String()
	assert.Contains(t, out, "Lunar year 2025")
	assert.Contains(t, out, "leap 6")
	assert.Contains(t, out, "spring_equinox")
	assert.True(t, strings.Contains(out, "Lunar New Year"))
}
