package riseset

import (
	"math"
	"testing"
	"time"

	"github.com/sj14/astral/pkg/astral"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/lunarcal/internal/astro"
	"github.com/zapponejosh/lunarcal/internal/calendar"
)

func TestSunEvents_NilLocation(t *testing.T) {
	clock := calendar.NewCivilClock(time.UTC)
	assert.Equal(t, SunTimes{}, SunEvents(Current, time.Now(), nil, clock))
	assert.Equal(t, MoonTimes{}, MoonEvents(Current, time.Now(), nil))
}

func TestSunEvents_MatchesAstral(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	require.NoError(t, err)
	clock := calendar.NewCivilClock(helsinki)

	tests := []struct {
		name string
		lat  float64
		lon  float64
		date time.Time
	}{
		{"helsinki equinox", 60.1699, 24.9384, time.Date(2024, 3, 20, 12, 0, 0, 0, helsinki)},
		{"helsinki summer", 60.1699, 24.9384, time.Date(2024, 6, 1, 12, 0, 0, 0, helsinki)},
		{"helsinki winter", 60.1699, 24.9384, time.Date(2024, 12, 1, 12, 0, 0, 0, helsinki)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := &calendar.GeoLocation{Latitude: tt.lat, Longitude: tt.lon}
			st := SunEvents(Current, tt.date, loc, clock)
			require.NotNil(t, st.Sunrise)
			require.NotNil(t, st.Sunset)

			obs := astral.Observer{Latitude: tt.lat, Longitude: tt.lon}
			wantRise, err := astral.Sunrise(obs, tt.date)
			require.NoError(t, err)
			wantSet, err := astral.Sunset(obs, tt.date)
			require.NoError(t, err)

			assert.WithinDuration(t, wantRise, *st.Sunrise, 3*time.Minute)
			assert.WithinDuration(t, wantSet, *st.Sunset, 3*time.Minute)
		})
	}
}

func TestSunEvents_Ordering(t *testing.T) {
	tz, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	clock := calendar.NewCivilClock(tz)
	loc := &calendar.GeoLocation{Latitude: 31.23, Longitude: 121.47}

	st := SunEvents(Current, time.Date(2024, 2, 10, 9, 0, 0, 0, tz), loc, clock)
	events := []*time.Time{st.Midnight, st.Dawn, st.Sunrise, st.Noon, st.Sunset, st.Dusk}
	for i, e := range events {
		require.NotNil(t, e, "event %d", i)
		if i > 0 {
			assert.True(t, e.After(*events[i-1]), "event %d", i)
		}
	}
	assert.False(t, st.AlwaysAbove)
	assert.False(t, st.AlwaysBelow)
	assert.Equal(t, calendar.Day{Year: 2024, Month: time.February, Day: 10}, clock.DayOf(*st.Noon))
}

func TestSunEvents_NoonAtGreenwich(t *testing.T) {
	// Early November the equation of time is about +16.4 minutes.
	clock := calendar.NewCivilClock(time.UTC)
	loc := &calendar.GeoLocation{Latitude: 51.48, Longitude: 0}
	st := SunEvents(Current, time.Date(2024, 11, 3, 6, 0, 0, 0, time.UTC), loc, clock)
	require.NotNil(t, st.Noon)
	assert.WithinDuration(t, time.Date(2024, 11, 3, 11, 43, 35, 0, time.UTC), *st.Noon, time.Minute)
}

func TestSunEvents_Windows(t *testing.T) {
	clock := calendar.NewCivilClock(time.UTC)
	loc := &calendar.GeoLocation{Latitude: 40, Longitude: -74}
	at := time.Date(2024, 4, 15, 15, 0, 0, 0, time.UTC)

	prev := SunEvents(Previous, at, loc, clock)
	cur := SunEvents(Current, at, loc, clock)
	next := SunEvents(Next, at, loc, clock)

	assert.InDelta(t, 24*time.Hour, cur.Noon.Sub(*prev.Noon), float64(time.Minute))
	assert.InDelta(t, 24*time.Hour, next.Noon.Sub(*cur.Noon), float64(time.Minute))
}

func TestSunEvents_Polar(t *testing.T) {
	clock := calendar.NewCivilClock(time.UTC)
	solstice := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)

	north := SunEvents(Current, solstice, &calendar.GeoLocation{Latitude: 89, Longitude: 0}, clock)
	assert.True(t, north.AlwaysAbove)
	assert.False(t, north.AlwaysBelow)
	assert.Nil(t, north.Sunrise)
	assert.Nil(t, north.Sunset)
	assert.NotNil(t, north.Noon)
	assert.NotNil(t, north.Midnight)

	south := SunEvents(Current, solstice, &calendar.GeoLocation{Latitude: -89, Longitude: 0}, clock)
	assert.True(t, south.AlwaysBelow)
	assert.Nil(t, south.Sunrise)
	assert.Nil(t, south.Dawn)
}

func TestMoonEvents(t *testing.T) {
	loc := &calendar.GeoLocation{Latitude: 31.23, Longitude: 121.47}
	// Full moon of 2024-09-18 02:34 UTC.
	full := time.Date(2024, 9, 18, 2, 34, 0, 0, time.UTC)

	mt := MoonEvents(Current, full, loc)
	require.NotNil(t, mt.Moonrise)
	require.NotNil(t, mt.Culmination)
	require.NotNil(t, mt.Moonset)
	assert.True(t, mt.Moonrise.Before(*mt.Culmination))
	assert.True(t, mt.Culmination.Before(*mt.Moonset))

	// A full moon culminates around local solar midnight.
	jd := astro.JulianDay(*mt.Culmination)
	sunHA := astro.HourAngle(jd, loc.Longitude, astro.SunEquatorial(astro.TTFromUT(jd)).RA)
	assert.Greater(t, math.Abs(sunHA), 160.0)

	next := MoonEvents(Next, full, loc)
	require.NotNil(t, next.Culmination)
	gap := next.Culmination.Sub(*mt.Culmination)
	assert.Greater(t, gap, 24*time.Hour)
	assert.Less(t, gap, 26*time.Hour)

	prev := MoonEvents(Previous, full, loc)
	require.NotNil(t, prev.Culmination)
	assert.True(t, prev.Culmination.Before(*mt.Culmination))
}

func TestClone_SharesNoTimes(t *testing.T) {
	loc := &calendar.GeoLocation{Latitude: 31.23, Longitude: 121.47}
	at := time.Date(2024, 9, 18, 2, 34, 0, 0, time.UTC)
	clock := calendar.NewCivilClock(time.UTC)

	st := SunEvents(Current, at, loc, clock)
	require.NotNil(t, st.Sunrise)
	sc := st.Clone()
	assert.Equal(t, st, sc)
	*sc.Sunrise = sc.Sunrise.Add(time.Hour)
	assert.NotEqual(t, *st.Sunrise, *sc.Sunrise)

	mt := MoonEvents(Current, at, loc)
	require.NotNil(t, mt.Moonrise)
	mc := mt.Clone()
	assert.Equal(t, mt, mc)
	*mc.Moonrise = mc.Moonrise.Add(time.Hour)
	assert.NotEqual(t, *mt.Moonrise, *mc.Moonrise)

	assert.Equal(t, SunTimes{AlwaysBelow: true}, SunTimes{AlwaysBelow: true}.Clone())
}

func TestParseWindow(t *testing.T) {
	assert.Equal(t, Previous, ParseWindow("previous"))
	assert.Equal(t, Next, ParseWindow("next"))
	assert.Equal(t, Current, ParseWindow(""))
	assert.Equal(t, "next", Next.String())
}

func FuzzSunEvents(f *testing.F) {
	f.Add(0.0, 0.0, int64(1718971200))
	f.Add(66.5, 25.7, int64(1703160000))
	f.Add(-45.0, 170.0, int64(1000000000))
	clock := calendar.NewCivilClock(time.UTC)

	f.Fuzz(func(t *testing.T, lat, lon float64, unix int64) {
		loc := &calendar.GeoLocation{Latitude: lat, Longitude: lon}
		if loc.Validate() != nil {
			return
		}
		at := time.Unix(unix, 0).UTC()
		if !calendar.InRange(at) {
			return
		}
		st := SunEvents(Current, at, loc, clock)
		if st.Noon == nil || st.Midnight == nil {
			t.Fatalf("transits missing at %v,%v", lat, lon)
		}
		if st.Sunrise != nil && st.Sunset != nil && !st.Sunrise.Before(*st.Sunset) {
			t.Errorf("sunrise %v not before sunset %v", st.Sunrise, st.Sunset)
		}
		if st.AlwaysAbove && st.AlwaysBelow {
			t.Errorf("both polar flags set")
		}
	})
}
