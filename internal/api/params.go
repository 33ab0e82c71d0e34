package api

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/zapponejosh/lunarcal/internal/calendar"
	"github.com/zapponejosh/lunarcal/internal/config"
)

// validate reports field errors under their query parameter names.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("query"); name != "" {
			return name
		}
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return v
}()

// validationMessage renders validator errors as one line.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// =============================================================================
// Calendar query
// =============================================================================

// calendarQuery holds the parameters shared by the calendar endpoints.
type calendarQuery struct {
	At          string   `query:"at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	TZ          string   `query:"tz" validate:"omitempty,timezone"`
	Lat         *float64 `query:"lat" validate:"omitempty,latitude"`
	Lon         *float64 `query:"lon" validate:"omitempty,longitude"`
	GlobalMonth *bool    `query:"global_month"`
	Apparent    *bool    `query:"apparent"`
	LargeHour   *bool    `query:"large_hour"`
}

// calendarRequest is a validated calendarQuery with defaults applied.
type calendarRequest struct {
	At  time.Time
	TZ  *time.Location
	Loc *calendar.GeoLocation
	Cfg calendar.Config

	// Now is set when At came from the server clock.
	Now bool
}

// key identifies the request for caching.
func (c calendarRequest) key(prefix string) string {
	loc := "-"
	if c.Loc != nil {
		loc = fmt.Sprintf("%.6f,%.6f", c.Loc.Latitude, c.Loc.Longitude)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%t|%t|%t", prefix,
		c.At.UTC().Format(time.RFC3339Nano), c.TZ, loc,
		c.Cfg.GlobalMonth, c.Cfg.ApparentTime, c.Cfg.LargeHour)
}

func parseCalendarQuery(values url.Values) (calendarQuery, error) {
	q := calendarQuery{
		At: values.Get("at"),
		TZ: values.Get("tz"),
	}
	var err error
	if q.Lat, err = optionalFloat(values, "lat"); err != nil {
		return q, err
	}
	if q.Lon, err = optionalFloat(values, "lon"); err != nil {
		return q, err
	}
	if q.GlobalMonth, err = optionalBool(values, "global_month"); err != nil {
		return q, err
	}
	if q.Apparent, err = optionalBool(values, "apparent"); err != nil {
		return q, err
	}
	if q.LargeHour, err = optionalBool(values, "large_hour"); err != nil {
		return q, err
	}
	if err := validate.Struct(q); err != nil {
		return q, errors.New(validationMessage(err))
	}
	if (q.Lat == nil) != (q.Lon == nil) {
		return q, errors.New("lat and lon must be given together")
	}
	return q, nil
}

// resolve applies the server defaults from cfg. now is used when at is
// absent.
func (q calendarQuery) resolve(cfg *config.Config, now time.Time) (calendarRequest, error) {
	req := calendarRequest{
		At:  now,
		TZ:  cfg.TimeZone(),
		Loc: cfg.GeoLocation(),
		Cfg: cfg.Calendar(),
		Now: q.At == "",
	}
	if !req.Now {
		at, err := time.Parse(time.RFC3339, q.At)
		if err != nil {
			return req, fmt.Errorf("at: %w", err)
		}
		req.At = at
	}
	if q.TZ != "" {
		tz, err := time.LoadLocation(q.TZ)
		if err != nil {
			return req, fmt.Errorf("tz: %w", err)
		}
		req.TZ = tz
	}
	if q.Lat != nil {
		req.Loc = &calendar.GeoLocation{Latitude: *q.Lat, Longitude: *q.Lon}
	}
	if q.GlobalMonth != nil {
		req.Cfg.GlobalMonth = *q.GlobalMonth
	}
	if q.Apparent != nil {
		req.Cfg.ApparentTime = *q.Apparent
	}
	if q.LargeHour != nil {
		req.Cfg.LargeHour = *q.LargeHour
	}
	return req, nil
}

// =============================================================================
// Endpoint-specific queries
// =============================================================================

// findNextQuery selects the lunisolar date to search for.
type findNextQuery struct {
	Month int  `query:"month" validate:"required,min=1,max=12"`
	Day   int  `query:"day" validate:"required,min=1,max=30"`
	Leap  bool `query:"leap"`
}

func parseFindNextQuery(values url.Values) (findNextQuery, error) {
	var q findNextQuery
	var err error
	if q.Month, err = intParam(values, "month", 0); err != nil {
		return q, err
	}
	if q.Day, err = intParam(values, "day", 0); err != nil {
		return q, err
	}
	if leap, err := optionalBool(values, "leap"); err != nil {
		return q, err
	} else if leap != nil {
		q.Leap = *leap
	}
	if err := validate.Struct(q); err != nil {
		return q, errors.New(validationMessage(err))
	}
	return q, nil
}

// timelineQuery sizes a timeline.
type timelineQuery struct {
	Count int           `query:"count" validate:"min=1,max=100"`
	Step  time.Duration `query:"step" validate:"min=1m,max=8760h"`
}

func parseTimelineQuery(values url.Values) (timelineQuery, error) {
	q := timelineQuery{Count: 24, Step: time.Hour}
	var err error
	if q.Count, err = intParam(values, "count", q.Count); err != nil {
		return q, err
	}
	if s := values.Get("step"); s != "" {
		if q.Step, err = time.ParseDuration(s); err != nil {
			return q, fmt.Errorf("step: %w", err)
		}
	}
	if err := validate.Struct(q); err != nil {
		return q, errors.New(validationMessage(err))
	}
	return q, nil
}

// =============================================================================
// Helpers
// =============================================================================

func optionalFloat(values url.Values, key string) (*float64, error) {
	s := values.Get(key)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: not a number: %q", key, s)
	}
	return &f, nil
}

func optionalBool(values url.Values, key string) (*bool, error) {
	s := values.Get(key)
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("%s: not a boolean: %q", key, s)
	}
	return &b, nil
}

func intParam(values url.Values, key string, def int) (int, error) {
	s := values.Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: not an integer: %q", key, s)
	}
	return n, nil
}
