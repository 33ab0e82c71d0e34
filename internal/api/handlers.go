package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/patrickmn/go-cache"

	"github.com/zapponejosh/lunarcal/internal/almanac"
	"github.com/zapponejosh/lunarcal/internal/astro"
	"github.com/zapponejosh/lunarcal/internal/calendar"
	"github.com/zapponejosh/lunarcal/internal/config"
	"github.com/zapponejosh/lunarcal/internal/database"
	"github.com/zapponejosh/lunarcal/internal/logger"
	"github.com/zapponejosh/lunarcal/internal/snapshot"
)

// holidayKey is the cache key of the merged holiday table.
const holidayKey = "holidays"

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	db      *database.DB
	almanac *almanac.Service
	cfg     *config.Config
	logger  *slog.Logger

	// cache holds snapshot states and the merged holiday table.
	cache    *cache.Cache
	cacheTTL time.Duration
	now      func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *database.DB, cfg *config.Config, log *slog.Logger) *Handlers {
	return &Handlers{
		db:       db,
		almanac:  almanac.NewService(db, log),
		cfg:      cfg,
		logger:   log,
		cache:    cache.New(cache.NoExpiration, 10*time.Minute),
		cacheTTL: cfg.SnapshotCacheTTL,
		now:      time.Now,
	}
}

// Almanac returns the almanac service backing the solar-term endpoints.
func (h *Handlers) Almanac() *almanac.Service {
	return h.almanac
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	store, err := h.db.Status(ctx)
	if err != nil {
		h.logger.Warn("health check failed", slog.Any("error", err))
		WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
		return
	}

	WriteSuccess(w, map[string]any{
		"status":         "healthy",
		"model_version":  astro.ModelVersion,
		"supported_from": calendar.MinSupported,
		"supported_to":   calendar.MaxSupported,
		"store":          store,
		"cached_items":   h.cache.ItemCount(),
	})
}

// =============================================================================
// Snapshot
// =============================================================================

// GetSnapshot handles GET /api/v1/snapshot
func (h *Handlers) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := h.calendarRequest(w, r)
	if !ok {
		return
	}

	// Requests for the current instant share one state per TTL window.
	if req.Now && h.cacheTTL > 0 {
		req.At = req.At.Truncate(h.cacheTTL)
	}

	key := req.key("snapshot")
	if cached, found := h.cache.Get(key); found {
		logger.Debug(ctx, "snapshot cache hit", slog.String("key", key))
		WriteSuccess(w, cached)
		return
	}

	snap, err := h.snapshot(ctx, req)
	if err != nil {
		h.writeCalendarError(w, r, "build snapshot", err)
		return
	}

	state := snap.State()
	if h.cacheTTL > 0 {
		h.cache.Set(key, state, h.cacheTTL)
	}
	WriteSuccess(w, state)
}

// =============================================================================
// Date
// =============================================================================

// dateResponse describes one civil day.
type dateResponse struct {
	Day        string                 `json:"day"`
	TimeZone   string                 `json:"timezone"`
	Date       calendar.LunisolarDate `json:"date"`
	Label      string                 `json:"label"`
	Stem       int                    `json:"stem"`
	Branch     int                    `json:"branch"`
	Month      calendar.Month         `json:"month"`
	LeapMonth  int                    `json:"leap_month,omitempty"` // of the solar-term year holding the day
	Holidays   []string               `json:"holidays"`
	SolarTerms []calendar.NamedDate   `json:"solar_terms,omitempty"`
}

// GetDate handles GET /api/v1/date/{date}
func (h *Handlers) GetDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dateStr := chi.URLParam(r, "date")
	d, err := calendar.ParseDay(dateStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid date format: %s. Use YYYY-MM-DD", dateStr))
		return
	}

	req, ok := h.calendarRequest(w, r)
	if !ok {
		return
	}

	resolver, err := calendar.NewDateResolver(req.Cfg, req.TZ, req.Loc)
	if err != nil {
		h.writeCalendarError(w, r, "create resolver", err)
		return
	}
	clock := resolver.DayClock()
	if !calendar.InRange(clock.StartOf(d)) || !calendar.InRange(clock.StartOf(d.AddDays(1)).Add(-time.Nanosecond)) {
		WriteOutOfRange(w, fmt.Sprintf("Date %s is outside the supported range", d))
		return
	}

	done := logger.Timed(ctx, "resolve day", slog.String("day", d.String()))
	info, err := resolver.ResolveDay(d)
	done()
	if err != nil {
		h.writeCalendarError(w, r, "resolve day", err)
		return
	}

	holidays, err := h.holidays(ctx)
	if err != nil {
		h.logger.Error("failed to load holiday rules", slog.Any("error", err))
		WriteInternalError(w, "Failed to load holiday rules")
		return
	}

	resp := dateResponse{
		Day:      d.String(),
		TimeZone: req.TZ.String(),
		Date:     info.Date,
		Label:    info.Date.String(),
		Stem:     info.Date.Stem(),
		Branch:   info.Date.Branch(),
		Month:    info.Month,
		Holidays: emptyIfNil(holidays.Holidays(info)),
	}
	if leap, ok := resolver.Year(calendar.SolarTermYear(clock.StartOf(d))).LeapMonth(); ok {
		resp.LeapMonth = leap
	}
	for _, t := range info.Terms {
		if clock.DayOf(t.Date) == d {
			resp.SolarTerms = append(resp.SolarTerms, calendar.NamedDate{Name: t.Name, Date: t.Date.In(req.TZ)})
		}
	}

	WriteSuccess(w, resp)
}

// =============================================================================
// Solar terms
// =============================================================================

// solarTermsResponse is one solar-term year.
type solarTermsResponse struct {
	Year      int                  `json:"year"`
	LeapMonth int                  `json:"leap_month,omitempty"`
	Terms     []calendar.NamedDate `json:"terms"`
	Cached    bool                 `json:"cached"`
}

// GetSolarTerms handles GET /api/v1/solar-terms/{year}
func (h *Handlers) GetSolarTerms(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	yearStr := chi.URLParam(r, "year")
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid year: %s", yearStr))
		return
	}

	tz := h.cfg.TimeZone()
	if s := r.URL.Query().Get("tz"); s != "" {
		if tz, err = time.LoadLocation(s); err != nil {
			WriteBadRequest(w, fmt.Sprintf("Unknown time zone: %s", s))
			return
		}
	}

	done := logger.Timed(ctx, "almanac year", slog.Int("year", year))
	y, cached, err := h.almanac.Year(ctx, year)
	done()
	if err != nil {
		h.writeCalendarError(w, r, "almanac year", err)
		return
	}

	resp := solarTermsResponse{Year: y.Year, LeapMonth: y.LeapMonth, Cached: cached}
	for _, t := range y.Terms {
		resp.Terms = append(resp.Terms, calendar.NamedDate{Name: t.Name, Date: t.Date.In(tz)})
	}
	WriteSuccess(w, resp)
}

// =============================================================================
// Find next / timeline
// =============================================================================

// GetFindNext handles GET /api/v1/find-next
func (h *Handlers) GetFindNext(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	target, err := parseFindNextQuery(r.URL.Query())
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	req, ok := h.calendarRequest(w, r)
	if !ok {
		return
	}

	snap, err := h.snapshot(ctx, req)
	if err != nil {
		h.writeCalendarError(w, r, "build snapshot", err)
		return
	}

	want := calendar.LunisolarDate{Month: target.Month, IsLeapMonth: target.Leap, Day: target.Day}
	done := logger.Timed(ctx, "find next", slog.String("target", want.String()))
	at, found := snap.FindNext(want)
	done()
	if !found {
		WriteNotFound(w, fmt.Sprintf("No day %d of %smonth %d before %s",
			target.Day, leapLabel(target.Leap), target.Month, calendar.MaxSupported.Format("2006-01-02")))
		return
	}

	WriteSuccess(w, map[string]any{
		"from":  snap.Instant().In(req.TZ),
		"start": at.In(req.TZ),
		"day":   calendar.DayFromTime(at.In(req.TZ)).String(),
	})
}

// timelineEntry is one step of a timeline.
type timelineEntry struct {
	Instant  time.Time              `json:"instant"`
	Day      string                 `json:"day"`
	Date     calendar.LunisolarDate `json:"date"`
	Label    string                 `json:"label"`
	Holidays []string               `json:"holidays"`
	HourPos  float64                `json:"hour_in_day"`
}

// GetTimeline handles GET /api/v1/timeline
func (h *Handlers) GetTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tq, err := parseTimelineQuery(r.URL.Query())
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	req, ok := h.calendarRequest(w, r)
	if !ok {
		return
	}

	snap, err := h.snapshot(ctx, req)
	if err != nil {
		h.writeCalendarError(w, r, "build snapshot", err)
		return
	}

	done := logger.Timed(ctx, "timeline", slog.Int("count", tq.Count), slog.Duration("step", tq.Step))
	snaps, err := snap.Timeline(ctx, tq.Step, tq.Count)
	done()
	if err != nil {
		h.writeCalendarError(w, r, "timeline", err)
		return
	}

	entries := make([]timelineEntry, len(snaps))
	for i, s := range snaps {
		entries[i] = timelineEntry{
			Instant:  s.Instant().In(req.TZ),
			Day:      s.Day().String(),
			Date:     s.Date(),
			Label:    s.Date().String(),
			Holidays: emptyIfNil(s.Holidays()),
			HourPos:  s.CurrentHourInDay(),
		}
	}
	WriteSuccess(w, map[string]any{
		"step":    tq.Step.String(),
		"entries": entries,
	})
}

// =============================================================================
// Helpers
// =============================================================================

// calendarRequest parses the shared calendar parameters, writing a 400 on
// failure.
func (h *Handlers) calendarRequest(w http.ResponseWriter, r *http.Request) (calendarRequest, bool) {
	q, err := parseCalendarQuery(r.URL.Query())
	if err != nil {
		WriteBadRequest(w, err.Error())
		return calendarRequest{}, false
	}
	req, err := q.resolve(h.cfg, h.now())
	if err != nil {
		WriteBadRequest(w, err.Error())
		return calendarRequest{}, false
	}
	return req, true
}

// snapshot builds a snapshot for req with the merged holiday table.
func (h *Handlers) snapshot(ctx context.Context, req calendarRequest) (*snapshot.Snapshot, error) {
	holidays, err := h.holidays(ctx)
	if err != nil {
		return nil, err
	}
	defer logger.Timed(ctx, "build snapshot", slog.String("tz", req.TZ.String()))()
	return snapshot.New(req.At, req.TZ, req.Loc, req.Cfg, snapshot.WithHolidays(holidays))
}

// holidays returns the built-in holidays merged with the stored rules.
func (h *Handlers) holidays(ctx context.Context) (*calendar.HolidayResolver, error) {
	if cached, ok := h.cache.Get(holidayKey); ok {
		return cached.(*calendar.HolidayResolver), nil
	}
	rules, err := h.db.CalendarRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load holiday rules: %w", err)
	}
	hr := calendar.NewHolidayResolver(rules...)
	h.cache.Set(holidayKey, hr, cache.NoExpiration)
	return hr, nil
}

// invalidateHolidays drops everything derived from the holiday table.
func (h *Handlers) invalidateHolidays() {
	h.cache.Flush()
}

// writeCalendarError maps engine errors to responses.
func (h *Handlers) writeCalendarError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, calendar.ErrOutOfRange), errors.Is(err, almanac.ErrYearOutOfRange):
		WriteOutOfRange(w, err.Error())
	case errors.Is(err, calendar.ErrInvalidLocation):
		WriteBadRequest(w, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Warn(r.Context(), "request cancelled", slog.String("op", op))
		WriteError(w, http.StatusServiceUnavailable, "Request cancelled", "CANCELLED")
	default:
		logger.Error(r.Context(), op+" failed", err)
		WriteInternalError(w, "Calendar computation failed")
	}
}

func leapLabel(leap bool) string {
	if leap {
		return "leap "
	}
	return ""
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// decodeJSON decodes a JSON request body, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("request body is empty")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
