// Package almanac serves solar-term years from the SQLite cache, computing
// and storing them on a miss.
//
// Cached leap months are those of the UTC+8 reference zone; callers that
// need another zone's months build them with calendar.BuildYear.
package almanac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/zapponejosh/lunarcal/internal/astro"
	"github.com/zapponejosh/lunarcal/internal/calendar"
	"github.com/zapponejosh/lunarcal/internal/database"
)

// Year bounds served by the almanac.
var (
	FirstYear = calendar.MinSupported.Year()
	LastYear  = calendar.MaxSupported.Year()
)

// ErrYearOutOfRange is returned for years outside [FirstYear, LastYear].
var ErrYearOutOfRange = errors.New("year out of range")

// Store is the persistence the service needs.
type Store interface {
	GetAlmanacYear(ctx context.Context, year int, modelVersion string) (*database.AlmanacYear, error)
	SaveAlmanacYear(ctx context.Context, y *database.AlmanacYear) error
	DeleteStaleAlmanac(ctx context.Context, modelVersion string) (int64, error)
}

// Service computes and caches almanac years.
type Service struct {
	store  Store
	logger *slog.Logger

	// computing serialises work per year so concurrent misses compute once.
	mu        sync.Mutex
	computing map[int]*sync.Mutex
}

// NewService creates a service over store. store may be nil, in which case
// every call computes.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		logger:    logger,
		computing: make(map[int]*sync.Mutex),
	}
}

// CheckYear reports whether year is served.
func CheckYear(year int) error {
	if year < FirstYear || year > LastYear {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrYearOutOfRange, year, FirstYear, LastYear)
	}
	return nil
}

// Compute builds the almanac year without touching the store.
func Compute(year int) *database.AlmanacYear {
	y := &database.AlmanacYear{
		Year:         year,
		ModelVersion: astro.ModelVersion,
		Terms:        calendar.SolarTerms(year),
	}
	// Error only on an invalid location; there is none here.
	built, _ := calendar.BuildYear(year, calendar.Config{GlobalMonth: true}, calendar.ReferenceZone, nil)
	if leap, ok := built.LeapMonth(); ok {
		y.LeapMonth = leap
	}
	return y
}

// Year returns the almanac year, from the cache when possible. cached
// reports whether the store answered.
func (s *Service) Year(ctx context.Context, year int) (y *database.AlmanacYear, cached bool, err error) {
	if err := CheckYear(year); err != nil {
		return nil, false, err
	}
	if s.store == nil {
		return Compute(year), false, nil
	}

	lock := s.yearLock(year)
	lock.Lock()
	defer lock.Unlock()

	y, err = s.store.GetAlmanacYear(ctx, year, astro.ModelVersion)
	switch {
	case err == nil:
		return y, true, nil
	case !database.IsNotFound(err):
		return nil, false, fmt.Errorf("load almanac year %d: %w", year, err)
	}

	y = Compute(year)
	if err := s.store.SaveAlmanacYear(ctx, y); err != nil {
		// The computed year is still correct; only the cache write failed.
		s.logger.Warn("almanac cache write failed",
			slog.Int("year", year),
			slog.Any("error", err),
		)
	}
	return y, false, nil
}

func (s *Service) yearLock(year int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.computing[year]
	if !ok {
		l = &sync.Mutex{}
		s.computing[year] = l
	}
	return l
}

// PrewarmResult summarises a Prewarm run.
type PrewarmResult struct {
	Computed int
	Cached   int
	Purged   int64
}

// Prewarm fills the cache for years [from, to], purging rows written by
// other model versions first.
func (s *Service) Prewarm(ctx context.Context, from, to int) (PrewarmResult, error) {
	var res PrewarmResult
	if err := CheckYear(from); err != nil {
		return res, err
	}
	if err := CheckYear(to); err != nil {
		return res, err
	}
	if s.store == nil {
		return res, errors.New("prewarm: no store configured")
	}

	purged, err := s.store.DeleteStaleAlmanac(ctx, astro.ModelVersion)
	if err != nil {
		return res, fmt.Errorf("prewarm: %w", err)
	}
	res.Purged = purged

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for year := from; year <= to; year++ {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			_, cached, err := s.Year(gCtx, year)
			if err != nil {
				return err
			}
			mu.Lock()
			if cached {
				res.Cached++
			} else {
				res.Computed++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, fmt.Errorf("prewarm: %w", err)
	}

	s.logger.Info("almanac prewarmed",
		slog.Int("from", from),
		slog.Int("to", to),
		slog.Int("computed", res.Computed),
		slog.Int("cached", res.Cached),
		slog.Int64("purged", res.Purged),
	)
	return res, nil
}
