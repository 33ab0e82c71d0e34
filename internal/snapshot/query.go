package snapshot

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zapponejosh/lunarcal/internal/calendar"
)

// FindNext returns the start of the first day strictly after the snapshot's
// instant whose lunisolar month, leap flag and day match target. The year
// of target is ignored. ok is false when no such day exists before
// calendar.MaxSupported.
func (s *Snapshot) FindNext(target calendar.LunisolarDate) (time.Time, bool) {
	d, ok := s.resolver.FindDay(target, s.day.day.AddDays(1))
	if !ok {
		return time.Time{}, false
	}
	return s.resolver.DayClock().StartOf(d), true
}

// NextHours returns the next n instants after the snapshot's instant at
// which the displayed hour unit changes.
func (s *Snapshot) NextHours(n int) []time.Time {
	return s.nextBoundaries(n, func(start, end time.Time) []time.Time {
		span := end.Sub(start)
		var out []time.Time
		for _, f := range hourTicks(s.cfg.LargeHour) {
			out = append(out, division(start, span, int64(f*hoursPerDay+0.5), hoursPerDay))
		}
		return out
	})
}

// NextQuarters returns the next n instants after the snapshot's instant at
// which the displayed ke changes.
func (s *Snapshot) NextQuarters(n int) []time.Time {
	return s.nextBoundaries(n, func(start, end time.Time) []time.Time {
		return keBoundaries(start, end, start, end)
	})
}

// nextBoundaries walks day rings forward from the current day collecting
// the boundaries produced by perDay that lie strictly after the instant.
func (s *Snapshot) nextBoundaries(n int, perDay func(start, end time.Time) []time.Time) []time.Time {
	if n <= 0 {
		return nil
	}
	clock := s.resolver.DayClock()
	out := make([]time.Time, 0, n)
	for d := s.day.day; len(out) < n; d = d.AddDays(1) {
		start := clock.StartOf(d)
		if start.After(calendar.MaxSupported) {
			break
		}
		for _, b := range perDay(start, clock.StartOf(d.AddDays(1))) {
			if b.After(s.instant) && len(out) < n {
				out = append(out, b)
			}
		}
	}
	return out
}

// Timeline returns n snapshots at instant + step, instant + 2·step, and so
// on. Each entry is computed on its own Copy, concurrently.
func (s *Snapshot) Timeline(ctx context.Context, step time.Duration, n int) ([]*Snapshot, error) {
	if n <= 0 {
		return nil, nil
	}
	if step <= 0 {
		return nil, fmt.Errorf("timeline: step must be positive, got %s", step)
	}

	// Copies are taken serially; the originals are never touched by the
	// workers.
	out := make([]*Snapshot, n)
	for i := range out {
		out[i] = s.Copy()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range out {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			at := s.instant.Add(time.Duration(i+1) * step)
			if err := out[i].Update(at, out[i].tz, out[i].loc); err != nil {
				return fmt.Errorf("timeline entry %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
