// Package main is the entry point for the lunisolar calendar API server.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
// When PREWARM_CRON is set, the almanac cache is refilled on that schedule.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/zapponejosh/lunarcal/internal/almanac"
	"github.com/zapponejosh/lunarcal/internal/api"
	"github.com/zapponejosh/lunarcal/internal/config"
	"github.com/zapponejosh/lunarcal/internal/database"
	"github.com/zapponejosh/lunarcal/internal/logger"
)

// prewarmBehind and prewarmAhead size the prewarmed window around the
// current year.
const (
	prewarmBehind = 1
	prewarmAhead  = 10
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Setup structured logging
	log := logger.Setup(cfg)

	if err := run(cfg, log); err != nil {
		log.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	log.Info("starting lunarcal API",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
		slog.String("log_level", cfg.LogLevel),
		slog.String("default_timezone", cfg.DefaultTimezone),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// Database
	// =========================================================================
	db, err := database.Open(database.DefaultConfig(cfg.DatabasePath), log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	applied, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("migrations complete", slog.Int("applied", applied))

	// =========================================================================
	// HTTP server
	// =========================================================================
	handlers := api.NewHandlers(db, cfg, log)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.SetupRoutes(handlers, cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	// =========================================================================
	// Almanac prewarm
	// =========================================================================
	var scheduler *cron.Cron
	if cfg.PrewarmCron != "" {
		if scheduler, err = newPrewarmScheduler(ctx, cfg, handlers.Almanac(), log); err != nil {
			return err
		}
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("lunarcal API ready", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if scheduler != nil {
		scheduler.Start()
		g.Go(func() error {
			<-gCtx.Done()
			<-scheduler.Stop().Done()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped cleanly")
	return nil
}

// newPrewarmScheduler schedules almanac prewarm runs on cfg.PrewarmCron.
// Runs never overlap; a run still going when the next fires is skipped.
func newPrewarmScheduler(ctx context.Context, cfg *config.Config, svc *almanac.Service, log *slog.Logger) (*cron.Cron, error) {
	c := cron.New(
		cron.WithLocation(cfg.TimeZone()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	_, err := c.AddFunc(cfg.PrewarmCron, func() {
		from, to := prewarmWindow(time.Now().In(cfg.TimeZone()).Year())
		if _, err := svc.Prewarm(ctx, from, to); err != nil {
			log.Error("almanac prewarm failed",
				slog.Int("from", from),
				slog.Int("to", to),
				slog.Any("error", err),
			)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule prewarm %q: %w", cfg.PrewarmCron, err)
	}
	log.Info("almanac prewarm scheduled", slog.String("cron", cfg.PrewarmCron))
	return c, nil
}

// prewarmWindow returns the years to prewarm around year, clamped to the
// supported range.
func prewarmWindow(year int) (int, int) {
	from := max(year-prewarmBehind, almanac.FirstYear)
	to := min(year+prewarmAhead, almanac.LastYear)
	return from, to
}
