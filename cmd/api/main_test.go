package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/zapponejosh/lunarcal/internal/almanac"
	"github.com/zapponejosh/lunarcal/internal/config"
)

func TestPrewarmWindow(t *testing.T) {
	tests := []struct {
		year     int
		from, to int
	}{
		{2025, 2024, 2035},
		{almanac.FirstYear, almanac.FirstYear, almanac.FirstYear + prewarmAhead},
		{almanac.LastYear - 2, almanac.LastYear - 3, almanac.LastYear},
	}
	for _, tt := range tests {
		from, to := prewarmWindow(tt.year)
		if from != tt.from || to != tt.to {
			t.Errorf("prewarmWindow(%d) = %d..%d, want %d..%d", tt.year, from, to, tt.from, tt.to)
		}
	}
}

func TestNewPrewarmScheduler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := almanac.NewService(nil, log)

	cfg := &config.Config{DefaultTimezone: "Asia/Shanghai", PrewarmCron: "0 3 * * *"}
	c, err := newPrewarmScheduler(context.Background(), cfg, svc, log)
	if err != nil {
		t.Fatalf("newPrewarmScheduler() error = %v", err)
	}
	if n := len(c.Entries()); n != 1 {
		t.Errorf("len(Entries()) = %d, want 1", n)
	}

	cfg.PrewarmCron = "every full moon"
	if _, err := newPrewarmScheduler(context.Background(), cfg, svc, log); err == nil {
		t.Error("expected error for an invalid schedule")
	}
}
