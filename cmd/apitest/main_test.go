package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zapponejosh/lunarcal/internal/api"
	"github.com/zapponejosh/lunarcal/internal/config"
	"github.com/zapponejosh/lunarcal/internal/database"
)

// newServer starts the real router over an in-memory database.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := database.Open(database.Config{Path: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1, ConnMaxLifetime: time.Hour}, logger)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		Env:              config.EnvDevelopment,
		DefaultTimezone:  "Asia/Shanghai",
		SnapshotCacheTTL: time.Minute,
	}
	srv := httptest.NewServer(api.SetupRoutes(api.NewHandlers(db, cfg, logger), cfg, logger))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunner_AgainstServer(t *testing.T) {
	srv := newServer(t)

	var out bytes.Buffer
	runner := NewTestRunner(srv.URL+"/", true)
	runner.out = &out
	runner.Run()

	if runner.errorCount != 0 {
		t.Fatalf("%d checks failed:\n%s", runner.errorCount, strings.Join(runner.errors, "\n"))
	}
	if runner.successCount == 0 {
		t.Fatal("no checks ran")
	}
	if !strings.Contains(out.String(), "All tests passed") {
		t.Errorf("summary missing from output:\n%s", out.String())
	}
}

func TestRunner_Unreachable(t *testing.T) {
	srv := newServer(t)
	url := srv.URL
	srv.Close()

	runner := NewTestRunner(url, false)
	runner.out = io.Discard
	runner.client.Timeout = time.Second
	runner.Run()

	if runner.errorCount == 0 {
		t.Error("expected failures against a closed server")
	}
}
