// Command import loads custom holiday rules from a YAML file into the
// SQLite database.
//
// Usage:
//
//	go run ./cmd/import -yaml data/holidays.yaml -db data/lunarcal.db
//
// The file lists rules under a top-level "holidays" key:
//
//	holidays:
//	  - name: Flower Festival
//	    kind: lunar
//	    month: 2
//	    day: 12
//	  - name: Grain Rain Tea Day
//	    kind: solar_term
//	    term: grain_rain
//
// Rules are matched by name: existing rules are updated in place, new ones
// are inserted. Names of built-in holidays are rejected. Running the import
// twice is safe.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/zapponejosh/lunarcal/internal/calendar"
	"github.com/zapponejosh/lunarcal/internal/database"
)

// holidayFile is the YAML document layout.
type holidayFile struct {
	Holidays []calendar.HolidayRule `yaml:"holidays"`
}

func main() {
	// Parse command line flags
	yamlPath := flag.String("yaml", "data/holidays.yaml", "Path to holiday rules YAML file")
	dbPath := flag.String("db", "data/lunarcal.db", "Path to SQLite database")
	dryRun := flag.Bool("dry-run", false, "Validate the file without writing")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Setup logger
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// Run import
	if err := run(*yamlPath, *dbPath, *dryRun, logger); err != nil {
		logger.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("import complete")
}

func run(yamlPath, dbPath string, dryRun bool, logger *slog.Logger) error {
	ctx := context.Background()
	startTime := time.Now()

	// =========================================================================
	// Step 1: Read and validate YAML
	// =========================================================================
	logger.Info("reading YAML file", slog.String("path", yamlPath))

	f, err := os.Open(yamlPath)
	if err != nil {
		return fmt.Errorf("open YAML file: %w", err)
	}
	defer f.Close()

	rules, err := loadRules(f)
	if err != nil {
		return err
	}
	logger.Info("parsed YAML", slog.Int("rules", len(rules)))

	if dryRun {
		fmt.Printf("%d rules valid, nothing written\n", len(rules))
		return nil
	}

	// =========================================================================
	// Step 2: Open database and run migrations
	// =========================================================================
	logger.Info("opening database", slog.String("path", dbPath))

	db, err := database.Open(database.DefaultConfig(dbPath), logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	migrated, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("migrations complete", slog.Int("applied", migrated))

	// =========================================================================
	// Step 3: Upsert rules
	// =========================================================================
	stats, err := importRules(ctx, db, rules, logger)
	if err != nil {
		return err
	}

	elapsed := time.Since(startTime)

	// Print summary
	fmt.Println()
	fmt.Println("=== Import Summary ===")
	fmt.Printf("Rules created:       %d\n", stats.Created)
	fmt.Printf("Rules updated:       %d\n", stats.Updated)
	fmt.Printf("Time elapsed:        %v\n", elapsed.Round(time.Millisecond))

	return nil
}

// ImportStats tracks import statistics.
type ImportStats struct {
	Created int
	Updated int
}

// loadRules decodes and validates a holiday file. Every problem found is
// reported, not just the first.
func loadRules(r io.Reader) ([]calendar.HolidayRule, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc holidayFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("holiday file is empty")
		}
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	builtin := make(map[string]bool, len(calendar.DefaultHolidays))
	for _, rule := range calendar.DefaultHolidays {
		builtin[rule.Name] = true
	}

	var errs []error
	seen := make(map[string]int, len(doc.Holidays))
	for i, rule := range doc.Holidays {
		if err := validate.Struct(rule); err != nil {
			errs = append(errs, fmt.Errorf("holidays[%d]: %w", i, err))
			continue
		}
		if err := rule.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("holidays[%d]: %w", i, err))
			continue
		}
		if builtin[rule.Name] {
			errs = append(errs, fmt.Errorf("holidays[%d]: %q is a built-in holiday", i, rule.Name))
		}
		if j, dup := seen[rule.Name]; dup {
			errs = append(errs, fmt.Errorf("holidays[%d]: %q already defined at holidays[%d]", i, rule.Name, j))
		}
		seen[rule.Name] = i
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return doc.Holidays, nil
}

// importRules upserts rules by name.
func importRules(ctx context.Context, db *database.DB, rules []calendar.HolidayRule, logger *slog.Logger) (ImportStats, error) {
	var stats ImportStats
	for _, rule := range rules {
		stored := &database.HolidayRule{HolidayRule: rule}
		created, err := db.UpsertHolidayRule(ctx, stored)
		if err != nil {
			return stats, err
		}
		if created {
			stats.Created++
		} else {
			stats.Updated++
		}
		logger.Debug("holiday rule imported",
			slog.String("id", stored.ID),
			slog.String("name", stored.Name),
			slog.Bool("created", created),
		)
	}
	return stats, nil
}

// validate reports field errors under their YAML key names.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
	})
	return v
}()
