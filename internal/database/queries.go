package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zapponejosh/lunarcal/internal/calendar"
)

// =============================================================================
// Helper Functions
// =============================================================================

// parseTimestamp parses a timestamp from SQLite TEXT format.
// Tries multiple formats and returns nil if parsing fails.
func parseTimestamp(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, ns.String); err == nil {
			return &t
		}
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// =============================================================================
// Almanac Queries
// =============================================================================

// SaveAlmanacYear replaces the cached rows of y.Year.
func (db *DB) SaveAlmanacYear(ctx context.Context, y *AlmanacYear) error {
	if len(y.Terms) != 25 {
		return fmt.Errorf("save almanac year %d: want 25 terms, got %d", y.Year, len(y.Terms))
	}
	if y.ComputedAt.IsZero() {
		y.ComputedAt = time.Now().UTC()
	}

	return db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM almanac_years WHERE year = ?`, y.Year); err != nil {
			return fmt.Errorf("clear almanac year %d: %w", y.Year, err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO almanac_years (year, model_version, leap_month, computed_at)
			VALUES (?, ?, ?, ?)
		`, y.Year, y.ModelVersion, y.LeapMonth, formatTimestamp(y.ComputedAt))
		if err != nil {
			return fmt.Errorf("insert almanac year %d: %w", y.Year, err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO solar_terms (year, idx, name, instant) VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare solar term insert: %w", err)
		}
		defer stmt.Close()

		for i, term := range y.Terms {
			if _, err := stmt.ExecContext(ctx, y.Year, i, term.Name, formatTimestamp(term.Date)); err != nil {
				return fmt.Errorf("insert solar term %d/%d: %w", y.Year, i, err)
			}
		}
		return nil
	})
}

// GetAlmanacYear returns the cached year computed by modelVersion.
// Returns ErrNotFound if the year is missing or was computed by another
// model version.
func (db *DB) GetAlmanacYear(ctx context.Context, year int, modelVersion string) (*AlmanacYear, error) {
	y := AlmanacYear{Year: year}
	var computedAt sql.NullString

	err := db.QueryRowContext(ctx, `
		SELECT model_version, leap_month, computed_at
		FROM almanac_years
		WHERE year = ?
	`, year).Scan(&y.ModelVersion, &y.LeapMonth, &computedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query almanac year %d: %w", year, err)
	}
	if y.ModelVersion != modelVersion {
		return nil, ErrNotFound
	}
	if t := parseTimestamp(computedAt); t != nil {
		y.ComputedAt = *t
	}

	rows, err := db.QueryContext(ctx, `
		SELECT name, instant FROM solar_terms WHERE year = ? ORDER BY idx
	`, year)
	if err != nil {
		return nil, fmt.Errorf("query solar terms %d: %w", year, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var instant sql.NullString
		if err := rows.Scan(&name, &instant); err != nil {
			return nil, fmt.Errorf("scan solar term: %w", err)
		}
		t := parseTimestamp(instant)
		if t == nil {
			return nil, fmt.Errorf("solar term %d %s: bad instant %q", year, name, instant.String)
		}
		y.Terms = append(y.Terms, calendar.NamedDate{Name: name, Date: *t})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate solar terms: %w", err)
	}
	if len(y.Terms) != 25 {
		return nil, ErrNotFound
	}

	return &y, nil
}

// ListAlmanacYears returns the cached years computed by modelVersion.
func (db *DB) ListAlmanacYears(ctx context.Context, modelVersion string) ([]int, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT year FROM almanac_years WHERE model_version = ? ORDER BY year
	`, modelVersion)
	if err != nil {
		return nil, fmt.Errorf("query almanac years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("scan almanac year: %w", err)
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// DeleteStaleAlmanac removes years computed by any other model version and
// returns how many were removed.
func (db *DB) DeleteStaleAlmanac(ctx context.Context, modelVersion string) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM almanac_years WHERE model_version <> ?`, modelVersion)
	if err != nil {
		return 0, fmt.Errorf("delete stale almanac: %w", err)
	}
	return res.RowsAffected()
}

// =============================================================================
// Holiday Rule Queries
// =============================================================================

const holidayColumns = `id, name, kind, month, day, term, anchor, offset_days, created_at, updated_at`

// CreateHolidayRule inserts a new rule and fills in its ID and timestamps.
// Returns ErrDuplicate if a rule with the same name exists.
func (db *DB) CreateHolidayRule(ctx context.Context, r *HolidayRule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	r.ID = uuid.NewString()
	r.CreatedAt, r.UpdatedAt = now, now

	_, err := db.ExecContext(ctx, `
		INSERT INTO holiday_rules (`+holidayColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Name, string(r.Kind), r.Month, r.Day, r.Term, string(r.Anchor), r.Offset,
		formatTimestamp(now), formatTimestamp(now))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("holiday rule %q: %w", r.Name, ErrDuplicate)
		}
		return fmt.Errorf("insert holiday rule: %w", err)
	}
	return nil
}

// UpsertHolidayRule inserts r, or replaces the rule of the same name keeping
// its ID. It reports whether a new row was created.
func (db *DB) UpsertHolidayRule(ctx context.Context, r *HolidayRule) (bool, error) {
	if err := r.Validate(); err != nil {
		return false, err
	}

	created := false
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		existing, err := scanHolidayRule(tx.QueryRowContext(ctx,
			`SELECT `+holidayColumns+` FROM holiday_rules WHERE name = ?`, r.Name))
		now := time.Now().UTC()
		switch {
		case errors.Is(err, ErrNotFound):
			created = true
			r.ID = uuid.NewString()
			r.CreatedAt, r.UpdatedAt = now, now
			_, err = tx.ExecContext(ctx, `
				INSERT INTO holiday_rules (`+holidayColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, r.ID, r.Name, string(r.Kind), r.Month, r.Day, r.Term, string(r.Anchor), r.Offset,
				formatTimestamp(now), formatTimestamp(now))
		case err != nil:
			return err
		default:
			r.ID, r.CreatedAt, r.UpdatedAt = existing.ID, existing.CreatedAt, now
			_, err = tx.ExecContext(ctx, `
				UPDATE holiday_rules
				SET kind = ?, month = ?, day = ?, term = ?, anchor = ?, offset_days = ?, updated_at = ?
				WHERE id = ?
			`, string(r.Kind), r.Month, r.Day, r.Term, string(r.Anchor), r.Offset, formatTimestamp(now), r.ID)
		}
		if err != nil {
			return fmt.Errorf("upsert holiday rule %q: %w", r.Name, err)
		}
		return nil
	})
	return created, err
}

// GetHolidayRule retrieves a rule by ID.
func (db *DB) GetHolidayRule(ctx context.Context, id string) (*HolidayRule, error) {
	return scanHolidayRule(db.QueryRowContext(ctx,
		`SELECT `+holidayColumns+` FROM holiday_rules WHERE id = ?`, id))
}

// ListHolidayRules returns all stored rules ordered by name.
func (db *DB) ListHolidayRules(ctx context.Context) ([]HolidayRule, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+holidayColumns+` FROM holiday_rules ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query holiday rules: %w", err)
	}
	defer rows.Close()

	var rules []HolidayRule
	for rows.Next() {
		r, err := scanHolidayRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holiday rules: %w", err)
	}
	return rules, nil
}

// DeleteHolidayRule removes a rule by ID.
func (db *DB) DeleteHolidayRule(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM holiday_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete holiday rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete holiday rule: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CalendarRules returns the stored rules as calendar rules, ready for
// calendar.NewHolidayResolver.
func (db *DB) CalendarRules(ctx context.Context) ([]calendar.HolidayRule, error) {
	stored, err := db.ListHolidayRules(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]calendar.HolidayRule, len(stored))
	for i, r := range stored {
		out[i] = r.HolidayRule
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHolidayRule(row rowScanner) (*HolidayRule, error) {
	var r HolidayRule
	var kind, anchor string
	var createdAt, updatedAt sql.NullString

	err := row.Scan(&r.ID, &r.Name, &kind, &r.Month, &r.Day, &r.Term, &anchor, &r.Offset, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan holiday rule: %w", err)
	}
	r.Kind = calendar.HolidayKind(kind)
	r.Anchor = calendar.HolidayAnchor(anchor)
	if t := parseTimestamp(createdAt); t != nil {
		r.CreatedAt = *t
	}
	if t := parseTimestamp(updatedAt); t != nil {
		r.UpdatedAt = *t
	}
	return &r, nil
}
