package database

// migration is one schema step. Versions start at 1 and have no gaps.
type migration struct {
	version int
	name    string
	sql     string
}

// migrations are applied in slice order.
var migrations = []migration{
	{1, "almanac", migrationV1Almanac},
	{2, "holiday_rules", migrationV2HolidayRules},
}

// SchemaVersion is the version a fully migrated database reports.
var SchemaVersion = migrations[len(migrations)-1].version

// migrationV1Almanac creates the almanac cache.
//
// A cached year is only valid for the astronomical model that produced it;
// rows carry the model version and readers ignore rows from other versions.
const migrationV1Almanac = `
-- ============================================================================
-- Table: almanac_years
-- ============================================================================
-- One row per solar-term year (winter solstice to winter solstice).
-- ============================================================================
CREATE TABLE IF NOT EXISTS almanac_years (
    year INTEGER PRIMARY KEY,

    -- astro.ModelVersion at computation time
    model_version TEXT NOT NULL,

    -- Leap month number of the sui, 0 when there is none
    leap_month INTEGER NOT NULL DEFAULT 0 CHECK (leap_month BETWEEN 0 AND 12),

    computed_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- ============================================================================
-- Table: solar_terms
-- ============================================================================
-- The 25 terms of a year. idx 0 is the opening winter solstice and idx 24 the
-- closing one.
-- ============================================================================
CREATE TABLE IF NOT EXISTS solar_terms (
    year INTEGER NOT NULL,
    idx INTEGER NOT NULL CHECK (idx BETWEEN 0 AND 24),
    name TEXT NOT NULL,

    -- UTC instant, RFC 3339 with nanoseconds
    instant TEXT NOT NULL,

    PRIMARY KEY (year, idx),
    FOREIGN KEY (year) REFERENCES almanac_years(year) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_solar_terms_instant
    ON solar_terms(instant);
`

// migrationV2HolidayRules stores holiday rules added on top of the built-in
// table. Columns mirror calendar.HolidayRule.
const migrationV2HolidayRules = `
CREATE TABLE IF NOT EXISTS holiday_rules (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,

    kind TEXT NOT NULL CHECK (kind IN ('lunar', 'solar_term', 'floating')),
    month INTEGER NOT NULL DEFAULT 0,
    day INTEGER NOT NULL DEFAULT 0,
    term TEXT NOT NULL DEFAULT '',
    anchor TEXT NOT NULL DEFAULT '',
    offset_days INTEGER NOT NULL DEFAULT 0,

    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`
