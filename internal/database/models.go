package database

import (
	"time"

	"github.com/zapponejosh/lunarcal/internal/calendar"
)

// AlmanacYear is a cached solar-term year.
type AlmanacYear struct {
	Year         int                  `json:"year"`
	ModelVersion string               `json:"model_version"`
	LeapMonth    int                  `json:"leap_month,omitempty"` // 0 when the year has none
	Terms        []calendar.NamedDate `json:"terms"`
	ComputedAt   time.Time            `json:"computed_at"`
}

// HolidayRule is a stored custom holiday.
type HolidayRule struct {
	ID string `json:"id"`
	calendar.HolidayRule
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
