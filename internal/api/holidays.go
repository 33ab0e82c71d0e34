package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/lunarcal/internal/calendar"
	"github.com/zapponejosh/lunarcal/internal/database"
)

// holidayView is a rule as listed by the API. Built-in rules have no ID.
type holidayView struct {
	ID      string `json:"id,omitempty"`
	BuiltIn bool   `json:"built_in"`
	calendar.HolidayRule
}

// ListHolidays handles GET /api/v1/holidays
func (h *Handlers) ListHolidays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stored, err := h.db.ListHolidayRules(ctx)
	if err != nil {
		h.logger.Error("failed to list holiday rules", slog.Any("error", err))
		WriteInternalError(w, "Failed to list holiday rules")
		return
	}

	views := make([]holidayView, 0, len(calendar.DefaultHolidays)+len(stored))
	for _, rule := range calendar.DefaultHolidays {
		views = append(views, holidayView{BuiltIn: true, HolidayRule: rule})
	}
	for _, rule := range stored {
		views = append(views, holidayView{ID: rule.ID, HolidayRule: rule.HolidayRule})
	}

	WriteSuccess(w, map[string]any{
		"holidays": views,
		"count":    len(views),
	})
}

// CreateHoliday handles POST /api/v1/holidays
func (h *Handlers) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var rule calendar.HolidayRule
	if err := decodeJSON(r, &rule); err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := validate.Struct(rule); err != nil {
		WriteBadRequest(w, validationMessage(err))
		return
	}
	if err := rule.Validate(); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	for _, builtin := range calendar.DefaultHolidays {
		if builtin.Name == rule.Name {
			WriteError(w, http.StatusConflict, fmt.Sprintf("%q is a built-in holiday", rule.Name), CodeDuplicate)
			return
		}
	}

	stored := &database.HolidayRule{HolidayRule: rule}
	if err := h.db.CreateHolidayRule(ctx, stored); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			WriteError(w, http.StatusConflict, fmt.Sprintf("Holiday %q already exists", rule.Name), CodeDuplicate)
			return
		}
		h.logger.Error("failed to create holiday rule", slog.Any("error", err))
		WriteInternalError(w, "Failed to create holiday rule")
		return
	}
	h.invalidateHolidays()

	h.logger.Info("holiday rule created",
		slog.String("id", stored.ID),
		slog.String("name", stored.Name),
	)
	WriteCreated(w, stored)
}

// DeleteHoliday handles DELETE /api/v1/holidays/{id}
func (h *Handlers) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if err := h.db.DeleteHolidayRule(ctx, id); err != nil {
		if database.IsNotFound(err) {
			WriteNotFound(w, "Holiday rule not found")
			return
		}
		h.logger.Error("failed to delete holiday rule", slog.Any("error", err))
		WriteInternalError(w, "Failed to delete holiday rule")
		return
	}
	h.invalidateHolidays()

	WriteSuccess(w, map[string]string{"message": "Holiday rule deleted"})
}
