package calendar

import (
	"strings"
	"time"

	"arctech/models"
	"arctech/utils"
)

// Filter returns the appointments visible for selected under mode, keeping
// the input order. Dates are compared in selected's location.
func Filter(events []models.Appointment, selected time.Time, mode models.ViewMode) []models.Appointment {
	var match func(time.Time, time.Time) bool
	switch mode {
	case models.ViewMonth:
		match = utils.IsSameMonth
	case models.ViewDay:
		match = utils.IsSameDay
	default:
		return []models.Appointment{}
	}

	loc := selected.Location()
	out := make([]models.Appointment, 0, len(events))
	for _, ev := range events {
		if match(ev.Date.In(loc), selected) {
			out = append(out, ev)
		}
	}
	return out
}

// ParseViewMode maps "month"/"day" (any case) to a mode.
func ParseViewMode(s string) (models.ViewMode, bool) {
	switch models.ViewMode(strings.ToLower(strings.TrimSpace(s))) {
	case models.ViewMonth:
		return models.ViewMonth, true
	case models.ViewDay:
		return models.ViewDay, true
	}
	return "", false
}
