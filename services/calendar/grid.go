package calendar

import (
	"time"

	"arctech/models"
	"arctech/utils"
)

// GridCells is the fixed size of a month grid: six full weeks.
const GridCells = 42

// GridOptions tunes grid computation.
type GridOptions struct {
	// WeekStart is the weekday of the first column.
	WeekStart time.Weekday
	// Now marks the IsToday cell; time.Now() when zero.
	Now time.Time
}

// ComputeMonthGrid lays out the month containing anchor as 42 consecutive
// days, beginning on the most recent WeekStart on or before the 1st. Cells
// are computed in anchor's location.
func ComputeMonthGrid(anchor time.Time, events []models.Appointment, selected time.Time, opts GridOptions) []models.CalendarCell {
	loc := anchor.Location()
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.In(loc)
	if !selected.IsZero() {
		selected = selected.In(loc)
	}

	first := utils.StartOfMonth(anchor)
	lead := (int(first.Weekday()) - int(opts.WeekStart) + 7) % 7
	start := first.AddDate(0, 0, -lead)

	busy := make(map[dayKey]bool, len(events))
	for _, ev := range events {
		if ev.Date.IsZero() {
			continue
		}
		busy[keyOf(ev.Date.In(loc))] = true
	}

	cells := make([]models.CalendarCell, GridCells)
	for i := range cells {
		// time.Date normalizes overflowing days and keeps midnight across DST shifts.
		day := time.Date(start.Year(), start.Month(), start.Day()+i, 0, 0, 0, 0, loc)
		cells[i] = models.CalendarCell{
			Date:           day,
			InCurrentMonth: day.Month() == first.Month() && day.Year() == first.Year(),
			IsToday:        utils.IsSameDay(day, now),
			IsSelected:     utils.IsSameDay(day, selected),
			HasEvents:      busy[keyOf(day)],
		}
	}
	return cells
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dayKey {
	y, m, d := t.Date()
	return dayKey{y, m, d}
}
