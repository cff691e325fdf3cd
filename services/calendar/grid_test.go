package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arctech/models"
)

func TestComputeMonthGridShape(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	for _, ws := range []time.Weekday{time.Sunday, time.Monday} {
		for year := 2023; year <= 2025; year++ {
			for m := time.January; m <= time.December; m++ {
				anchor := time.Date(year, m, 17, 12, 0, 0, 0, time.UTC)
				cells := ComputeMonthGrid(anchor, nil, time.Time{}, GridOptions{WeekStart: ws, Now: now})
				require.Len(t, cells, GridCells)

				first := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
				assert.Equal(t, ws, cells[0].Date.Weekday(), "%s %d", m, year)
				assert.False(t, cells[0].Date.After(first), "%s %d", m, year)
				assert.True(t, first.Sub(cells[0].Date) < 7*24*time.Hour, "%s %d", m, year)

				inMonth := 0
				for i, c := range cells {
					if c.InCurrentMonth {
						inMonth++
					}
					if i > 0 {
						assert.Equal(t, cells[i-1].Date.AddDate(0, 0, 1), c.Date)
					}
				}
				assert.Equal(t, first.AddDate(0, 1, -1).Day(), inMonth)
			}
		}
	}
}

func TestComputeMonthGridMarks(t *testing.T) {
	events := []models.Appointment{
		{ID: "a", Title: "A", Date: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)},
		{ID: "b", Title: "B", Date: time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)},
		{ID: "c", Title: "C", Date: time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)},
	}
	anchor := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	selected := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 20, 18, 0, 0, 0, time.UTC)

	cells := ComputeMonthGrid(anchor, events, selected, GridOptions{WeekStart: time.Sunday, Now: now})

	// March 2024 begins on a Friday, so the grid starts on Sunday Feb 25.
	assert.Equal(t, time.Date(2024, 2, 25, 0, 0, 0, 0, time.UTC), cells[0].Date)
	assert.False(t, cells[0].InCurrentMonth)

	byDay := map[string]models.CalendarCell{}
	for _, c := range cells {
		byDay[c.Date.Format("2006-01-02")] = c
	}
	assert.True(t, byDay["2024-03-05"].HasEvents)
	assert.True(t, byDay["2024-03-05"].IsSelected)
	assert.True(t, byDay["2024-04-01"].HasEvents)
	assert.False(t, byDay["2024-04-01"].InCurrentMonth)
	assert.False(t, byDay["2024-03-06"].HasEvents)
	assert.True(t, byDay["2024-03-20"].IsToday)

	today, selectedCount := 0, 0
	for _, c := range cells {
		if c.IsToday {
			today++
		}
		if c.IsSelected {
			selectedCount++
		}
	}
	assert.Equal(t, 1, today)
	assert.Equal(t, 1, selectedCount)
}

func TestComputeMonthGridUsesAnchorLocation(t *testing.T) {
	manila := time.FixedZone("PHT", 8*3600)
	// 2024-03-31T20:00Z is April 1st in Manila.
	events := []models.Appointment{{ID: "x", Date: time.Date(2024, 3, 31, 20, 0, 0, 0, time.UTC)}}
	anchor := time.Date(2024, 4, 10, 0, 0, 0, 0, manila)

	cells := ComputeMonthGrid(anchor, events, time.Time{}, GridOptions{WeekStart: time.Monday, Now: anchor})
	for _, c := range cells {
		want := c.Date.Month() == time.April && c.Date.Day() == 1
		assert.Equal(t, want, c.HasEvents, c.Date.String())
	}
}

func TestComputeMonthGridMonthStartingOnWeekStart(t *testing.T) {
	// September 2024 starts on a Sunday: no leading days.
	anchor := time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)
	cells := ComputeMonthGrid(anchor, nil, time.Time{}, GridOptions{WeekStart: time.Sunday})
	assert.Equal(t, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), cells[0].Date)
	assert.True(t, cells[0].InCurrentMonth)
}
