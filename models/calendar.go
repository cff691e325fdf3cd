package models

import "time"

// ViewMode controls which subset of appointments is visible.
type ViewMode string

const (
	ViewMonth ViewMode = "month"
	ViewDay   ViewMode = "day"
)

// CalendarCell is one of the 42 positions of a month grid.
type CalendarCell struct {
	Date           time.Time `json:"date"`
	InCurrentMonth bool      `json:"inCurrentMonth"`
	IsToday        bool      `json:"isToday"`
	IsSelected     bool      `json:"isSelected"`
	HasEvents      bool      `json:"hasEvents"`
}
