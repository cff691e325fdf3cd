// File: utils/dates.go
package utils

import (
	"strings"
	"time"

	"arctech/models"
)

// NotAvailable is rendered in place of a date that cannot be displayed.
const NotAvailable = "N/A"

// ISOLayout is the wire format for appointment dates: UTC with milliseconds.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

// DayLayout and MonthLayout are the query-string formats used by the API.
const (
	DayLayout   = "2006-01-02"
	MonthLayout = "2006-01"
)

// DisplayField selects a component rendered by FormatForDisplay.
type DisplayField int

const (
	FieldMonth DisplayField = iota
	FieldDay
	FieldYear
	FieldHour
	FieldMinute
)

var allDisplayFields = []DisplayField{FieldMonth, FieldDay, FieldYear, FieldHour, FieldMinute}

// datetime-local inputs carry no zone; they are read in the caller's location.
var localLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// IsSameDay reports whether a and b fall on the same calendar day, each read
// in its own location. Zero values never match.
func IsSameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// IsSameMonth reports whether a and b share year and month.
func IsSameMonth(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfMonth returns midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// ParseDate accepts RFC 3339 timestamps and zone-less datetime-local values.
// Zone-less values are interpreted in loc (time.Local when nil).
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, models.NewInvalidDate(nil, "date is empty")
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation(DayLayout, s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, models.NewInvalidDate(nil, "cannot parse %q", raw)
}

// FormatISO serializes t for storage.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// FormatForDisplay renders the selected fields of t, e.g. "Mar 5, 2024, 10:00 AM".
// All fields are rendered when none are given.
func FormatForDisplay(t time.Time, fields ...DisplayField) string {
	if t.IsZero() {
		return NotAvailable
	}
	if len(fields) == 0 {
		fields = allDisplayFields
	}
	want := make(map[DisplayField]bool, len(fields))
	for _, f := range fields {
		want[f] = true
	}

	var date []string
	switch {
	case want[FieldMonth] && want[FieldDay]:
		date = append(date, t.Format("Jan 2"))
	case want[FieldMonth]:
		date = append(date, t.Format("Jan"))
	case want[FieldDay]:
		date = append(date, t.Format("2"))
	}
	if want[FieldYear] {
		date = append(date, t.Format("2006"))
	}

	var clock string
	switch {
	case want[FieldHour] && want[FieldMinute]:
		clock = t.Format("3:04 PM")
	case want[FieldHour]:
		clock = t.Format("3 PM")
	case want[FieldMinute]:
		clock = t.Format("04")
	}

	out := strings.Join(date, ", ")
	if clock != "" {
		if out != "" {
			out += ", "
		}
		out += clock
	}
	return out
}

// FormatISOForDisplay parses raw and renders it; unparseable input yields NotAvailable.
func FormatISOForDisplay(raw string, loc *time.Location, fields ...DisplayField) string {
	t, err := ParseDate(raw, loc)
	if err != nil {
		return NotAvailable
	}
	if loc != nil {
		t = t.In(loc)
	}
	return FormatForDisplay(t, fields...)
}
