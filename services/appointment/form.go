package appointment

import (
	"strings"
	"time"

	"arctech/models"
	"arctech/utils"
)

// FormState is the pending input for a new appointment.
type FormState struct {
	Title string `json:"title"`
	// Date is the raw value of a datetime-local input or an RFC 3339 timestamp.
	Date     string `json:"date"`
	Duration int    `json:"duration,omitempty"`
	IsPublic bool   `json:"isPublic"`
}

// AllowedDurations lists the durations the form accepts, in minutes.
func AllowedDurations() []int {
	out := make([]int, len(models.AllowedDurations))
	copy(out, models.AllowedDurations)
	return out
}

func durationAllowed(minutes int) bool {
	for _, d := range models.AllowedDurations {
		if d == minutes {
			return true
		}
	}
	return false
}

// Validate checks the required fields. Zone-less dates are read in loc.
func (f FormState) Validate(loc *time.Location) error {
	_, err := f.parse(loc)
	return err
}

// ToAppointment validates the draft and converts it; the id is left empty
// for the store to assign.
func (f FormState) ToAppointment(loc *time.Location) (models.Appointment, error) {
	return f.parse(loc)
}

func (f FormState) parse(loc *time.Location) (models.Appointment, error) {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return models.Appointment{}, models.NewValidationError("title is required")
	}
	if strings.TrimSpace(f.Date) == "" {
		return models.Appointment{}, models.NewValidationError("date is required")
	}
	date, err := utils.ParseDate(f.Date, loc)
	if err != nil {
		return models.Appointment{}, &models.AppError{
			Code:    models.CodeValidation,
			Message: "date is not a valid date and time",
			Err:     err,
		}
	}
	minutes := f.Duration
	if minutes == 0 {
		minutes = models.DefaultDurationMinutes
	}
	if !durationAllowed(minutes) {
		return models.Appointment{}, models.NewValidationError("duration %d is not one of %v", minutes, models.AllowedDurations)
	}
	return models.Appointment{
		Title:           title,
		Date:            date,
		DurationMinutes: minutes,
		IsPublic:        f.IsPublic,
	}, nil
}
