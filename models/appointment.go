// File: models/appointment.go
package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// AllowedDurations are the durations (minutes) offered by the appointment form.
var AllowedDurations = []int{15, 30, 45, 60, 90, 120}

// DefaultDurationMinutes is used when the form leaves the duration unset.
const DefaultDurationMinutes = 30

// Appointment is a scheduled visit as held in memory.
type Appointment struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Date            time.Time `json:"date"`
	DurationMinutes int       `json:"durationMinutes"`
	IsPublic        bool      `json:"isPublic"`
}

// End is the time the appointment is over.
func (a Appointment) End() time.Time {
	return a.Date.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// AppointmentRecord is the persisted shape of an appointment.
// Date is an ISO-8601 string; Duration may be stored as a number or a string.
type AppointmentRecord struct {
	Title    string      `bson:"title" json:"title" firestore:"title"`
	Date     string      `bson:"date" json:"date" firestore:"date"`
	Duration interface{} `bson:"duration" json:"duration" firestore:"duration"`
	Public   bool        `bson:"public" json:"public" firestore:"public"`
}

// AppointmentDocument is a record together with its document id.
type AppointmentDocument struct {
	ID                string `bson:"id" json:"id"`
	AppointmentRecord `bson:",inline"`
}

// DurationMinutes coerces the stored duration to whole minutes.
// Fractional values are truncated toward zero.
func (r AppointmentRecord) DurationMinutes() (int, error) {
	switch v := r.Duration.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float32:
		return int(math.Trunc(float64(v))), nil
	case float64:
		return int(math.Trunc(v)), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("duration %q is not a number", v)
		}
		return int(math.Trunc(f)), nil
	default:
		return 0, fmt.Errorf("unsupported duration type %T", v)
	}
}
