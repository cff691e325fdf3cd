package models

// ReminderPayload is the task body of a scheduled appointment reminder.
type ReminderPayload struct {
	AppointmentID string `json:"appointmentId"`
	Title         string `json:"title"`
	Public        bool   `json:"public"`
	StartsAt      string `json:"startsAt"`
}
