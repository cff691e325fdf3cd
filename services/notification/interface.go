package notification

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"

	"arctech/models"
	"arctech/utils"
)

// NotificationService sends FCM pushes about appointments.
type NotificationService interface {
	AppointmentCreated(ctx context.Context, appt models.Appointment) error
	AppointmentDeleted(ctx context.Context, appointmentID string) error
	SendReminder(ctx context.Context, p models.ReminderPayload) error
}

type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// DefaultNotificationService publishes every push on a single FCM topic
// that client devices subscribe to.
type DefaultNotificationService struct {
	sender   messageSender
	topic    string
	location *time.Location
	logger   *zap.Logger
}

// NewDefaultNotificationService returns a service sending through client.
// A nil client yields a service that only logs.
func NewDefaultNotificationService(client *messaging.Client, topic string, loc *time.Location, logger *zap.Logger) *DefaultNotificationService {
	var sender messageSender
	if client != nil {
		sender = client
	}
	return newService(sender, topic, loc, logger)
}

func newService(sender messageSender, topic string, loc *time.Location, logger *zap.Logger) *DefaultNotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &DefaultNotificationService{sender: sender, topic: topic, location: loc, logger: logger}
}

// AppointmentCreated announces a new appointment. Private appointments are
// announced without their title.
func (s *DefaultNotificationService) AppointmentCreated(ctx context.Context, appt models.Appointment) error {
	when := utils.FormatForDisplay(appt.Date.In(s.location))
	body := "An appointment was booked for " + when
	if appt.IsPublic {
		body = fmt.Sprintf("%s on %s", appt.Title, when)
	}
	return s.send(ctx, "New appointment", body, map[string]string{
		"event":         string(models.ChangeCreate),
		"appointmentId": appt.ID,
		"date":          utils.FormatISO(appt.Date),
	})
}

// AppointmentDeleted announces a removal.
func (s *DefaultNotificationService) AppointmentDeleted(ctx context.Context, appointmentID string) error {
	return s.send(ctx, "Appointment removed", "An appointment was cancelled", map[string]string{
		"event":         string(models.ChangeDelete),
		"appointmentId": appointmentID,
	})
}

// SendReminder pushes an upcoming-appointment reminder.
func (s *DefaultNotificationService) SendReminder(ctx context.Context, p models.ReminderPayload) error {
	when := utils.FormatISOForDisplay(p.StartsAt, s.location, utils.FieldHour, utils.FieldMinute)
	body := "You have an appointment at " + when
	if p.Public && p.Title != "" {
		body = fmt.Sprintf("%s at %s", p.Title, when)
	}
	return s.send(ctx, "Upcoming appointment", body, map[string]string{
		"event":         "reminder",
		"appointmentId": p.AppointmentID,
		"date":          p.StartsAt,
	})
}

func (s *DefaultNotificationService) send(ctx context.Context, title, body string, data map[string]string) error {
	if s.sender == nil || s.topic == "" {
		s.logger.Debug("push skipped, FCM not configured", zap.String("title", title))
		return nil
	}
	msg := &messaging.Message{
		Topic: s.topic,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	response, err := s.sender.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("notification: failed to send FCM message: %w", err)
	}
	s.logger.Info("push sent", zap.String("topic", s.topic), zap.String("response", response))
	return nil
}
