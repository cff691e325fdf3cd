package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"arctech/models"
	"arctech/utils"
)

const (
	// TypeAppointmentReminder is the asynq task type of a reminder push.
	TypeAppointmentReminder = "appointment:reminder"
	// Queue holds reminder tasks.
	Queue = "default"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type taskDeleter interface {
	DeleteTask(queue, id string) error
}

// Scheduler books a push reminder ahead of each appointment.
type Scheduler struct {
	client    enqueuer
	inspector taskDeleter
	lead      time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewScheduler builds a scheduler over the asynq queue at opt.
func NewScheduler(opt asynq.RedisClientOpt, lead time.Duration, logger *zap.Logger) *Scheduler {
	return newScheduler(asynq.NewClient(opt), asynq.NewInspector(opt), lead, time.Now, logger)
}

func newScheduler(client enqueuer, inspector taskDeleter, lead time.Duration, now func() time.Time, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{client: client, inspector: inspector, lead: lead, now: now, logger: logger}
}

// TaskID is the deduplication id of the reminder for appointmentID.
func TaskID(appointmentID string) string {
	return "reminder:" + appointmentID
}

// FireAt is when the reminder for appt goes out.
func (s *Scheduler) FireAt(appt models.Appointment) time.Time {
	return appt.Date.Add(-s.lead)
}

// Schedule enqueues the reminder for appt. Reminders whose time has passed
// are skipped.
func (s *Scheduler) Schedule(ctx context.Context, appt models.Appointment) error {
	fireAt := s.FireAt(appt)
	if !fireAt.After(s.now()) {
		s.logger.Debug("reminder skipped, fire time passed", zap.String("id", appt.ID), zap.Time("fireAt", fireAt))
		return nil
	}

	payload, err := json.Marshal(models.ReminderPayload{
		AppointmentID: appt.ID,
		Title:         appt.Title,
		Public:        appt.IsPublic,
		StartsAt:      utils.FormatISO(appt.Date),
	})
	if err != nil {
		return fmt.Errorf("reminder: marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeAppointmentReminder, payload)
	info, err := s.client.EnqueueContext(ctx, task,
		asynq.Queue(Queue),
		asynq.ProcessAt(fireAt),
		asynq.TaskID(TaskID(appt.ID)),
		asynq.MaxRetry(3),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reminder: enqueue %s: %w", appt.ID, err)
	}
	s.logger.Info("reminder scheduled", zap.String("id", appt.ID), zap.String("task", info.ID), zap.Time("fireAt", fireAt))
	return nil
}

// Cancel removes the pending reminder of appointmentID, if any.
func (s *Scheduler) Cancel(_ context.Context, appointmentID string) error {
	err := s.inspector.DeleteTask(Queue, TaskID(appointmentID))
	if err == nil || errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return fmt.Errorf("reminder: cancel %s: %w", appointmentID, err)
}
