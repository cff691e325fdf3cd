package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"arctech/models"
	"arctech/services/reminder"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ReminderSender delivers a due reminder.
type ReminderSender interface {
	SendReminder(ctx context.Context, p models.ReminderPayload) error
}

// ReminderWorker processes appointment reminder tasks.
type ReminderWorker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// NewReminderWorker prepares the async worker on the reminder queue.
func NewReminderWorker(redisOpts asynq.RedisClientOpt, sender ReminderSender, logger *zap.Logger) *ReminderWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				reminder.Queue: 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(reminder.TypeAppointmentReminder, handleReminderTask(sender, logger))

	return &ReminderWorker{srv: srv, mux: mux, logger: logger}
}

// Start runs the worker in the background, retrying startup with backoff.
func (w *ReminderWorker) Start() {
	go func() {
		w.logger.Info("[ReminderWorker] starting async worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := w.srv.Start(w.mux)
			if err == nil {
				return
			}
			w.logger.Warn("[ReminderWorker] failed to start worker",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				w.logger.Error("[ReminderWorker] max retry attempts reached, reminders disabled")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
}

// Shutdown waits for in-flight reminders and stops the worker.
func (w *ReminderWorker) Shutdown() {
	w.srv.Shutdown()
}

func handleReminderTask(sender ReminderSender, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("[ReminderHandler] invalid payload", zap.Error(err))
			return fmt.Errorf("invalid reminder payload: %v: %w", err, asynq.SkipRetry)
		}

		logger.Info("[ReminderHandler] triggering reminder",
			zap.String("appointmentId", p.AppointmentID), zap.String("startsAt", p.StartsAt))

		if err := sender.SendReminder(ctx, p); err != nil {
			logger.Warn("[ReminderHandler] failed to send notification", zap.Error(err))
			return err
		}
		return nil
	}
}
