package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Mongo     *bool     `json:"mongo,omitempty"`
	Redis     *bool     `json:"redis,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// HealthMonitor pings the backing services on a cron schedule and keeps the
// latest result in memory.
type HealthMonitor struct {
	mongo  *mongo.Client
	redis  *redis.Client
	cron   *cron.Cron
	logger *zap.Logger

	mu      sync.RWMutex
	current HealthStatus
}

// NewHealthMonitor builds a monitor; nil clients are left out of the report.
func NewHealthMonitor(mongoClient *mongo.Client, redisClient *redis.Client, logger *zap.Logger) *HealthMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthMonitor{
		mongo:  mongoClient,
		redis:  redisClient,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start runs one check immediately and then on every tick of schedule
// (any robfig/cron spec, e.g. "@every 60s").
func (h *HealthMonitor) Start(schedule string) error {
	if _, err := h.cron.AddFunc(schedule, h.Check); err != nil {
		return fmt.Errorf("invalid health check schedule %q: %w", schedule, err)
	}
	h.Check()
	h.cron.Start()
	return nil
}

// Every runs fn on the monitor's cron schedule alongside the health check.
func (h *HealthMonitor) Every(schedule string, fn func()) error {
	if _, err := h.cron.AddFunc(schedule, fn); err != nil {
		return fmt.Errorf("health: invalid schedule %q: %w", schedule, err)
	}
	return nil
}

// Stop halts the schedule and waits for a running check.
func (h *HealthMonitor) Stop() {
	<-h.cron.Stop().Done()
}

// Check pings every configured service once.
func (h *HealthMonitor) Check() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status := HealthStatus{CheckedAt: time.Now()}
	if h.mongo != nil {
		ok := h.mongo.Ping(ctx, nil) == nil
		status.Mongo = &ok
		if !ok {
			h.logger.Warn("health: mongo ping failed")
		}
	}
	if h.redis != nil {
		ok := h.redis.Ping(ctx).Err() == nil
		status.Redis = &ok
		if !ok {
			h.logger.Warn("health: redis ping failed")
		}
	}

	h.mu.Lock()
	h.current = status
	h.mu.Unlock()
}

// Status returns latest stored health snapshot.
func (h *HealthMonitor) Status() HealthStatus {
	if h == nil {
		return HealthStatus{}
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Healthy is false when any checked service failed its last ping.
func (s HealthStatus) Healthy() bool {
	if s.Mongo != nil && !*s.Mongo {
		return false
	}
	if s.Redis != nil && !*s.Redis {
		return false
	}
	return true
}
