package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor periodically drops sessions that have been idle longer than the
// configured TTL.
type Janitor struct {
	store    Store
	ttl      time.Duration
	schedule string
	logger   *slog.Logger
	cron     *cron.Cron
}

// NewJanitor creates a janitor; schedule is a cron expression (descriptors
// like "@hourly" are accepted).
func NewJanitor(store Store, ttl time.Duration, schedule string, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		store:    store,
		ttl:      ttl,
		schedule: schedule,
		logger:   logger.With("component", "session-janitor"),
	}
}

// Start schedules the cleanup job. A zero TTL disables the janitor.
func (j *Janitor) Start() error {
	if j == nil || j.store == nil || j.ttl <= 0 {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(j.schedule, j.runOnce); err != nil {
		return err
	}
	j.cron = c
	c.Start()
	j.logger.Info("session janitor started", "schedule", j.schedule, "ttl", j.ttl)
	return nil
}

// Stop halts the schedule and waits for a running cleanup to finish.
func (j *Janitor) Stop() {
	if j == nil || j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
}

func (j *Janitor) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cutoff := time.Now().Add(-j.ttl)
	dropped, err := j.store.DeleteIdleSessions(ctx, cutoff)
	if err != nil {
		j.logger.Warn("session cleanup failed", "error", err)
		return
	}
	if dropped > 0 {
		j.logger.Info("dropped idle sessions", "count", dropped, "cutoff", cutoff)
	}
}
