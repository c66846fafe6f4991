package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"procurement_flow_go/config"
	"procurement_flow_go/services"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Purger drops expired idempotency keys. The Redis store expires keys on its own and passes nil.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// StartScheduler registers the reminder sweep and the hourly cleanup and starts the cron runner.
// Callers stop it with the returned cron's Stop.
func StartScheduler(database *gorm.DB, cfg *config.Config, reminders *services.ReminderService, purger Purger) (*cron.Cron, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("[CRON] Unknown timezone %q, using UTC", cfg.Timezone)
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	schedule := cfg.ReminderSweepSchedule
	if schedule == "" {
		schedule = config.DefaultReminderSweepSchedule
	}
	if _, err := c.AddFunc(schedule, func() {
		RunReminderSweep(context.Background(), reminders)
	}); err != nil {
		return nil, fmt.Errorf("invalid reminder sweep schedule %q: %w", schedule, err)
	}

	if _, err := c.AddFunc("@hourly", func() {
		CleanupExpired(context.Background(), database, purger)
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	c.Start()
	log.Printf("[CRON] Scheduler started (reminders: %s, timezone: %s)", schedule, loc)
	return c, nil
}

// CleanupExpired removes expired sessions and idempotency keys
func CleanupExpired(ctx context.Context, database *gorm.DB, purger Purger) {
	if err := services.CleanupExpiredSessions(database.WithContext(ctx)); err != nil {
		log.Printf("[CRON] %v", err)
	}
	if purger == nil {
		return
	}
	if _, err := purger.Purge(ctx); err != nil {
		log.Printf("[CRON] Failed to purge idempotency keys: %v", err)
	}
}
