package jobs

import (
	"context"
	"log"
	"time"

	"procurement_flow_go/services"
)

// sweepTimeout bounds one sweep so a stuck notifier cannot pile up runs
const sweepTimeout = 2 * time.Minute

// RunReminderSweep fires every due reminder once and reports how many were sent
func RunReminderSweep(ctx context.Context, reminders *services.ReminderService) int {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	start := time.Now()
	sent, err := reminders.SweepNow(ctx)
	if err != nil {
		log.Printf("[CRON] Reminder sweep stopped after %d sent: %v", sent, err)
		return sent
	}
	log.Printf("[CRON] Reminder sweep finished in %s, %d sent", time.Since(start).Round(time.Millisecond), sent)
	return sent
}
