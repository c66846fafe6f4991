package main

import (
	"context"
	"flag"
	"log"

	"procurement_flow_go/config"
	"procurement_flow_go/db"
	"procurement_flow_go/models"
	"procurement_flow_go/services"
	"procurement_flow_go/services/idempotency"
	"procurement_flow_go/services/jobs"
)

func main() {
	cleanup := flag.Bool("cleanup", false, "also remove expired sessions and idempotency keys")
	flag.Parse()

	// Load configuration
	cfg := config.Load()

	// Initialize database
	database, err := db.Open(cfg.DBPath, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close(database)

	if err := db.AutoMigrate(database, models.AllModels()...); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()
	reminders := services.NewReminderService(database, services.NewEmailNotifier(cfg), services.SystemClock{}, cfg.ReminderFallbackEmail)

	log.Println("Starting reminder sweep...")
	sent := jobs.RunReminderSweep(ctx, reminders)
	log.Printf("Reminder sweep completed: %d sent", sent)

	if *cleanup {
		jobs.CleanupExpired(ctx, database, idempotency.NewGormStore(database, cfg.IdempotencyTTL))
		log.Println("Expired sessions and idempotency keys removed")
	}
}
