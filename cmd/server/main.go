package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"procurement_flow_go/config"
	"procurement_flow_go/db"
	"procurement_flow_go/handlers"
	"procurement_flow_go/models"
	"procurement_flow_go/services"
	"procurement_flow_go/services/idempotency"
	"procurement_flow_go/services/jobs"
	"procurement_flow_go/services/ratelimit"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	database, err := db.Open(cfg.DBPath, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close(database)

	// Run migrations
	if err := db.AutoMigrate(database, models.AllModels()...); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Shared request guards: Redis when configured, in-process otherwise
	var (
		limiter ratelimit.Limiter
		store   idempotency.Store
		purger  jobs.Purger
	)
	if cfg.HasRedis() {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to reach Redis at %s: %v", cfg.RedisAddr, err)
		}
		limiter = ratelimit.NewRedisLimiter(client)
		store = idempotency.NewRedisStore(client, cfg.IdempotencyTTL)
		log.Printf("Rate limiter and idempotency store backed by Redis at %s", cfg.RedisAddr)
	} else {
		memLimiter := ratelimit.NewMemoryLimiter()
		memLimiter.StartCleanup(ctx, time.Minute)
		gormStore := idempotency.NewGormStore(database, cfg.IdempotencyTTL)
		limiter, store, purger = memLimiter, gormStore, gormStore
		log.Println("REDIS_ADDR not set, rate limits are per instance")
	}

	// Services
	clock := services.SystemClock{}
	reminders := services.NewReminderService(database, services.NewEmailNotifier(cfg), clock, cfg.ReminderFallbackEmail)
	cases := services.NewProcurementService(database, clock, reminders, services.NewStorage(cfg))

	scheduler, err := jobs.StartScheduler(database, cfg, reminders, purger)
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(echomiddleware.RequestLogger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.BodyLimit("12M"))

	// Make config available to handlers
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})

	handlers.New(database, cfg, cases, reminders).Register(e, limiter, store)

	// Start server
	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	// let a running sweep finish before the database closes
	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
