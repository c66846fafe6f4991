package handlers

import (
	"log"
	"time"

	"procurement_flow_go/config"
	"procurement_flow_go/middleware"
	"procurement_flow_go/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Handler carries the dependencies every route needs
type Handler struct {
	DB        *gorm.DB
	Cfg       *config.Config
	Cases     *services.ProcurementService
	Reminders *services.ReminderService
	location  *time.Location
}

// New creates a Handler. The timezone is resolved once for exports.
func New(database *gorm.DB, cfg *config.Config, cases *services.ProcurementService, reminders *services.ReminderService) *Handler {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("[WARNING] Unknown timezone %q, exports use UTC", cfg.Timezone)
		loc = time.UTC
	}
	return &Handler{DB: database, Cfg: cfg, Cases: cases, Reminders: reminders, location: loc}
}

// actor returns the resolved actor or ErrUnauthorized
func actor(c echo.Context) (*services.Actor, error) {
	a := middleware.GetActor(c)
	if a == nil {
		return nil, services.ErrUnauthorized
	}
	return a, nil
}
