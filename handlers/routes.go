package handlers

import (
	"net/http"

	"procurement_flow_go/middleware"
	"procurement_flow_go/models"
	"procurement_flow_go/services/idempotency"
	"procurement_flow_go/services/ratelimit"

	"github.com/labstack/echo/v4"
)

// Register mounts the API. Mutating case routes pass the session guard, then the
// rate limiter, then the idempotency store before reaching the handler.
func (h *Handler) Register(e *echo.Echo, limiter ratelimit.Limiter, store idempotency.Store) {
	e.HTTPErrorHandler = HTTPErrorHandler

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")
	api.Use(middleware.SecurityHeaders())
	api.POST("/login", h.Login, middleware.LoginRateLimit(limiter))

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(h.DB))
	protected.Use(middleware.AuditContext())
	protected.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Limiter:  limiter,
		Requests: h.Cfg.RateLimitRequests,
		Window:   h.Cfg.RateLimitWindow,
	}))
	{
		protected.POST("/logout", h.Logout)
		protected.GET("/me", h.Me)
		protected.GET("/stages", h.ListStages)

		protected.GET("/cases", h.ListCases)
		protected.POST("/cases", h.CreateCase)
		protected.GET("/cases/:id", h.GetCase)
		protected.DELETE("/cases/:id", h.DeleteCase)

		protected.POST("/cases/:id/stages/:action", h.ApplyStage, middleware.Idempotent(store, ""))
		protected.POST("/cases/:id/transition", h.Transition, middleware.Idempotent(store, "transition"))

		protected.PUT("/cases/:id/records/:kind/:recordId", h.UpdateRecord)
		protected.DELETE("/cases/:id/records/:kind/:recordId", h.DeleteRecord)
		protected.GET("/cases/:id/permissions", h.Permissions)

		protected.POST("/cases/:id/attachments", h.UploadAttachment, middleware.Idempotent(store, "add_attachment"))
		protected.GET("/cases/:id/attachments/:attId/url", h.AttachmentURL)
		protected.GET("/cases/:id/attachments/:attId/download", h.DownloadAttachment)

		protected.GET("/cases/:id/activity", h.CaseActivity)
		protected.GET("/cases/:id/activity/export", h.ExportCaseActivity)
		protected.GET("/cases/:id/reminders", h.CaseReminders)
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.POST("/reminders/sweep", h.SweepReminders)
	}
}
