package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CaseReminders handles GET /api/cases/:id/reminders
func (h *Handler) CaseReminders(c echo.Context) error {
	ctx := c.Request().Context()
	found, err := h.Cases.GetCase(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	pending, err := h.Reminders.PendingForCase(ctx, found.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pending)
}

// SweepReminders handles POST /api/admin/reminders/sweep and runs one sweep now
func (h *Handler) SweepReminders(c echo.Context) error {
	sent, err := h.Reminders.SweepNow(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"sent": sent})
}
