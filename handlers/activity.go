package handlers

import (
	"fmt"
	"net/http"

	"procurement_flow_go/services"

	"github.com/labstack/echo/v4"
)

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CaseActivity handles GET /api/cases/:id/activity
func (h *Handler) CaseActivity(c echo.Context) error {
	ctx := c.Request().Context()
	found, err := h.Cases.GetCase(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	logs, err := services.GetCaseActivity(h.DB.WithContext(ctx), found.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, logs)
}

// ExportCaseActivity handles GET /api/cases/:id/activity/export
func (h *Handler) ExportCaseActivity(c echo.Context) error {
	ctx := c.Request().Context()
	found, err := h.Cases.GetCase(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	logs, err := services.GetCaseActivity(h.DB.WithContext(ctx), found.ID)
	if err != nil {
		return err
	}

	buf, err := services.ExportActivityXLSX(found, logs, h.location)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("%s-activity.xlsx", found.ReferenceNo)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, xlsxMime, buf.Bytes())
}
