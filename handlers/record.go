package handlers

import (
	"net/http"

	"procurement_flow_go/services"

	"github.com/labstack/echo/v4"
)

// UpdateRecord handles PUT /api/cases/:id/records/:kind/:recordId
func (h *Handler) UpdateRecord(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	kind, ok := services.ParseRecordKind(c.Param("kind"))
	if !ok {
		return services.NewValidationError("kind", "is not a known record kind")
	}
	body, err := readBody(c)
	if err != nil {
		return err
	}

	rec, err := h.Cases.UpdateRecord(c.Request().Context(), a, c.Param("id"), kind, c.Param("recordId"), body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

// DeleteRecord handles DELETE /api/cases/:id/records/:kind/:recordId
func (h *Handler) DeleteRecord(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	kind, ok := services.ParseRecordKind(c.Param("kind"))
	if !ok {
		return services.NewValidationError("kind", "is not a known record kind")
	}

	var body struct {
		Reason string `json:"reason" query:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	if err := h.Cases.DeleteRecord(c.Request().Context(), a, c.Param("id"), kind, c.Param("recordId"), body.Reason); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Permissions handles GET /api/cases/:id/permissions, the client-side preview of the lock gate
func (h *Handler) Permissions(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	perms, err := h.Cases.Permissions(c.Request().Context(), a, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, perms)
}
