package handlers

import (
	"net/http"
	"strconv"

	"procurement_flow_go/models"
	"procurement_flow_go/services"

	"github.com/labstack/echo/v4"
)

// CaseListResponse is a page of cases
type CaseListResponse struct {
	Cases    []models.ProcurementCase `json:"cases"`
	Total    int64                    `json:"total"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"page_size"`
}

// CreateCase handles POST /api/cases
func (h *Handler) CreateCase(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}

	var in services.CreateCaseInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	created, err := h.Cases.CreateCase(c.Request().Context(), a, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// ListCases handles GET /api/cases
func (h *Handler) ListCases(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	filter := services.CaseFilter{
		State:    models.CaseState(c.QueryParam("state")),
		Method:   models.ProcurementMethod(c.QueryParam("method")),
		Search:   c.QueryParam("q"),
		Page:     page,
		PageSize: pageSize,
	}
	cases, total, err := h.Cases.ListCases(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return c.JSON(http.StatusOK, CaseListResponse{Cases: cases, Total: total, Page: page, PageSize: pageSize})
}

// GetCase handles GET /api/cases/:id
func (h *Handler) GetCase(c echo.Context) error {
	found, err := h.Cases.GetCase(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, found)
}

// DeleteCase handles DELETE /api/cases/:id; the reason comes from the body or ?reason=
func (h *Handler) DeleteCase(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}

	var body struct {
		Reason string `json:"reason" query:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := h.Cases.DeleteCase(c.Request().Context(), a, c.Param("id"), body.Reason); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
