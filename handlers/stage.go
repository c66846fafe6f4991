package handlers

import (
	"io"
	"net/http"

	"procurement_flow_go/models"
	"procurement_flow_go/services"

	"github.com/labstack/echo/v4"
)

// maxStageBody caps stage and record payloads
const maxStageBody = 1 << 20

func readBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxStageBody))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Failed to read request body")
	}
	return body, nil
}

// StageView describes one stage action to clients
type StageView struct {
	Action      string            `json:"action"`
	EntryAction string            `json:"entry_action,omitempty"`
	Kind        models.RecordKind `json:"kind"`
	Target      models.CaseState  `json:"target_state"`
	Singleton   bool              `json:"singleton"`
	Roles       []models.Role     `json:"roles"`
}

// ListStages handles GET /api/stages
func (h *Handler) ListStages(c echo.Context) error {
	stages := services.Stages()
	views := make([]StageView, 0, len(stages))
	for _, d := range stages {
		views = append(views, StageView{
			Action:      d.Action,
			EntryAction: d.EntryAction,
			Kind:        d.Kind,
			Target:      d.Target,
			Singleton:   d.Singleton,
			Roles:       d.Roles(),
		})
	}
	return c.JSON(http.StatusOK, views)
}

// ApplyStage handles POST /api/cases/:id/stages/:action. Every stage shares this handler;
// the action picks the descriptor.
func (h *Handler) ApplyStage(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	body, err := readBody(c)
	if err != nil {
		return err
	}

	result, err := h.Cases.ApplyStage(c.Request().Context(), a, c.Param("id"), c.Param("action"), body)
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.Updated {
		status = http.StatusOK
	}
	return c.JSON(status, result)
}

// Transition handles POST /api/cases/:id/transition
func (h *Handler) Transition(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}

	var req services.TransitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	result, err := h.Cases.Transition(c.Request().Context(), a, c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
