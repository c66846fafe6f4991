package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"procurement_flow_go/services"
	"procurement_flow_go/services/workflow"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error      string            `json:"error"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields,omitempty"`
	RetryAfter int               `json:"retry_after,omitempty"`
}

// errorStatus classifies an error into an HTTP status and response body
func errorStatus(err error) (int, ErrorResponse) {
	var (
		httpErr       *echo.HTTPError
		validationErr *services.ValidationError
		lockedErr     *services.LockedError
		limitedErr    *services.RateLimitedError
		transitionErr *workflow.TransitionError
	)

	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Authentication required"}
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Error: "forbidden", Message: "Insufficient permissions"}
	case errors.As(err, &limitedErr):
		return http.StatusTooManyRequests, ErrorResponse{
			Error:      "rate_limited",
			Message:    "Too many requests. Please try again later.",
			RetryAfter: limitedErr.RetryAfterSeconds,
		}
	case errors.Is(err, services.ErrDuplicateRequest):
		return http.StatusConflict, ErrorResponse{Error: "duplicate_request", Message: "This request was already processed"}
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, ErrorResponse{Error: "validation_failed", Message: "Invalid input", Fields: validationErr.Fields}
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()}
	case errors.As(err, &transitionErr):
		return http.StatusConflict, ErrorResponse{Error: "transition_rejected", Message: transitionErr.Error()}
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict, ErrorResponse{Error: "conflict", Message: err.Error()}
	case errors.As(err, &lockedErr):
		return http.StatusLocked, ErrorResponse{Error: "locked", Message: lockedErr.Error()}
	case errors.As(err, &httpErr):
		msg := http.StatusText(httpErr.Code)
		if s, ok := httpErr.Message.(string); ok {
			msg = s
		}
		return httpErr.Code, ErrorResponse{Error: "http_error", Message: msg}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Something went wrong"}
}

// HTTPErrorHandler maps service errors to structured JSON responses.
// Unclassified errors are logged and reported as a generic 500.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %v", c.Request().Method, c.Path(), err)
	}
	if body.RetryAfter > 0 {
		c.Response().Header().Set("Retry-After", strconv.Itoa(body.RetryAfter))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		log.Printf("[ERROR] Failed to write error response: %v", err)
	}
}
