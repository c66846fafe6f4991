package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"procurement_flow_go/models"
)

var (
	ErrUnauthorized     = errors.New("authentication required")
	ErrForbidden        = errors.New("insufficient permissions")
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrNotFound         = errors.New("not found")
	// ErrConflict means the case changed underneath the request (version mismatch or unique-key race)
	ErrConflict = errors.New("case was modified by another request")
)

// ValidationError carries field-level problems with a payload
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// LockedError means downstream records block the edit and the actor has no override
type LockedError struct {
	Kind   models.RecordKind
	Reason string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s is locked: %s", e.Kind, e.Reason)
}

// RateLimitedError tells the client when it may try again
type RateLimitedError struct {
	RetryAfterSeconds int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %ds", e.RetryAfterSeconds)
}

func notFound(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
}
