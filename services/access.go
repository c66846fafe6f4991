package services

import (
	"procurement_flow_go/models"
)

// Actor is the resolved identity behind a request
type Actor struct {
	UserID string
	Name   string
	Email  string
	Role   models.Role
}

// IDPtr returns the actor id for nullable columns
func (a *Actor) IDPtr() *string {
	if a == nil || a.UserID == "" {
		return nil
	}
	id := a.UserID
	return &id
}

// CheckRole is the access guard: an actor without a resolved identity is ErrUnauthorized,
// a role outside the allowed set is ErrForbidden.
func CheckRole(actor *Actor, allowed ...models.Role) error {
	if actor == nil || actor.UserID == "" {
		return ErrUnauthorized
	}
	for _, role := range allowed {
		if actor.Role == role {
			return nil
		}
	}
	return ErrForbidden
}
