package middleware

import (
	"procurement_flow_go/models"
	"procurement_flow_go/services"

	"github.com/labstack/echo/v4"
)

const ContextKeyActor = "actor"

// AuditContext is middleware that resolves the authenticated user into the actor
// recorded on activity logs
func AuditContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if actor := actorFor(GetCurrentUser(c)); actor != nil {
				c.Set(ContextKeyActor, actor)
			}
			return next(c)
		}
	}
}

func actorFor(user *models.User) *services.Actor {
	if user == nil {
		return nil
	}
	return &services.Actor{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	}
}

// GetActor retrieves the actor from the request, nil when unauthenticated
func GetActor(c echo.Context) *services.Actor {
	if actor, ok := c.Get(ContextKeyActor).(*services.Actor); ok {
		return actor
	}
	return nil
}
