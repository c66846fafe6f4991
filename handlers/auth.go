package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"procurement_flow_go/middleware"
	"procurement_flow_go/models"
	"procurement_flow_go/services"

	"github.com/labstack/echo/v4"
)

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// LoginResponse returns the session token for API clients alongside the cookie
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Login handles POST /api/login
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Email) == "" {
		fields["email"] = "is required"
	}
	if req.Password == "" {
		fields["password"] = "is required"
	}
	if len(fields) > 0 {
		return &services.ValidationError{Fields: fields}
	}

	session, user, err := services.Authenticate(h.DB.WithContext(c.Request().Context()), req.Email, req.Password, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		}
		return err
	}

	middleware.SetSessionCookie(c, session)
	return c.JSON(http.StatusOK, LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      user,
	})
}

// Logout handles POST /api/logout. With ?all=true every session of the user is closed.
func (h *Handler) Logout(c echo.Context) error {
	if session := middleware.GetCurrentSession(c); session != nil {
		if c.QueryParam("all") == "true" {
			if err := services.DeleteAllUserSessions(h.DB, session.UserID); err != nil {
				return err
			}
			services.LogSecurityEvent("LOGOUT_ALL", session.UserID, "all sessions closed")
		} else {
			if err := services.DeleteSession(h.DB, session.Token); err != nil {
				return err
			}
			services.LogSecurityEvent("LOGOUT", session.UserID, "session closed")
		}
	}
	middleware.ClearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /api/me
func (h *Handler) Me(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return services.ErrUnauthorized
	}
	return c.JSON(http.StatusOK, user)
}
