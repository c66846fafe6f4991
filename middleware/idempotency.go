package middleware

import (
	"context"
	"fmt"
	"log"

	"procurement_flow_go/services"
	"procurement_flow_go/services/idempotency"

	"github.com/labstack/echo/v4"
)

// HeaderIdempotencyKey carries the client-supplied request key
const HeaderIdempotencyKey = "Idempotency-Key"

// Idempotent consumes the request's Idempotency-Key before the handler runs.
// action names the key namespace; empty means the route's :action parameter.
// Requests without the header pass through untouched. A key is released again
// when the handler fails, since nothing was committed and the client may retry.
func Idempotent(store idempotency.Store, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			clientKey := c.Request().Header.Get(HeaderIdempotencyKey)
			if clientKey == "" {
				return next(c)
			}

			name := action
			if name == "" {
				name = c.Param("action")
			}
			key, err := idempotency.Key(name, c.Param("id"), clientKey)
			if err != nil {
				return next(c)
			}

			ctx := c.Request().Context()
			ok, err := store.Consume(ctx, key)
			if err != nil {
				log.Printf("[IDEMPOTENCY] Store unavailable for %s: %v", key, err)
				return fmt.Errorf("idempotency store: %w", err)
			}
			if !ok {
				log.Printf("[IDEMPOTENCY] Duplicate request rejected: %s", key)
				return services.ErrDuplicateRequest
			}

			if err := next(c); err != nil {
				// detach from the request so a cancelled client still frees the key
				if relErr := store.Release(context.WithoutCancel(ctx), key); relErr != nil {
					log.Printf("[IDEMPOTENCY] Failed to release %s: %v", key, relErr)
				}
				return err
			}
			return nil
		}
	}
}
