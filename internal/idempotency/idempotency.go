package idempotency

import (
	"context"

	"github.com/labstack/echo/v4"
)

// HeaderName carries a client-chosen key for a purchase request. Retries of
// the same request should repeat it so downstream consumers can deduplicate.
const HeaderName = "Idempotency-Key"

type ctxKey struct{}

func WithKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ctxKey{}, key)
}

func KeyFromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(ctxKey{}).(string)
	return key, ok && key != ""
}

func EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(HeaderName)
			if key == "" {
				return next(c)
			}

			req := c.Request()
			c.SetRequest(req.WithContext(WithKey(req.Context(), key)))
			return next(c)
		}
	}
}
