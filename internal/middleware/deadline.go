package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestDeadline bounds the user context of every request. Store calls made
// with that context are cancelled, and open transactions rolled back, once
// the deadline passes.
func RequestDeadline(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
