package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"linkboard/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed rejects the request if Redis is unavailable.
	FailClosed
)

var errNoRedis = errors.New("redis client is nil")

// ParseFailPolicy maps RATE_LIMIT_FAIL_MODE to a FailPolicy. Empty means open.
func ParseFailPolicy(mode string) (FailPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "open":
		return FailOpen, nil
	case "closed":
		return FailClosed, nil
	}
	return FailOpen, fmt.Errorf("unknown rate limit fail mode %q", mode)
}

// RateLimiter is a fixed-window counter per (resource, caller) kept in Redis.
type RateLimiter struct {
	rdb    *redis.Client
	env    string
	policy FailPolicy
}

// NewRateLimiter returns a limiter backed by rdb. A nil client is allowed;
// checks then fail according to policy, or the route's own FailPolicy.
func NewRateLimiter(rdb *redis.Client, env string, policy FailPolicy) *RateLimiter {
	return &RateLimiter{rdb: rdb, env: env, policy: policy}
}

// bypassed is true only for named non-production environments, so an unset
// env is limited.
func (l *RateLimiter) bypassed() bool {
	switch l.env {
	case "test", "development", "stress":
		return true
	}
	return false
}

// Allow reports whether one more request for (resource, id) fits in the window.
// Rate limiting is disabled in development and test environments.
func (l *RateLimiter) Allow(ctx context.Context, resource, id string, limit int, window time.Duration) (bool, error) {
	if l.bypassed() {
		return true, nil
	}
	if l.rdb == nil {
		return false, errNoRedis
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		l.rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// Limit returns a Fiber middleware enforcing limit requests per window, keyed by
// the authenticated user when present and the remote IP otherwise. Store
// failures follow the limiter's configured policy.
func (l *RateLimiter) Limit(resource string, limit int, window time.Duration) fiber.Handler {
	return l.LimitWithPolicy(resource, limit, window, l.policy)
}

// LimitWithPolicy is Limit with an explicit store failure policy.
func (l *RateLimiter) LimitWithPolicy(resource string, limit int, window time.Duration, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if uid, ok := c.Locals("userID").(uint); ok {
			id = fmt.Sprintf("user:%d", uid)
		} else {
			id = "ip:" + c.IP()
		}

		allowed, err := l.Allow(c.UserContext(), resource, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, rejecting",
					slog.String("resource", resource),
					slog.String("error", err.Error()),
				)
				return models.RespondWithError(c, models.NewInternalError(err))
			}
			return c.Next()
		}

		if !allowed {
			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", int(window.Seconds())))
			return models.RespondWithError(c, models.NewRateLimitedError("rate limit exceeded"))
		}
		return c.Next()
	}
}
