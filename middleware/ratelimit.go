package middleware

import (
	"time"

	"festival-chat-api/dto/res"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func (middleware *Middleware) newLimiter(max int, window time.Duration, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		Next: func(c *fiber.Ctx) bool {
			isAdmin, _ := c.Locals(LocalsIsAdmin).(bool)
			return isAdmin
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			if userID, ok := c.Locals(LocalsUserID).(string); ok && userID != "" {
				return "user:" + userID
			}
			return "ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			middleware.Log.Warnf("Rate limit reached for %s on %s", c.IP(), c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(res.ErrorResponse{
				Success:    false,
				Message:    message,
				StatusCode: fiber.StatusTooManyRequests,
				Code:       "RATE_LIMITED",
			})
		},
	})
}

// AuthLimiter guards the unauthenticated auth routes, keyed by client IP.
func (middleware *Middleware) AuthLimiter() fiber.Handler {
	window, auth, _, _ := middleware.GetRateLimitConfig()
	return middleware.newLimiter(auth, window, "Too many authentication attempts, please try again later")
}

func (middleware *Middleware) GeneralLimiter() fiber.Handler {
	window, _, general, _ := middleware.GetRateLimitConfig()
	return middleware.newLimiter(general, window, "Too many requests, please try again later")
}

func (middleware *Middleware) MessageLimiter() fiber.Handler {
	window, _, _, message := middleware.GetRateLimitConfig()
	return middleware.newLimiter(message, window, "Too many messages, please slow down")
}
