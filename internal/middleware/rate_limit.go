package middleware

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimit limits requests per owner. The owner is read from the userId field of a JSON body or
// the userId route parameter; anonymous callers are keyed by IP.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			owner := ownerFromRequest(c)
			if owner == "" {
				owner = c.IP()
			}
			return fmt.Sprintf("%s:%s", identifier, owner)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Muitas requisições. Tente novamente em instantes.",
			})
		},
	})
}

func ownerFromRequest(c *fiber.Ctx) string {
	if owner := strings.TrimSpace(c.Params("userId")); owner != "" {
		return owner
	}

	body := c.Body()
	if len(body) == 0 {
		return ""
	}
	var probe struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return ""
	}
	return strings.TrimSpace(probe.UserID)
}
