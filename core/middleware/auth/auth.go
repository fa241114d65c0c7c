package auth

import "github.com/gofiber/fiber/v2"

// Config holds the auth middleware configuration.
type Config struct {
	// ApiKey is the shared secret expected in the X-Api-Key header.
	// Empty disables authentication.
	ApiKey string
}

// New returns a middleware enforcing the configured API key.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.ApiKey == "" {
			return c.Next()
		}
		if c.Get("X-Api-Key") != cfg.ApiKey {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid api key",
			})
		}
		return c.Next()
	}
}
