package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const headerName = "X-Ray-Id"

// New returns a middleware that attaches a unique ray_id to every request.
// An incoming X-Ray-Id header is honored so upstream callers can correlate.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(headerName)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Locals("ray_id", rid)
		c.Set(headerName, rid)
		return c.Next()
	}
}
