// middleware/json.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RequireJSON rejects mutating requests whose body is not declared as JSON.
// GET/DELETE requests carry no body and pass through untouched.
func RequireJSON() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch:
			contentType := string(c.Request().Header.ContentType())
			if !strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Content-Type must be application/json"})
			}
		}
		return c.Next()
	}
}
