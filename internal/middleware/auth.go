// Package middleware contains the HTTP middleware for the local API.
// The API only ever serves the app running on the same device, so access control is
// two cheap checks: the peer must be a loopback address, and, when a token is configured,
// the request must carry it.
package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Token returns a middleware that requires "Authorization: Bearer <token>".
// An empty token disables the check.
func Token(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return c.Next()
		}

		// Strip the "Bearer " prefix to get just the raw token
		header := c.Get(fiber.HeaderAuthorization)
		got, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or invalid authorization header",
			})
		}
		return c.Next()
	}
}
