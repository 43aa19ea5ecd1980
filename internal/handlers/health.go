// Package handlers contains the HTTP route handlers of the local API.
// Each exported function is a handler factory: it takes the services it needs and returns
// a fiber.Handler, so dependencies are injected without globals.
//
// Bodies are JSON. Errors are {"error": "..."} with a status derived from the store's error
// taxonomy (see respondError).
package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck handles GET /health. It reports "ok" when ping succeeds and 503 otherwise.
func HealthCheck(ping func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// The database is the only dependency worth checking; everything else is in-process.
		if err := ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
