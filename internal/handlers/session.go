package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/charbodjc/daddy-caddy/internal/session"
)

// OnboardingState is the body of GET and PUT /api/v1/session/onboarding.
type OnboardingState struct {
	// Completed is true once the golfer has been through the first-launch screens.
	// A pointer so that PUT can tell a missing field from false.
	Completed *bool `json:"completed"`
}

// GetOnboarding handles GET /api/v1/session/onboarding.
func GetOnboarding(prefs *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		done, err := prefs.OnboardingCompleted(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(OnboardingState{Completed: &done})
	}
}

// SetOnboarding handles PUT /api/v1/session/onboarding.
func SetOnboarding(prefs *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req OnboardingState
		// A non-boolean "completed" fails here rather than being stored.
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if req.Completed == nil {
			return badRequest(c, "completed is required")
		}
		if err := prefs.SetOnboardingCompleted(c.UserContext(), *req.Completed); err != nil {
			return respondError(c, err)
		}
		return c.JSON(req)
	}
}
