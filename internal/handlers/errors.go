package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/charbodjc/daddy-caddy/internal/store"
)

// respondError maps the error taxonomy onto HTTP statuses:
// NotFound 404, ValidationFailed 400, IntegrityViolation 409, anything else 500.
// Storage failures are not echoed to the client.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, store.ErrNotFound):
		status, msg = fiber.StatusNotFound, err.Error()
	case errors.Is(err, store.ErrValidationFailed):
		status, msg = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, store.ErrIntegrityViolation):
		status, msg = fiber.StatusConflict, err.Error()
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// parseDate accepts "2006-01-02" or RFC 3339. An empty string is the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func optionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
