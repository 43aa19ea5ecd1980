package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/charbodjc/daddy-caddy/internal/backup"
	"github.com/charbodjc/daddy-caddy/internal/store"
)

// Export handles GET /api/v1/export: the whole store as a backup document.
func Export(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := backup.Export(c.UserContext(), st)
		if err != nil {
			return respondError(c, err)
		}
		c.Attachment("daddy-caddy-backup.json")
		return c.JSON(doc)
	}
}
