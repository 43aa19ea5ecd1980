package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/charbodjc/daddy-caddy/internal/models"
	"github.com/charbodjc/daddy-caddy/internal/services"
)

// AddMediaRequest is the JSON body of POST /api/v1/media.
type AddMediaRequest struct {
	URI         string           `json:"uri"`         // Required: where the file lives on the device
	Type        models.MediaType `json:"type"`        // Required: "photo" or "video"
	RoundID     *string          `json:"roundId"`     // Optional: must name an existing round
	HoleNumber  *int             `json:"holeNumber"`  // Optional: 1..18
	Timestamp   string           `json:"timestamp"`   // Optional: RFC 3339; empty means now
	Description *string          `json:"description"` // Optional caption
}

// ListMedia handles GET /api/v1/media?roundId=&holeNumber=.
func ListMedia(media *services.MediaService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Both query parameters are optional; an absent one matches everything.
		var f services.MediaFilter
		if id := c.Query("roundId"); id != "" {
			f.RoundID = &id
		}
		hole, err := optionalInt(c.Query("holeNumber"))
		if err != nil {
			return badRequest(c, "holeNumber must be an integer")
		}
		f.HoleNumber = hole

		list, err := media.ListMedia(c.UserContext(), f)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(list)
	}
}

// AddMedia handles POST /api/v1/media.
func AddMedia(media *services.MediaService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req AddMediaRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		ts, err := parseDate(req.Timestamp)
		if err != nil {
			return badRequest(c, "timestamp must be RFC 3339")
		}
		m, err := media.AddMedia(c.UserContext(), services.NewMedia{
			URI:         req.URI,
			Type:        req.Type,
			RoundID:     req.RoundID,
			HoleNumber:  req.HoleNumber,
			Timestamp:   ts,
			Description: req.Description,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	}
}

// DeleteMedia handles DELETE /api/v1/media/:id.
func DeleteMedia(media *services.MediaService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := media.DeleteMedia(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
