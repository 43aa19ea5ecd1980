package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/charbodjc/daddy-caddy/internal/services"
)

// AddContactRequest is the JSON body of POST /api/v1/contacts.
type AddContactRequest struct {
	Name        string `json:"name"`        // Required
	PhoneNumber string `json:"phoneNumber"` // Required; stored as typed
}

// SetContactActiveRequest is the JSON body of PATCH /api/v1/contacts/:id.
type SetContactActiveRequest struct {
	IsActive *bool `json:"isActive"` // Pointer so a missing field is rejected instead of read as false
}

// ListContacts handles GET /api/v1/contacts; ?active=true skips inactive contacts.
func ListContacts(contacts *services.ContactService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := contacts.ListContacts(c.UserContext(), c.QueryBool("active"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(list)
	}
}

// AddContact handles POST /api/v1/contacts. New contacts start active.
func AddContact(contacts *services.ContactService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req AddContactRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		contact, err := contacts.AddContact(c.UserContext(), req.Name, req.PhoneNumber)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(contact)
	}
}

func SetContactActive(contacts *services.ContactService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req SetContactActiveRequest
		if err := c.BodyParser(&req); err != nil || req.IsActive == nil {
			return badRequest(c, "isActive is required")
		}
		if err := contacts.SetContactActive(c.UserContext(), c.Params("id"), *req.IsActive); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func DeleteContact(contacts *services.ContactService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := contacts.DeleteContact(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
