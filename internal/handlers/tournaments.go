package handlers

// tournaments.go serves /api/v1/tournaments. A tournament groups rounds played at one
// course over a date range; rounds point at it by id and keep a copy of its name from the
// moment they were created. Deleting a tournament deletes its rounds, their holes and
// their media in a single transaction.

import (
	"github.com/gofiber/fiber/v2"

	"github.com/charbodjc/daddy-caddy/internal/services"
)

// CreateTournamentRequest is the JSON body of POST /api/v1/tournaments.
type CreateTournamentRequest struct {
	Name       string `json:"name"`       // Required: display name
	CourseName string `json:"courseName"` // Required: where it is played
	StartDate  string `json:"startDate"`  // Required: "YYYY-MM-DD" or RFC 3339
	EndDate    string `json:"endDate"`    // Required: same format, not before startDate
}

// RenameTournamentRequest is the JSON body of PATCH /api/v1/tournaments/:id.
type RenameTournamentRequest struct {
	Name string `json:"name"` // The new name; rounds already filed keep the old one
}

// ListTournaments handles GET /api/v1/tournaments, latest start date first.
func ListTournaments(tournaments *services.TournamentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := tournaments.LoadTournaments(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(list)
	}
}

func CreateTournament(tournaments *services.TournamentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateTournamentRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		// Parse dates here so a malformed string is a 400 with a field-specific message;
		// range checks (end before start, missing dates) happen in the service.
		start, err := parseDate(req.StartDate)
		if err != nil {
			return badRequest(c, "startDate must be YYYY-MM-DD or RFC 3339")
		}
		end, err := parseDate(req.EndDate)
		if err != nil {
			return badRequest(c, "endDate must be YYYY-MM-DD or RFC 3339")
		}

		t, err := tournaments.CreateTournament(c.UserContext(), services.NewTournament{
			Name: req.Name, CourseName: req.CourseName, StartDate: start, EndDate: end,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(t)
	}
}

// GetTournament handles GET /api/v1/tournaments/:id.
func GetTournament(tournaments *services.TournamentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := tournaments.GetTournament(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(t)
	}
}

func RenameTournament(tournaments *services.TournamentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RenameTournamentRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		t, err := tournaments.RenameTournament(c.UserContext(), c.Params("id"), req.Name)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(t)
	}
}

// DeleteTournament handles DELETE /api/v1/tournaments/:id, taking its rounds with it.
func DeleteTournament(tournaments *services.TournamentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := tournaments.DeleteTournament(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// TournamentRounds handles GET /api/v1/tournaments/:id/rounds. An unknown id is an empty
// list, not a 404.
func TournamentRounds(tournaments *services.TournamentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := tournaments.GetTournamentRounds(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(list)
	}
}
