package handlers

// rounds.go serves /api/v1/rounds and the statistics built from them.
//
// A round is created with 18 holes at standard par and becomes the "active" round, the
// one the app reopens on launch. Scoring is an autosave: every hole edit is a PATCH that
// merges into the stored hole and recomputes the round's totals in the same transaction,
// so the response always carries consistent aggregates.

import (
	"github.com/gofiber/fiber/v2"

	"github.com/charbodjc/daddy-caddy/internal/models"
	"github.com/charbodjc/daddy-caddy/internal/services"
	"github.com/charbodjc/daddy-caddy/internal/stats"
)

// CreateRoundRequest is the JSON body of POST /api/v1/rounds.
type CreateRoundRequest struct {
	CourseName     string  `json:"courseName"`     // Required
	Date           string  `json:"date"`           // "YYYY-MM-DD" or RFC 3339; empty means now
	TournamentID   *string `json:"tournamentId"`   // Optional: files the round under a tournament
	TournamentName *string `json:"tournamentName"` // Optional: defaults to the tournament's current name
}

// ListRounds handles GET /api/v1/rounds: every round, most recent first.
func ListRounds(rounds *services.RoundService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := rounds.LoadAllRounds(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(list)
	}
}

// CreateRound handles POST /api/v1/rounds. The new round becomes the active one.
func CreateRound(rounds *services.RoundService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateRoundRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		date, err := parseDate(req.Date)
		if err != nil {
			return badRequest(c, "date must be YYYY-MM-DD or RFC 3339")
		}

		round, err := rounds.CreateRound(c.UserContext(), services.NewRound{
			CourseName:     req.CourseName,
			Date:           date,
			TournamentID:   req.TournamentID,
			TournamentName: req.TournamentName,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(round)
	}
}

// GetRound handles GET /api/v1/rounds/:id.
func GetRound(rounds *services.RoundService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		round, err := rounds.GetRound(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(round)
	}
}

// ActiveRound handles GET /api/v1/rounds/active; 204 when no round is being scored.
func ActiveRound(rounds *services.RoundService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		round, err := rounds.ActiveRound(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		if round == nil {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.JSON(round)
	}
}

// UpdateHole handles PATCH /api/v1/rounds/:id/holes/:number. The body is a partial hole;
// fields left out are unchanged. Responds with the round and its recomputed totals.
func UpdateHole(rounds *services.RoundService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		number, err := c.ParamsInt("number")
		if err != nil {
			return badRequest(c, "hole number must be an integer")
		}
		// HolePatch fields are pointers: only keys present in the body are applied.
		var patch models.HolePatch
		if err := c.BodyParser(&patch); err != nil {
			return badRequest(c, "invalid request body")
		}
		if patch.Empty() {
			return badRequest(c, "no hole fields to update")
		}

		round, err := rounds.UpdateHole(c.UserContext(), c.Params("id"), number, patch)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(round)
	}
}

// FinishRound handles POST /api/v1/rounds/:id/finish.
func FinishRound(rounds *services.RoundService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := rounds.FinishRound(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DeleteRound handles DELETE /api/v1/rounds/:id.
func DeleteRound(rounds *services.RoundService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := rounds.DeleteRound(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// AnalyzeRound handles POST /api/v1/rounds/:id/analysis. ?refresh=true regenerates a
// cached summary.
func AnalyzeRound(rounds *services.RoundService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		text, err := rounds.AnalyzeRound(c.UserContext(), c.Params("id"), c.QueryBool("refresh"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"analysis": text})
	}
}

// AnalyzeHole handles POST /api/v1/rounds/:id/holes/:number/analysis: a summary of one
// hole built from its score, shot log and the media captured on it.
func AnalyzeHole(rounds *services.RoundService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		number, err := c.ParamsInt("number")
		if err != nil {
			return badRequest(c, "hole number must be an integer")
		}
		text, err := rounds.AnalyzeHole(c.UserContext(), c.Params("id"), number)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"analysis": text})
	}
}

// RoundStats handles GET /api/v1/rounds/:id/stats, finished or not.
func RoundStats(rounds *services.RoundService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		round, err := rounds.GetRound(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(stats.ComputeRound(*round))
	}
}

// CareerStats handles GET /api/v1/stats over every finished round.
func CareerStats(rounds *services.RoundService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := rounds.LoadAllRounds(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(stats.Compute(list))
	}
}
