package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/charbodjc/daddy-caddy/internal/live"
	"github.com/charbodjc/daddy-caddy/internal/services"
	"github.com/charbodjc/daddy-caddy/internal/session"
	"github.com/charbodjc/daddy-caddy/internal/store"
)

// Deps are the services the routes are built over.
type Deps struct {
	Store       *store.Store
	Rounds      *services.RoundService
	Tournaments *services.TournamentService
	Media       *services.MediaService
	Contacts    *services.ContactService
	Session     *session.Store
	Hub         *live.Hub
	Deletions   *live.DeletionBus
	Logger      *slog.Logger
}

// Register mounts every route on router. /health is outside the API group so it stays
// reachable without a token.
func Register(router fiber.Router, d Deps, api ...fiber.Handler) {
	router.Get("/health", HealthCheck(d.Store.Ping))

	v1 := router.Group("/api/v1", api...)

	// Static segments come before :id so "active" is not taken for an id.
	v1.Get("/rounds", ListRounds(d.Rounds))
	v1.Post("/rounds", CreateRound(d.Rounds))
	v1.Get("/rounds/active", ActiveRound(d.Rounds))
	v1.Get("/rounds/:id", GetRound(d.Rounds))
	v1.Delete("/rounds/:id", DeleteRound(d.Rounds))
	v1.Patch("/rounds/:id/holes/:number", UpdateHole(d.Rounds))
	v1.Get("/rounds/:id/holes/stream", StreamHoles(d.Hub, d.Logger))
	v1.Post("/rounds/:id/finish", FinishRound(d.Rounds))
	v1.Post("/rounds/:id/analysis", AnalyzeRound(d.Rounds))
	v1.Post("/rounds/:id/holes/:number/analysis", AnalyzeHole(d.Rounds))
	v1.Get("/rounds/:id/stats", RoundStats(d.Rounds))
	v1.Get("/stats", CareerStats(d.Rounds))

	v1.Get("/tournaments", ListTournaments(d.Tournaments))
	v1.Post("/tournaments", CreateTournament(d.Tournaments))
	v1.Get("/tournaments/:id", GetTournament(d.Tournaments))
	v1.Patch("/tournaments/:id", RenameTournament(d.Tournaments))
	v1.Delete("/tournaments/:id", DeleteTournament(d.Tournaments))
	v1.Get("/tournaments/:id/rounds", TournamentRounds(d.Tournaments))

	v1.Get("/media", ListMedia(d.Media))
	v1.Post("/media", AddMedia(d.Media))
	v1.Delete("/media/:id", DeleteMedia(d.Media))

	v1.Get("/contacts", ListContacts(d.Contacts))
	v1.Post("/contacts", AddContact(d.Contacts))
	v1.Patch("/contacts/:id", SetContactActive(d.Contacts))
	v1.Delete("/contacts/:id", DeleteContact(d.Contacts))

	v1.Get("/session/onboarding", GetOnboarding(d.Session))
	v1.Put("/session/onboarding", SetOnboarding(d.Session))

	v1.Get("/events/deletions", StreamDeletions(d.Deletions))
	v1.Get("/export", Export(d.Store))
}
