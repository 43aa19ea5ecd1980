// cmd/server/main.go
// Entry point of the Daddy Caddy local API: the round/tournament store and statistics
// engine served over HTTP on the loopback interface for the app running on the same device.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/charbodjc/daddy-caddy/internal/config"
	"github.com/charbodjc/daddy-caddy/internal/database"
	"github.com/charbodjc/daddy-caddy/internal/handlers"
	"github.com/charbodjc/daddy-caddy/internal/live"
	"github.com/charbodjc/daddy-caddy/internal/middleware"
	"github.com/charbodjc/daddy-caddy/internal/services"
	"github.com/charbodjc/daddy-caddy/internal/session"
	"github.com/charbodjc/daddy-caddy/internal/store"
	"github.com/charbodjc/daddy-caddy/internal/summary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	// Open connects and applies any pending embedded migrations.
	db, err := database.Open(cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	log.Info("database ready", "dialect", database.DialectOf(cfg.DatabaseURL))

	st := store.New(db)

	// The hub and the deletion bus hear about every committed change through the store.
	hub := live.NewHub(st, log)
	deletions := live.NewDeletionBus(log)
	live.Attach(st, hub, deletions)

	summarizer := summary.New(cfg.Summary, log)
	if !summarizer.Enabled() {
		log.Info("summary service not configured, using local summaries")
	}

	prefs := session.New(st)
	rounds := services.NewRoundService(st, prefs, summarizer, log)
	deps := handlers.Deps{
		Store:       st,
		Rounds:      rounds,
		Tournaments: services.NewTournamentService(st, rounds, log),
		Media:       services.NewMediaService(st, log),
		Contacts:    services.NewContactService(st, log),
		Session:     prefs,
		Hub:         hub,
		Deletions:   deletions,
		Logger:      log,
	}

	app := fiber.New(fiber.Config{
		AppName:               "Daddy Caddy",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		IdleTimeout:           60 * time.Second,
	})
	app.Use(logger.New())
	// The UI may be served from a dev server on another local port.
	app.Use(cors.New())
	app.Use(middleware.LoopbackOnly())

	handlers.Register(app, deps, middleware.Token(cfg.APIToken))

	if !middleware.IsLoopbackHost(cfg.ListenHost) {
		log.Warn("listening on a non-loopback interface; remote peers will be refused", "host", cfg.ListenHost)
	}

	go func() {
		log.Info("starting server", "address", cfg.Addr(), "env", cfg.Env)
		if err := app.Listen(cfg.Addr()); err != nil {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	// Ending the subscriptions lets open hole streams finish before the deadline.
	hub.Close()
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
