package handlers

// events.go serves the live layer as Server-Sent Events. Each stream writes one event
// per snapshot and a comment line as heartbeat; a failed write (client gone) ends it.

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/charbodjc/daddy-caddy/internal/live"
)

const heartbeat = 15 * time.Second

func sseHeaders(c *fiber.Ctx) {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
}

func writeEvent(w *bufio.Writer, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return w.Flush()
}

func writePing(w *bufio.Writer) error {
	if _, err := w.WriteString(": ping\n\n"); err != nil {
		return err
	}
	return w.Flush()
}

// StreamHoles handles GET /api/v1/rounds/:id/holes/stream: the round's holes now and after
// every committed change. The stream ends when the round is deleted.
func StreamHoles(hub *live.Hub, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roundID := c.Params("id")
		// Subscribe answers ErrNotFound for an unknown round, which becomes a 404 before
		// any stream headers are sent.
		sub, err := hub.Subscribe(c.UserContext(), roundID)
		if err != nil {
			return respondError(c, err)
		}

		sseHeaders(c)
		// The writer runs after the handler returns, on fasthttp's connection goroutine;
		// it owns the subscription from here on.
		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer sub.Close()
			ticker := time.NewTicker(heartbeat)
			defer ticker.Stop()
			for {
				select {
				case holes, ok := <-sub.Updates():
					if !ok {
						// Closed either by a deletion or by server shutdown; only the
						// first is announced to the client.
						if sub.Deleted() {
							_ = writeEvent(w, "deleted", fiber.Map{"roundId": roundID})
						}
						return
					}
					if err := writeEvent(w, "holes", holes); err != nil {
						logger.Debug("hole stream closed", "round_id", roundID, "error", err)
						return
					}
				case <-ticker.C:
					if err := writePing(w); err != nil {
						return
					}
				}
			}
		})
		return nil
	}
}

// StreamDeletions handles GET /api/v1/events/deletions: one "deleted" event per removed
// round.
func StreamDeletions(bus *live.DeletionBus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		l := bus.Listen(16)
		sseHeaders(c)
		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer l.Close()
			ticker := time.NewTicker(heartbeat)
			defer ticker.Stop()
			for {
				select {
				case id, ok := <-l.C:
					if !ok {
						return
					}
					if err := writeEvent(w, "deleted", fiber.Map{"roundId": id}); err != nil {
						return
					}
				case <-ticker.C:
					if err := writePing(w); err != nil {
						return
					}
				}
			}
		})
		return nil
	}
}
