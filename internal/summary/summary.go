// Package summary produces the prose descriptions shown for a hole or a round.
// A remote OpenAI-compatible chat-completions endpoint writes them when one is configured;
// whenever it is not, or the call fails, a deterministic local summary is returned instead.
// Callers always get text back.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/charbodjc/daddy-caddy/internal/config"
	"github.com/charbodjc/daddy-caddy/internal/models"
)

const systemPrompt = "You are a friendly golf caddie. Summarize the golfer's play in two or three " +
	"encouraging sentences. Mention the score name, accuracy and putting. Do not invent facts."

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Service generates summaries.
type Service struct {
	cfg config.SummaryConfig
	log *slog.Logger
}

func New(cfg config.SummaryConfig, logger *slog.Logger) *Service {
	return &Service{cfg: cfg, log: logger}
}

// Enabled reports whether a remote endpoint is configured.
func (s *Service) Enabled() bool {
	return s.cfg.URL != ""
}

// SummarizeHole describes one hole, its shot log and the media captured on it.
func (s *Service) SummarizeHole(ctx context.Context, h models.Hole, media []models.Media) string {
	fallback := HoleFallback(h, media)
	return s.generate(ctx, holePrompt(h, media, fallback), fallback, "hole_number", h.HoleNumber)
}

// SummarizeRound describes a whole round.
func (s *Service) SummarizeRound(ctx context.Context, r models.Round, media []models.Media) string {
	fallback := RoundFallback(r, media)
	return s.generate(ctx, roundPrompt(r, media, fallback), fallback, "round_id", r.ID)
}

func (s *Service) generate(ctx context.Context, prompt, fallback string, logArgs ...any) string {
	if !s.Enabled() {
		return fallback
	}
	text, err := s.complete(ctx, prompt)
	if err != nil {
		s.log.Warn("summary service unavailable, using local summary", append(logArgs, "error", err)...)
		return fallback
	}
	return text
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	agent := fiber.Post(s.cfg.URL)
	if s.cfg.APIKey != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+s.cfg.APIKey)
	}
	agent.JSON(chatRequest{
		Model: s.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   250,
		Temperature: 0.7,
	})
	if s.cfg.Timeout > 0 {
		agent.Timeout(s.cfg.Timeout)
	}
	if err := agent.Parse(); err != nil {
		return "", fmt.Errorf("preparing summary request: %w", err)
	}

	var resp chatResponse
	code, _, errs := agent.Struct(&resp)
	if code != 0 && code != fiber.StatusOK {
		return "", fmt.Errorf("summary service returned status %d", code)
	}
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("summary service returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("summary service returned empty text")
	}
	return text, nil
}

func holePrompt(h models.Hole, media []models.Media, local string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hole %d, par %d.\n", h.HoleNumber, h.Par)
	if h.Played() {
		fmt.Fprintf(&b, "Score: %d strokes (%s).\n", h.Strokes, models.ScoreName(h.Strokes, h.Par))
	}
	if h.ShotData != nil && *h.ShotData != "" {
		fmt.Fprintf(&b, "Shot log: %s\n", *h.ShotData)
	}
	if h.Notes != nil && *h.Notes != "" {
		fmt.Fprintf(&b, "Golfer's notes: %s\n", *h.Notes)
	}
	writeMedia(&b, media)
	fmt.Fprintf(&b, "Facts: %s", local)
	return b.String()
}

func roundPrompt(r models.Round, media []models.Media, local string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round at %s on %s.\n", r.CourseName, r.Date.Format("2006-01-02"))
	for _, h := range r.Holes {
		if h.Played() {
			fmt.Fprintf(&b, "Hole %d par %d: %d (%s)\n", h.HoleNumber, h.Par, h.Strokes, models.ScoreName(h.Strokes, h.Par))
		}
	}
	writeMedia(&b, media)
	fmt.Fprintf(&b, "Facts: %s", local)
	return b.String()
}

func writeMedia(b *strings.Builder, media []models.Media) {
	for _, m := range media {
		if m.Description != nil && *m.Description != "" {
			fmt.Fprintf(b, "%s: %s\n", m.Type, *m.Description)
		}
	}
}
