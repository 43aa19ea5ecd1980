// Package services holds the managers the local API and CLI call into: the round lifecycle
// (create, autosave hole edits, finish, delete), tournaments with their cascading delete,
// and the media and contact records that hang off them.
//
// Every write runs inside a store transaction, so a manager's multi-step operation commits
// or rolls back as a unit and its committed hole changes reach the live layer.
package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charbodjc/daddy-caddy/internal/models"
	"github.com/charbodjc/daddy-caddy/internal/store"
)

// Session is the slice of the preference store the round manager needs: the pointer to
// the round currently being scored.
type Session interface {
	ActiveRoundID(ctx context.Context) (string, error)
	SetActiveRoundID(ctx context.Context, roundID string) error
	ClearActiveRoundID(ctx context.Context) error
}

// Summarizer turns a round, or one of its holes, into prose. It never fails;
// implementations fall back to a locally built summary.
type Summarizer interface {
	SummarizeRound(ctx context.Context, round models.Round, media []models.Media) string
	SummarizeHole(ctx context.Context, hole models.Hole, media []models.Media) string
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrValidationFailed, fmt.Sprintf(format, args...))
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid("%s is required", field)
	}
	return nil
}

func sortHoles(holes []models.Hole) {
	slices.SortFunc(holes, func(a, b models.Hole) int { return a.HoleNumber - b.HoleNumber })
}

// roundOrder is most recent first; rounds on the same date keep insertion order.
var roundOrder = []store.Order{store.Desc("date"), store.Asc("seq")}
