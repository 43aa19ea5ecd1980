package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/charbodjc/daddy-caddy/internal/models"
	"github.com/charbodjc/daddy-caddy/internal/store"
)

// NewRound is the input to CreateRound. A zero Date means now.
type NewRound struct {
	CourseName     string    `json:"courseName"`
	Date           time.Time `json:"date"`
	TournamentID   *string   `json:"tournamentId,omitempty"`
	TournamentName *string   `json:"tournamentName,omitempty"`
}

// Totals are a round's derived aggregates over its played holes.
type Totals struct {
	Score              int
	Putts              int
	FairwaysHit        int
	GreensInRegulation int
}

// ComputeTotals sums strokes and putts and counts fairways and greens hit over the holes
// that have been played. Unplayed holes contribute nothing whatever else is filled in.
func ComputeTotals(holes []models.Hole) Totals {
	var t Totals
	for _, h := range holes {
		if !h.Played() {
			continue
		}
		t.Score += h.Strokes
		if h.Putts != nil {
			t.Putts += *h.Putts
		}
		if h.FairwayHit != nil && *h.FairwayHit {
			t.FairwaysHit++
		}
		if h.GreenInRegulation != nil && *h.GreenInRegulation {
			t.GreensInRegulation++
		}
	}
	return t
}

func (t Totals) columns() map[string]any {
	return map[string]any{
		"total_score":          t.Score,
		"total_putts":          t.Putts,
		"fairways_hit":         t.FairwaysHit,
		"greens_in_regulation": t.GreensInRegulation,
	}
}

// RoundService is the round lifecycle manager. It owns the derived aggregates on Round and
// keeps the session's active-round pointer in step with round creation, finish and delete.
type RoundService struct {
	st         *store.Store
	session    Session
	summarizer Summarizer
	log        *slog.Logger
}

func NewRoundService(st *store.Store, session Session, summarizer Summarizer, logger *slog.Logger) *RoundService {
	return &RoundService{st: st, session: session, summarizer: summarizer, log: logger}
}

// CreateRound inserts the round and its 18 holes at standard par, and makes it the active
// round. A round filed under a tournament takes the tournament's current name unless one
// is given.
func (s *RoundService) CreateRound(ctx context.Context, in NewRound) (*models.Round, error) {
	if err := required("courseName", in.CourseName); err != nil {
		return nil, err
	}
	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}

	var round *models.Round
	err := s.st.Transaction(ctx, func(ctx context.Context) error {
		name := in.TournamentName
		if in.TournamentID != nil {
			t, err := store.Find[models.Tournament](ctx, s.st, *in.TournamentID)
			if err != nil {
				return err
			}
			if name == nil {
				name = models.Ptr(t.Name)
			}
		}

		var err error
		round, err = store.Create(ctx, s.st, func(r *models.Round) {
			r.CourseName = strings.TrimSpace(in.CourseName)
			r.Date = date.UTC()
			r.TournamentID = in.TournamentID
			r.TournamentName = name
		})
		if err != nil {
			return err
		}

		holes := models.SeedHoles(round.ID)
		if err := store.Insert(ctx, s.st, &holes); err != nil {
			return err
		}
		s.st.TouchHoles(ctx, round.ID)
		round.Holes = holes

		return s.session.SetActiveRoundID(ctx, round.ID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("round created", "round_id", round.ID, "course", round.CourseName)
	return round, nil
}

func validatePatch(p models.HolePatch) error {
	if p.Par != nil && !models.ValidPar(*p.Par) {
		return invalid("par must be 3, 4 or 5, got %d", *p.Par)
	}
	if p.Strokes != nil && *p.Strokes < 0 {
		return invalid("strokes must not be negative")
	}
	if p.Putts != nil && *p.Putts < 0 {
		return invalid("putts must not be negative")
	}
	return nil
}

// UpdateHole merges patch into one hole and rewrites the round's aggregates in the same
// transaction. Fields absent from the patch keep their stored values.
func (s *RoundService) UpdateHole(ctx context.Context, roundID string, holeNumber int, patch models.HolePatch) (*models.Round, error) {
	if holeNumber < 1 || holeNumber > models.HolesPerRound {
		return nil, fmt.Errorf("%w: hole number %d outside 1..%d", store.ErrIntegrityViolation, holeNumber, models.HolesPerRound)
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	var round *models.Round
	err := s.st.Transaction(ctx, func(ctx context.Context) error {
		// Read all 18 inside the transaction: the totals are recomputed from this slice,
		// and the store's writer lock keeps another edit from landing in between.
		holes, err := store.Query[models.Hole](ctx, s.st, store.Q{
			Where:   []store.Filter{store.Eq("round_id", roundID)},
			OrderBy: []store.Order{store.Asc("hole_number")},
		})
		if err != nil {
			return err
		}

		idx := -1
		for i := range holes {
			if holes[i].HoleNumber == holeNumber {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: hole %d of round %s", store.ErrNotFound, holeNumber, roundID)
		}

		// Merge, then write the whole hole as a column map so zero values are not skipped.
		h := &holes[idx]
		patch.Apply(h)
		if _, err := store.Update[models.Hole](ctx, s.st,
			[]store.Filter{store.Eq("round_id", roundID), store.Eq("hole_number", holeNumber)},
			map[string]any{
				"par":                 h.Par,
				"strokes":             h.Strokes,
				"fairway_hit":         h.FairwayHit,
				"green_in_regulation": h.GreenInRegulation,
				"putts":               h.Putts,
				"notes":               h.Notes,
				"shot_data":           h.ShotData,
			}); err != nil {
			return err
		}

		if _, err := store.Update[models.Round](ctx, s.st,
			[]store.Filter{store.Eq("id", roundID)}, ComputeTotals(holes).columns()); err != nil {
			return err
		}
		// Observers of this round get the new holes once the transaction commits.
		s.st.TouchHoles(ctx, roundID)

		round, err = store.Find[models.Round](ctx, s.st, roundID)
		if err != nil {
			return err
		}
		round.Holes = holes
		return nil
	})
	if err != nil {
		return nil, err
	}
	return round, nil
}

// FinishRound marks the round finished and clears the active-round pointer.
func (s *RoundService) FinishRound(ctx context.Context, roundID string) error {
	err := s.st.Transaction(ctx, func(ctx context.Context) error {
		n, err := store.Update[models.Round](ctx, s.st,
			[]store.Filter{store.Eq("id", roundID)}, map[string]any{"is_finished": true})
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: round %s", store.ErrNotFound, roundID)
		}
		return s.session.ClearActiveRoundID(ctx)
	})
	if err != nil {
		return err
	}
	s.log.Info("round finished", "round_id", roundID)
	return nil
}

// DeleteRound removes the round with its holes and media.
func (s *RoundService) DeleteRound(ctx context.Context, roundID string) error {
	if err := s.st.Transaction(ctx, func(ctx context.Context) error {
		return s.deleteRound(ctx, roundID)
	}); err != nil {
		return err
	}
	s.log.Info("round deleted", "round_id", roundID)
	return nil
}

// deleteRound must run inside a transaction.
func (s *RoundService) deleteRound(ctx context.Context, roundID string) error {
	if _, err := store.DeleteWhere[models.Hole](ctx, s.st, store.Eq("round_id", roundID)); err != nil {
		return err
	}
	if _, err := store.DeleteWhere[models.Media](ctx, s.st, store.Eq("round_id", roundID)); err != nil {
		return err
	}
	if err := store.Delete[models.Round](ctx, s.st, roundID); err != nil {
		return err
	}
	s.st.TouchHoles(ctx, roundID)
	s.st.RoundDeleted(ctx, roundID)

	active, err := s.session.ActiveRoundID(ctx)
	if err != nil {
		return err
	}
	if active == roundID {
		return s.session.ClearActiveRoundID(ctx)
	}
	return nil
}

// LoadAllRounds returns every round with its holes, most recent first.
func (s *RoundService) LoadAllRounds(ctx context.Context) ([]models.Round, error) {
	return s.queryRounds(ctx, nil)
}

func (s *RoundService) queryRounds(ctx context.Context, where []store.Filter) ([]models.Round, error) {
	rounds, err := store.Query[models.Round](ctx, s.st, store.Q{
		Where:   where,
		OrderBy: roundOrder,
		Preload: []string{"Holes"},
	})
	if err != nil {
		return nil, err
	}
	for i := range rounds {
		sortHoles(rounds[i].Holes)
	}
	return rounds, nil
}

// GetRound returns one round with its holes in hole order.
func (s *RoundService) GetRound(ctx context.Context, roundID string) (*models.Round, error) {
	round, err := store.Find[models.Round](ctx, s.st, roundID, "Holes")
	if err != nil {
		return nil, err
	}
	sortHoles(round.Holes)
	return round, nil
}

// GetHoles returns the holes of a round in hole order.
func (s *RoundService) GetHoles(ctx context.Context, roundID string) ([]models.Hole, error) {
	holes, err := store.Query[models.Hole](ctx, s.st, store.Q{
		Where:   []store.Filter{store.Eq("round_id", roundID)},
		OrderBy: []store.Order{store.Asc("hole_number")},
	})
	if err != nil {
		return nil, err
	}
	if len(holes) == 0 {
		return nil, fmt.Errorf("%w: round %s", store.ErrNotFound, roundID)
	}
	return holes, nil
}

// ActiveRound resolves the session's active-round pointer. It returns nil when no round is
// active; a pointer left at a round that no longer exists is cleared.
func (s *RoundService) ActiveRound(ctx context.Context) (*models.Round, error) {
	id, err := s.session.ActiveRoundID(ctx)
	if err != nil || id == "" {
		return nil, err
	}
	round, err := s.GetRound(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		s.log.Warn("clearing dangling active round", "round_id", id)
		return nil, s.session.ClearActiveRoundID(ctx)
	}
	return round, err
}

// SaveAnalysis caches summary text on the round.
func (s *RoundService) SaveAnalysis(ctx context.Context, roundID, text string) error {
	n, err := store.Update[models.Round](ctx, s.st,
		[]store.Filter{store.Eq("id", roundID)}, map[string]any{"ai_analysis": text})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: round %s", store.ErrNotFound, roundID)
	}
	return nil
}

// AnalyzeRound generates a summary of the round and caches it. A cached summary is
// returned as is unless refresh is set.
func (s *RoundService) AnalyzeRound(ctx context.Context, roundID string, refresh bool) (string, error) {
	round, err := s.GetRound(ctx, roundID)
	if err != nil {
		return "", err
	}
	if round.AIAnalysis != nil && !refresh {
		return *round.AIAnalysis, nil
	}

	media, err := store.Query[models.Media](ctx, s.st, store.Q{
		Where:   []store.Filter{store.Eq("round_id", roundID)},
		OrderBy: []store.Order{store.Asc("timestamp"), store.Asc("id")},
	})
	if err != nil {
		return "", err
	}

	text := s.summarizer.SummarizeRound(ctx, *round, media)
	if err := s.SaveAnalysis(ctx, roundID, text); err != nil {
		return "", err
	}
	return text, nil
}

// AnalyzeHole summarizes one hole of a round from its scoring, its shot log and the media
// captured on it. Hole summaries are not cached.
func (s *RoundService) AnalyzeHole(ctx context.Context, roundID string, holeNumber int) (string, error) {
	if holeNumber < 1 || holeNumber > models.HolesPerRound {
		return "", fmt.Errorf("%w: hole number %d outside 1..%d", store.ErrIntegrityViolation, holeNumber, models.HolesPerRound)
	}
	holes, err := s.GetHoles(ctx, roundID)
	if err != nil {
		return "", err
	}
	idx := slices.IndexFunc(holes, func(h models.Hole) bool { return h.HoleNumber == holeNumber })
	if idx < 0 {
		return "", fmt.Errorf("%w: hole %d of round %s", store.ErrNotFound, holeNumber, roundID)
	}

	media, err := store.Query[models.Media](ctx, s.st, store.Q{
		Where:   []store.Filter{store.Eq("round_id", roundID), store.Eq("hole_number", holeNumber)},
		OrderBy: []store.Order{store.Asc("timestamp"), store.Asc("id")},
	})
	if err != nil {
		return "", err
	}
	return s.summarizer.SummarizeHole(ctx, holes[idx], media), nil
}
