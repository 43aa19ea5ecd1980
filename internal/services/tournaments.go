package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charbodjc/daddy-caddy/internal/models"
	"github.com/charbodjc/daddy-caddy/internal/store"
)

// NewTournament is the input to CreateTournament.
type NewTournament struct {
	Name       string    `json:"name"`
	CourseName string    `json:"courseName"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
}

func (in NewTournament) validate() error {
	if err := required("name", in.Name); err != nil {
		return err
	}
	if err := required("courseName", in.CourseName); err != nil {
		return err
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return invalid("startDate and endDate are required")
	}
	if in.EndDate.Before(in.StartDate) {
		return invalid("endDate %s is before startDate %s",
			in.EndDate.Format(time.DateOnly), in.StartDate.Format(time.DateOnly))
	}
	return nil
}

// TournamentService manages tournaments. Deleting one takes its rounds with it, so it
// works through the round manager for the per-round cascade.
type TournamentService struct {
	st     *store.Store
	rounds *RoundService
	log    *slog.Logger
}

func NewTournamentService(st *store.Store, rounds *RoundService, logger *slog.Logger) *TournamentService {
	return &TournamentService{st: st, rounds: rounds, log: logger}
}

func (s *TournamentService) CreateTournament(ctx context.Context, in NewTournament) (*models.Tournament, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	t, err := store.Create(ctx, s.st, func(t *models.Tournament) {
		t.Name = strings.TrimSpace(in.Name)
		t.CourseName = strings.TrimSpace(in.CourseName)
		t.StartDate = in.StartDate.UTC()
		t.EndDate = in.EndDate.UTC()
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("tournament created", "tournament_id", t.ID, "name", t.Name)
	return t, nil
}

// LoadTournaments returns every tournament, latest start date first.
func (s *TournamentService) LoadTournaments(ctx context.Context) ([]models.Tournament, error) {
	return store.Query[models.Tournament](ctx, s.st, store.Q{
		OrderBy: []store.Order{store.Desc("start_date"), store.Asc("seq")},
	})
}

func (s *TournamentService) GetTournament(ctx context.Context, id string) (*models.Tournament, error) {
	return store.Find[models.Tournament](ctx, s.st, id)
}

// RenameTournament changes the tournament's name. Rounds already filed under it keep the
// name they were created with.
func (s *TournamentService) RenameTournament(ctx context.Context, id, name string) (*models.Tournament, error) {
	if err := required("name", name); err != nil {
		return nil, err
	}
	var t *models.Tournament
	err := s.st.Transaction(ctx, func(ctx context.Context) error {
		n, err := store.Update[models.Tournament](ctx, s.st,
			[]store.Filter{store.Eq("id", id)}, map[string]any{"name": strings.TrimSpace(name)})
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: tournament %s", store.ErrNotFound, id)
		}
		t, err = store.Find[models.Tournament](ctx, s.st, id)
		return err
	})
	return t, err
}

// DeleteTournament removes the tournament, every round filed under it, and their holes and
// media. Either all of it goes or none of it does.
func (s *TournamentService) DeleteTournament(ctx context.Context, id string) error {
	var removed int
	err := s.st.Transaction(ctx, func(ctx context.Context) error {
		if _, err := store.Find[models.Tournament](ctx, s.st, id); err != nil {
			return err
		}
		rounds, err := store.Query[models.Round](ctx, s.st, store.Q{
			Where: []store.Filter{store.Eq("tournament_id", id)},
		})
		if err != nil {
			return err
		}
		for _, r := range rounds {
			if err := s.rounds.deleteRound(ctx, r.ID); err != nil {
				return fmt.Errorf("deleting round %s of tournament %s: %w", r.ID, id, err)
			}
		}
		removed = len(rounds)
		return store.Delete[models.Tournament](ctx, s.st, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("tournament deleted", "tournament_id", id, "rounds", removed)
	return nil
}

// GetTournamentRounds returns the rounds filed under a tournament, most recent first.
func (s *TournamentService) GetTournamentRounds(ctx context.Context, tournamentID string) ([]models.Round, error) {
	return s.rounds.queryRounds(ctx, []store.Filter{store.Eq("tournament_id", tournamentID)})
}
