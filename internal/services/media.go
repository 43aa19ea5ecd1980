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

// NewMedia is the input to AddMedia. A zero Timestamp means now.
type NewMedia struct {
	URI         string           `json:"uri"`
	Type        models.MediaType `json:"type"`
	RoundID     *string          `json:"roundId,omitempty"`
	HoleNumber  *int             `json:"holeNumber,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
	Description *string          `json:"description,omitempty"`
}

// MediaFilter narrows ListMedia. Nil fields match everything.
type MediaFilter struct {
	RoundID    *string
	HoleNumber *int
}

type MediaService struct {
	st  *store.Store
	log *slog.Logger
}

func NewMediaService(st *store.Store, logger *slog.Logger) *MediaService {
	return &MediaService{st: st, log: logger}
}

// AddMedia records a captured photo or video. When RoundID is set the round must exist.
func (s *MediaService) AddMedia(ctx context.Context, in NewMedia) (*models.Media, error) {
	if err := required("uri", in.URI); err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, invalid("unknown media type %q", in.Type)
	}
	if in.HoleNumber != nil && (*in.HoleNumber < 1 || *in.HoleNumber > models.HolesPerRound) {
		return nil, invalid("hole number %d outside 1..%d", *in.HoleNumber, models.HolesPerRound)
	}
	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var m *models.Media
	err := s.st.Transaction(ctx, func(ctx context.Context) error {
		// The reference is by value, so existence is checked here instead of by the schema.
		if in.RoundID != nil {
			n, err := store.Count[models.Round](ctx, s.st, store.Eq("id", *in.RoundID))
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("%w: round %s", store.ErrNotFound, *in.RoundID)
			}
		}
		var err error
		m, err = store.Create(ctx, s.st, func(m *models.Media) {
			m.URI = strings.TrimSpace(in.URI)
			m.Type = in.Type
			m.RoundID = in.RoundID
			m.HoleNumber = in.HoleNumber
			m.Timestamp = ts.UTC()
			m.Description = in.Description
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("media added", "media_id", m.ID, "type", m.Type)
	return m, nil
}

// ListMedia returns matching media oldest first.
func (s *MediaService) ListMedia(ctx context.Context, f MediaFilter) ([]models.Media, error) {
	var where []store.Filter
	if f.RoundID != nil {
		where = append(where, store.Eq("round_id", *f.RoundID))
	}
	if f.HoleNumber != nil {
		where = append(where, store.Eq("hole_number", *f.HoleNumber))
	}
	return store.Query[models.Media](ctx, s.st, store.Q{
		Where:   where,
		OrderBy: []store.Order{store.Asc("timestamp"), store.Asc("id")},
	})
}

func (s *MediaService) DeleteMedia(ctx context.Context, id string) error {
	return store.Delete[models.Media](ctx, s.st, id)
}
