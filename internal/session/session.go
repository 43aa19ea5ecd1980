// Package session is the key/value preference store the app keeps between launches:
// which round is currently being scored, whether onboarding has been completed, and so on.
// It lives in the same database as the rounds so that the active-round pointer can be
// moved in the same transaction as the round it points at.
package session

import (
	"context"
	"strconv"
	"time"

	"gorm.io/gorm/clause"

	"github.com/charbodjc/daddy-caddy/internal/models"
	"github.com/charbodjc/daddy-caddy/internal/store"
)

// Known preference keys.
const (
	KeyActiveRound         = "activeRoundId"
	KeyOnboardingCompleted = "onboardingCompleted"
)

// Store reads and writes preferences. Calls made with a ctx carrying a store transaction
// join that transaction.
type Store struct {
	st *store.Store
}

func New(st *store.Store) *Store {
	return &Store{st: st}
}

// Get returns the value stored under key and whether it was present.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	prefs, err := store.Query[models.Preference](ctx, s.st, store.Q{Where: []store.Filter{store.Eq("key", key)}})
	if err != nil {
		return "", false, err
	}
	if len(prefs) == 0 {
		return "", false, nil
	}
	return prefs[0].Value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.st.Transaction(ctx, func(ctx context.Context) error {
		pref := models.Preference{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
		err := s.st.Conn(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&pref).Error
		return store.Classify(err)
	})
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	_, err := store.DeleteWhere[models.Preference](ctx, s.st, store.Eq("key", key))
	return err
}

// ActiveRoundID returns the id of the round being scored, or "" when there is none.
func (s *Store) ActiveRoundID(ctx context.Context) (string, error) {
	id, _, err := s.Get(ctx, KeyActiveRound)
	return id, err
}

func (s *Store) SetActiveRoundID(ctx context.Context, roundID string) error {
	return s.Set(ctx, KeyActiveRound, roundID)
}

func (s *Store) ClearActiveRoundID(ctx context.Context) error {
	return s.Remove(ctx, KeyActiveRound)
}

// OnboardingCompleted reports whether the golfer has finished onboarding.
func (s *Store) OnboardingCompleted(ctx context.Context) (bool, error) {
	v, ok, err := s.Get(ctx, KeyOnboardingCompleted)
	if err != nil || !ok {
		return false, err
	}
	done, err := strconv.ParseBool(v)
	if err != nil {
		return false, nil
	}
	return done, nil
}

func (s *Store) SetOnboardingCompleted(ctx context.Context, done bool) error {
	return s.Set(ctx, KeyOnboardingCompleted, strconv.FormatBool(done))
}
