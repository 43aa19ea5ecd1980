package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/charbodjc/daddy-caddy/internal/session"
	"github.com/charbodjc/daddy-caddy/internal/store/storetest"
)

func TestActiveRoundPointer(t *testing.T) {
	ctx := context.Background()
	s := session.New(storetest.New(t))

	id, err := s.ActiveRoundID(ctx)
	if err != nil || id != "" {
		t.Fatalf("fresh ActiveRoundID = %q, %v; want empty", id, err)
	}

	if err := s.SetActiveRoundID(ctx, "round-1"); err != nil {
		t.Fatalf("SetActiveRoundID: %v", err)
	}
	if err := s.SetActiveRoundID(ctx, "round-2"); err != nil {
		t.Fatalf("SetActiveRoundID again: %v", err)
	}
	if id, _ := s.ActiveRoundID(ctx); id != "round-2" {
		t.Errorf("ActiveRoundID = %q, want round-2", id)
	}

	if err := s.ClearActiveRoundID(ctx); err != nil {
		t.Fatalf("ClearActiveRoundID: %v", err)
	}
	if err := s.ClearActiveRoundID(ctx); err != nil {
		t.Fatalf("clearing twice: %v", err)
	}
	if id, _ := s.ActiveRoundID(ctx); id != "" {
		t.Errorf("ActiveRoundID after clear = %q", id)
	}
}

func TestPointerJoinsStoreTransaction(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	s := session.New(st)

	_ = st.Transaction(ctx, func(ctx context.Context) error {
		if err := s.SetActiveRoundID(ctx, "doomed"); err != nil {
			t.Fatalf("SetActiveRoundID: %v", err)
		}
		return errors.New("rollback")
	})

	if id, _ := s.ActiveRoundID(ctx); id != "" {
		t.Errorf("pointer survived rollback: %q", id)
	}
}

func TestOnboardingFlag(t *testing.T) {
	ctx := context.Background()
	s := session.New(storetest.New(t))

	if done, err := s.OnboardingCompleted(ctx); err != nil || done {
		t.Fatalf("fresh OnboardingCompleted = %v, %v", done, err)
	}
	if err := s.SetOnboardingCompleted(ctx, true); err != nil {
		t.Fatalf("SetOnboardingCompleted: %v", err)
	}
	if done, _ := s.OnboardingCompleted(ctx); !done {
		t.Error("OnboardingCompleted should be true")
	}
}
