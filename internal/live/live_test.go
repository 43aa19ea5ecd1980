package live_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charbodjc/daddy-caddy/internal/live"
	"github.com/charbodjc/daddy-caddy/internal/models"
	"github.com/charbodjc/daddy-caddy/internal/services"
	"github.com/charbodjc/daddy-caddy/internal/session"
	"github.com/charbodjc/daddy-caddy/internal/store"
	"github.com/charbodjc/daddy-caddy/internal/store/storetest"
)

type noSummary struct{}

func (noSummary) SummarizeRound(context.Context, models.Round, []models.Media) string { return "" }
func (noSummary) SummarizeHole(context.Context, models.Hole, []models.Media) string { return "" }

func setup(t *testing.T) (*store.Store, *services.RoundService, *live.Hub, *live.DeletionBus) {
	t.Helper()
	st := storetest.New(t)
	hub := live.NewHub(st, storetest.Logger())
	bus := live.NewDeletionBus(storetest.Logger())
	live.Attach(st, hub, bus)
	t.Cleanup(hub.Close)
	rounds := services.NewRoundService(st, session.New(st), noSummary{}, storetest.Logger())
	return st, rounds, hub, bus
}

func receive(t *testing.T, sub *live.Subscription) ([]models.Hole, bool) {
	t.Helper()
	select {
	case holes, ok := <-sub.Updates():
		return holes, ok
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
		return nil, false
	}
}

func assertNothingPending(t *testing.T, sub *live.Subscription) {
	t.Helper()
	select {
	case holes, ok := <-sub.Updates():
		t.Fatalf("unexpected delivery (open=%v, %d holes)", ok, len(holes))
	default:
	}
}

func TestSubscribeDeliversInitialAndCommittedSnapshots(t *testing.T) {
	ctx := context.Background()
	_, rounds, hub, _ := setup(t)
	r, err := rounds.CreateRound(ctx, services.NewRound{CourseName: "Bandon"})
	if err != nil {
		t.Fatalf("CreateRound: %v", err)
	}

	sub, err := hub.Subscribe(ctx, r.ID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	initial, _ := receive(t, sub)
	if len(initial) != models.HolesPerRound || initial[0].Strokes != 0 {
		t.Fatalf("initial snapshot = %d holes", len(initial))
	}

	if _, err := rounds.UpdateHole(ctx, r.ID, 1, models.HolePatch{Strokes: models.Ptr(5)}); err != nil {
		t.Fatalf("UpdateHole: %v", err)
	}
	next, _ := receive(t, sub)
	if next[0].Strokes != 5 {
		t.Errorf("hole 1 strokes = %d, want 5", next[0].Strokes)
	}
	assertNothingPending(t, sub)
}

func TestSlowSubscriberOnlySeesNewest(t *testing.T) {
	ctx := context.Background()
	_, rounds, hub, _ := setup(t)
	r, _ := rounds.CreateRound(ctx, services.NewRound{CourseName: "Bandon"})

	sub, err := hub.Subscribe(ctx, r.ID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	for strokes := 3; strokes <= 6; strokes++ {
		if _, err := rounds.UpdateHole(ctx, r.ID, 2, models.HolePatch{Strokes: models.Ptr(strokes)}); err != nil {
			t.Fatalf("UpdateHole: %v", err)
		}
	}

	got, _ := receive(t, sub)
	if got[1].Strokes != 6 {
		t.Errorf("delivered strokes = %d, want newest (6)", got[1].Strokes)
	}
	assertNothingPending(t, sub)
}

func TestOtherRoundsAndRollbacksAreNotDelivered(t *testing.T) {
	ctx := context.Background()
	st, rounds, hub, _ := setup(t)
	watched, _ := rounds.CreateRound(ctx, services.NewRound{CourseName: "A"})
	other, _ := rounds.CreateRound(ctx, services.NewRound{CourseName: "B"})

	sub, err := hub.Subscribe(ctx, watched.ID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()
	receive(t, sub)

	if _, err := rounds.UpdateHole(ctx, other.ID, 1, models.HolePatch{Strokes: models.Ptr(4)}); err != nil {
		t.Fatal(err)
	}
	_ = st.Transaction(ctx, func(ctx context.Context) error {
		if _, err := rounds.UpdateHole(ctx, watched.ID, 1, models.HolePatch{Strokes: models.Ptr(4)}); err != nil {
			t.Fatal(err)
		}
		return context.Canceled
	})
	assertNothingPending(t, sub)
}

func TestCloseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	_, rounds, hub, _ := setup(t)
	r, _ := rounds.CreateRound(ctx, services.NewRound{CourseName: "A"})

	sub, err := hub.Subscribe(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	sub.Close()
	sub.Close()
	if hub.Watching(r.ID) {
		t.Error("hub still watching after Close")
	}

	if _, err := rounds.UpdateHole(ctx, r.ID, 1, models.HolePatch{Strokes: models.Ptr(4)}); err != nil {
		t.Fatal(err)
	}
	// Drain whatever was pending before Close; the channel must then be closed.
	for range sub.Updates() {
	}
}

func TestDeleteRoundEndsSubscriptionsAndBroadcasts(t *testing.T) {
	ctx := context.Background()
	_, rounds, hub, bus := setup(t)
	r, _ := rounds.CreateRound(ctx, services.NewRound{CourseName: "A"})

	sub, err := hub.Subscribe(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	receive(t, sub)
	l := bus.Listen(4)
	defer l.Close()

	if err := rounds.DeleteRound(ctx, r.ID); err != nil {
		t.Fatalf("DeleteRound: %v", err)
	}

	last, ok := receive(t, sub)
	if !ok || len(last) != 0 {
		t.Fatalf("final snapshot = %d holes (open=%v), want empty", len(last), ok)
	}
	if _, ok := receive(t, sub); ok {
		t.Error("subscription still open after round deletion")
	}
	if !sub.Deleted() {
		t.Error("subscription ended by a deletion does not report Deleted")
	}
	sub.Close()

	select {
	case id := <-l.C:
		if id != r.ID {
			t.Errorf("deleted id = %s, want %s", id, r.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no deletion event")
	}
}

func TestHubCloseIsNotADeletion(t *testing.T) {
	ctx := context.Background()
	_, rounds, hub, _ := setup(t)
	r, _ := rounds.CreateRound(ctx, services.NewRound{CourseName: "A"})

	sub, err := hub.Subscribe(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	receive(t, sub)
	hub.Close()

	if _, ok := receive(t, sub); ok {
		t.Fatal("subscription still open after hub shutdown")
	}
	if sub.Deleted() {
		t.Error("shutdown reported as a deletion")
	}
	if _, err := rounds.GetRound(ctx, r.ID); err != nil {
		t.Fatalf("round gone after hub shutdown: %v", err)
	}

	late, err := hub.Subscribe(ctx, r.ID)
	if err != nil {
		t.Fatalf("Subscribe after Close: %v", err)
	}
	if _, ok := receive(t, late); ok || late.Deleted() {
		t.Errorf("late subscription: open=%v deleted=%v, want closed and not deleted", ok, late.Deleted())
	}
}

func TestSubscribeUnknownRoundIsNotFound(t *testing.T) {
	ctx := context.Background()
	_, rounds, hub, _ := setup(t)

	if _, err := hub.Subscribe(ctx, "no-such-round"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing round: err = %v, want ErrNotFound", err)
	}

	r, _ := rounds.CreateRound(ctx, services.NewRound{CourseName: "A"})
	if err := rounds.DeleteRound(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := hub.Subscribe(ctx, r.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleted round: err = %v, want ErrNotFound", err)
	}
	if hub.Watching(r.ID) {
		t.Error("failed subscribe left a registration behind")
	}
}

func TestDeletionBusDropsWhenFull(t *testing.T) {
	bus := live.NewDeletionBus(storetest.Logger())
	l := bus.Listen(1)

	bus.Publish("a")
	bus.Publish("b") // dropped

	if got := <-l.C; got != "a" {
		t.Errorf("got %s, want a", got)
	}
	l.Close()
	l.Close()
	if _, ok := <-l.C; ok {
		t.Error("listener channel still open")
	}
	bus.Publish("c")
}
