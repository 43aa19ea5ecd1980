// Package live pushes committed changes to in-process consumers without polling.
//
// Hub delivers a round's hole collection to everyone watching that round: an initial
// snapshot on subscribe and a fresh one after every committed transaction that touched
// the round's holes. DeletionBus is the global "a round was deleted" broadcast.
package live

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/charbodjc/daddy-caddy/internal/models"
	"github.com/charbodjc/daddy-caddy/internal/store"
)

// Subscription is one consumer watching one round. Updates carries snapshots in commit
// order; a consumer that falls behind only ever sees the newest snapshot, never an older
// one after a newer one. The channel is closed when the subscription ends; Deleted tells
// a round deletion apart from the consumer or the hub shutting down.
type Subscription struct {
	RoundID string // the round being watched

	hub     *Hub
	mailbox chan []models.Hole // capacity 1: holds the latest undelivered snapshot
	deleted bool               // set before mailbox is closed by End
}

// Updates returns the snapshot channel.
func (s *Subscription) Updates() <-chan []models.Hole {
	return s.mailbox
}

// Deleted reports whether the subscription ended because its round was deleted. It is
// only meaningful once Updates has been closed.
func (s *Subscription) Deleted() bool {
	return s.deleted
}

// Close stops deliveries. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// offer replaces any undelivered snapshot with snap. Callers hold the hub lock, so
// offers never race each other.
func (s *Subscription) offer(snap []models.Hole) {
	select {
	case <-s.mailbox:
	default:
	}
	select {
	case s.mailbox <- snap:
	default:
	}
}

// Hub tracks subscriptions grouped by round id.
//
// Lock order is always the store's write lock first, then mu: Subscribe takes the snapshot
// under the store lock, and refresh runs as a commit listener which already holds it.
type Hub struct {
	st  *store.Store
	log *slog.Logger

	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{} // round id -> its subscribers
	closed bool                                  // set by Close; later subscribers get a closed channel
}

func NewHub(st *store.Store, logger *slog.Logger) *Hub {
	return &Hub{
		st:   st,
		log:  logger,
		subs: make(map[string]map[*Subscription]struct{}),
	}
}

func (h *Hub) loadHoles(ctx context.Context, roundID string) ([]models.Hole, error) {
	return store.Query[models.Hole](ctx, h.st, store.Q{
		Where:   []store.Filter{store.Eq("round_id", roundID)},
		OrderBy: []store.Order{store.Asc("hole_number")},
	})
}

// Subscribe starts watching roundID. The initial snapshot is taken under the store's
// write lock, so no commit can land between it and registration. A round with no holes
// does not exist (every round is created with 18) and yields store.ErrNotFound.
func (h *Hub) Subscribe(ctx context.Context, roundID string) (*Subscription, error) {
	sub := &Subscription{RoundID: roundID, hub: h, mailbox: make(chan []models.Hole, 1)}

	err := h.st.Exclusive(ctx, func(ctx context.Context) error {
		holes, err := h.loadHoles(ctx, roundID)
		if err != nil {
			return err
		}
		if len(holes) == 0 {
			return fmt.Errorf("%w: round %s", store.ErrNotFound, roundID)
		}

		h.mu.Lock()
		defer h.mu.Unlock()
		// After shutdown hand back an ended subscription rather than an error, so
		// consumers follow the same path as when Close races an open stream.
		if h.closed {
			close(sub.mailbox)
			return nil
		}
		// First subscriber for this round creates its set.
		if h.subs[roundID] == nil {
			h.subs[roundID] = make(map[*Subscription]struct{})
		}
		h.subs[roundID][sub] = struct{}{}
		sub.offer(holes)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.subs[sub.RoundID]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.mailbox)
	if len(subs) == 0 {
		delete(h.subs, sub.RoundID)
	}
}

// Watching reports whether anyone is subscribed to roundID.
func (h *Hub) Watching(roundID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[roundID]) > 0
}

// Publish hands snap to every subscriber of roundID.
func (h *Hub) Publish(roundID string, snap []models.Hole) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[roundID] {
		sub.offer(snap)
	}
}

// End closes every subscription to roundID after its pending snapshot and marks them
// Deleted. It is called when the round is deleted.
func (h *Hub) End(roundID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[roundID] {
		// Written before close so a receiver that sees the closed channel also sees it.
		sub.deleted = true
		close(sub.mailbox)
	}
	delete(h.subs, roundID)
}

// Close ends all subscriptions without marking them Deleted; the rounds still exist.
// Later subscribers get an already-closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for roundID, subs := range h.subs {
		for sub := range subs {
			close(sub.mailbox)
		}
		delete(h.subs, roundID)
	}
}

// refresh reloads and publishes the holes of every watched round in c, then ends the
// subscriptions of deleted rounds. It runs as a store commit listener.
func (h *Hub) refresh(ctx context.Context, c store.Changes) {
	for _, roundID := range c.HoleRounds {
		// Nobody is looking: skip the reload.
		if !h.Watching(roundID) {
			continue
		}
		holes, err := h.loadHoles(ctx, roundID)
		if err != nil {
			h.log.Error("loading hole snapshot", "round_id", roundID, "error", err)
			continue
		}
		h.Publish(roundID, holes)
	}
	// A deleted round's holes were touched too, so its subscribers already hold the
	// empty snapshot when their channel closes.
	for _, roundID := range c.DeletedRounds {
		h.End(roundID)
	}
}
