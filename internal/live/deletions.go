package live

import (
	"log/slog"
	"sync"
)

// DeletionBus broadcasts the ids of deleted rounds to every listener. Sends never block:
// a listener whose buffer is full misses the event and a warning is logged.
type DeletionBus struct {
	log *slog.Logger

	mu        sync.RWMutex
	listeners map[*Listener]struct{}
}

// Listener receives deleted round ids on C until it is closed.
type Listener struct {
	C <-chan string

	bus *DeletionBus
	ch  chan string
}

func NewDeletionBus(logger *slog.Logger) *DeletionBus {
	return &DeletionBus{log: logger, listeners: make(map[*Listener]struct{})}
}

// Listen registers a listener with room for buffer pending events.
func (b *DeletionBus) Listen(buffer int) *Listener {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan string, buffer)
	l := &Listener{C: ch, bus: b, ch: ch}

	b.mu.Lock()
	b.listeners[l] = struct{}{}
	b.mu.Unlock()
	return l
}

// Close unregisters the listener and closes C. Safe to call more than once.
func (l *Listener) Close() {
	b := l.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.listeners[l]; ok {
		delete(b.listeners, l)
		close(l.ch)
	}
}

// Publish announces that roundID was deleted.
func (b *DeletionBus) Publish(roundID string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for l := range b.listeners {
		select {
		case l.ch <- roundID:
		default:
			b.log.Warn("deletion listener full, dropping event", "round_id", roundID)
		}
	}
}
