package live

import (
	"context"

	"github.com/charbodjc/daddy-caddy/internal/store"
)

// Attach wires hub and bus to st's commits. Either may be nil.
func Attach(st *store.Store, hub *Hub, bus *DeletionBus) {
	st.OnCommit(func(ctx context.Context, c store.Changes) {
		if hub != nil {
			hub.refresh(ctx, c)
		}
		if bus != nil {
			for _, id := range c.DeletedRounds {
				bus.Publish(id)
			}
		}
	})
}
