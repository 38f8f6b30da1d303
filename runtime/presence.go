package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
)

// Presence flips the per-user online flag and notifies everyone.
//
// The flag write is an unconditional set, never a compare-and-swap, and the
// notification is at-least-once: marking an already-online user online again
// writes and notifies again. Duplicates are the client's problem.
type Presence struct {
	log   *slog.Logger
	store contract.IPresenceStore
	relay contract.IRelay
}

func NewPresence(log *slog.Logger, store contract.IPresenceStore, relay contract.IRelay) *Presence {
	return &Presence{log: log, store: store, relay: relay}
}

// MarkOnline records the user as online and broadcasts userOnline to all
// connections, the joining one included. A store failure does not suppress
// the notification; the broadcast path stays available and the error is
// returned for the caller to log.
func (p *Presence) MarkOnline(ctx context.Context, username string) error {
	err := p.store.SetOnline(username, true)
	p.relay.BroadcastAll(ctx, event.UserOnline{Username: username})
	if err != nil {
		return fmt.Errorf("%w: set online %q: %v", errors.ErrStoreUnavailable, username, err)
	}
	return nil
}

// MarkOffline records the user as offline and broadcasts userOffline to the
// remaining connections. Same failure policy as MarkOnline.
func (p *Presence) MarkOffline(ctx context.Context, username string) error {
	err := p.store.SetOnline(username, false)
	p.relay.BroadcastAll(ctx, event.UserOffline{Username: username})
	if err != nil {
		return fmt.Errorf("%w: set offline %q: %v", errors.ErrStoreUnavailable, username, err)
	}
	return nil
}
