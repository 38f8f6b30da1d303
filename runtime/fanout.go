package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"time"
)

// Relay delivers one event to the snapshot of connections open at call time.
//
// Delivery is best-effort: a sink that fails or times out is skipped silently,
// no error surfaces to the caller. Per connection, events keep the order the
// relay issued them; there is no total order across connections.
type Relay struct {
	log         *slog.Logger
	registry    contract.IRegistry
	sinkTimeout time.Duration
}

func NewRelay(log *slog.Logger, registry contract.IRegistry, sinkTimeout time.Duration) *Relay {
	return &Relay{log: log, registry: registry, sinkTimeout: sinkTimeout}
}

// BroadcastAll delivers to every open connection, originator included.
// Used for presence and chat-message events.
func (r *Relay) BroadcastAll(ctx context.Context, e event.Event) {
	r.deliver(ctx, e, r.registry.Sinks())
}

// BroadcastOthers delivers to every open connection except the excluded one.
// Used for typing signals so the sender never sees its own echo.
func (r *Relay) BroadcastOthers(ctx context.Context, e event.Event, except domain.ConnID) {
	r.deliver(ctx, e, r.registry.SinksExcept(except))
}

func (r *Relay) deliver(ctx context.Context, e event.Event, sinks []contract.EventSink) {
	for _, sink := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, r.sinkTimeout)
		if err := sink.Consume(sinkCtx, e); err != nil {
			// Connection likely closed mid-broadcast, skip it.
			r.log.Debug("Dropped delivery", "event", e.Kind(), "error", err)
		}
		cancel()
	}
}
