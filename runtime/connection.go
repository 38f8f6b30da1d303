package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Connection owns the linear event-processing loop for one transport stream.
//
// States: open and unclaimed, open and claimed (after a join), closed.
// The inbound channel closing is the disconnect signal; after Run returns,
// no further command for this connection id is processed.
type Connection struct {
	id       domain.ConnID
	inbound  <-chan domain.Command
	registry contract.IRegistry
	presence contract.IPresence
	relay    contract.IRelay
	messages contract.IMessageStore
	log      *slog.Logger
}

func NewConnection(log *slog.Logger, id domain.ConnID, inbound <-chan domain.Command,
	registry contract.IRegistry, presence contract.IPresence, relay contract.IRelay,
	messages contract.IMessageStore) *Connection {
	return &Connection{
		id:       id,
		inbound:  inbound,
		registry: registry,
		presence: presence,
		relay:    relay,
		messages: messages,
		log:      log,
	}
}

// Run consumes inbound commands in arrival order until the transport reports
// disconnect (channel close) or the context is canceled. Teardown always runs
// exactly once.
func (c *Connection) Run(ctx context.Context) error {
	defer c.teardown(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd, ok := <-c.inbound:
			if !ok {
				return nil
			}
			c.handle(ctx, cmd)
		}
	}
}

func (c *Connection) handle(ctx context.Context, cmd domain.Command) {
	switch cmd := cmd.(type) {
	case domain.JoinCommand:
		c.handleJoin(ctx, cmd.Username)
	case domain.PostMessageCommand:
		c.handleMessage(ctx, cmd.Message)
	case domain.TypingCommand:
		c.relay.BroadcastOthers(ctx, event.Typing{Payload: cmd.Payload}, c.id)
	default:
		c.log.Debug("Unknown command", "conn_id", c.id)
	}
}

// handleJoin claims the session and flips presence. Losing the bind race with
// disconnect drops the join silently.
func (c *Connection) handleJoin(ctx context.Context, username string) {
	if err := c.registry.Bind(c.id, username); err != nil {
		c.log.Debug("Join dropped", "conn_id", c.id, "username", username, "error", err)
		return
	}
	if err := c.presence.MarkOnline(ctx, username); err != nil {
		// Presence degraded to best effort, the connection stays up.
		c.log.Error("Mark online failed", "username", username, "error", err)
	}
}

// handleMessage persists first, then broadcasts to everyone including the
// sender. A store failure is logged, not retried, and does not block the
// broadcast: availability of the relay path wins over strict persistence.
func (c *Connection) handleMessage(ctx context.Context, msg domain.Message) {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if err := c.messages.StoreMessage(msg); err != nil {
		c.log.Error("Message persistence failed",
			"conn_id", c.id,
			"sender", msg.Sender,
			"error", errors.ErrStoreUnavailable)
	}
	c.relay.BroadcastAll(ctx, event.MessageReceived{Message: msg})
}

// teardown deregisters the session and, if it was claimed, marks the user
// offline. Runs on a detached context so a server shutdown still lets the
// userOffline notification reach the remaining connections.
func (c *Connection) teardown(ctx context.Context) {
	username, claimed := c.registry.Close(c.id)
	if !claimed {
		return
	}
	if err := c.presence.MarkOffline(context.WithoutCancel(ctx), username); err != nil {
		c.log.Error("Mark offline failed", "username", username, "error", err)
	}
}
