package sink

import (
	"chat-relay/domain/event"
	"context"
	"fmt"
	"log/slog"
	"sync"
)

var ErrSinkClosed = fmt.Errorf("sink closed")

// WsSink buffers events for one websocket connection.
// The write pump on the transport side drains Events; Consume only queues.
// When the buffer is full, Consume blocks until the relay's per-sink timeout
// cancels the context, so a stuck client costs at most one timeout per event.
type WsSink struct {
	Events    chan event.Event
	log       *slog.Logger
	done      chan struct{}
	closeOnce sync.Once
}

func NewWsSink(log *slog.Logger, bufferSize int) *WsSink {
	return &WsSink{
		Events: make(chan event.Event, bufferSize),
		log:    log,
		done:   make(chan struct{}),
	}
}

func (s *WsSink) Consume(ctx context.Context, e event.Event) error {
	select {
	case <-s.done:
		return ErrSinkClosed
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close makes every further Consume fail fast. Safe to call more than once.
// The Events channel itself is never closed: the relay may still be holding
// a snapshot that includes this sink.
func (s *WsSink) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Done exposes the closed signal for the write pump.
func (s *WsSink) Done() <-chan struct{} {
	return s.done
}
