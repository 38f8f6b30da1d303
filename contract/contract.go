//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
}

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one client's outbound channel. Consume must not block longer
// than the context allows; a failed delivery is the sink's problem, not the relay's.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// IRegistry maps live connections to sessions and their sinks.
// Operations on distinct connections never contend beyond the map lock.
type IRegistry interface {
	Open(id domain.ConnID, sink EventSink)
	Bind(id domain.ConnID, username string) error
	LookupUsername(id domain.ConnID) (string, bool)
	Close(id domain.ConnID) (string, bool)
	Sinks() []EventSink
	SinksExcept(id domain.ConnID) []EventSink
	Count() int
}

// IRelay fans out one event to a snapshot of currently-open connections.
type IRelay interface {
	BroadcastAll(ctx context.Context, e event.Event)
	BroadcastOthers(ctx context.Context, e event.Event, except domain.ConnID)
}

// IPresence drives online/offline transitions and their notifications.
type IPresence interface {
	MarkOnline(ctx context.Context, username string) error
	MarkOffline(ctx context.Context, username string) error
}

// IPresenceStore is the external collaborator holding the per-user online flag.
// Writes are unconditional sets, not compare-and-swap.
type IPresenceStore interface {
	SetOnline(username string, online bool) error
}

// IMessageStore is the external collaborator persisting chat messages.
type IMessageStore interface {
	StoreMessage(message domain.Message) error
}
