package test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/sink"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

const eventWait = 2 * time.Second

// silenceWindow is how long we watch a sink to assert nothing else arrives.
const silenceWindow = 150 * time.Millisecond

// relayFixture wires the real runtime against a real store, transport excluded.
// Each participant is a raw command channel plus a buffered sink, exactly what
// the websocket layer would hand to the runtime.
type relayFixture struct {
	log      *slog.Logger
	registry *runtime.Registry
	relay    *runtime.Relay
	presence *runtime.Presence
	users    *repositories.UserRepository
	messages *repositories.MessageRepository
}

type participant struct {
	id      domain.ConnID
	sink    *sink.WsSink
	inbound chan domain.Command
	done    chan struct{}
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()

	opts := badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	registry := runtime.NewRegistry()
	relay := runtime.NewRelay(log, registry, time.Second)
	users := repositories.NewUserRepository(db)

	return &relayFixture{
		log:      log,
		registry: registry,
		relay:    relay,
		presence: runtime.NewPresence(log, users, relay),
		users:    users,
		messages: repositories.NewMessageRepository(db, log),
	}
}

// registerUser creates the account so presence writes have a record to flip.
func (f *relayFixture) registerUser(t *testing.T, username string) {
	t.Helper()
	_, err := f.users.CreateUser(username, "irrelevant-hash")
	require.NoError(t, err)
}

func (f *relayFixture) connect(t *testing.T) *participant {
	t.Helper()

	p := &participant{
		id:      domain.NewConnID(),
		sink:    sink.NewWsSink(f.log, 64),
		inbound: make(chan domain.Command, 8),
		done:    make(chan struct{}),
	}
	f.registry.Open(p.id, p.sink)

	conn := runtime.NewConnection(f.log, p.id, p.inbound,
		f.registry, f.presence, f.relay, f.messages)
	go func() {
		_ = conn.Run(context.Background())
		close(p.done)
	}()
	return p
}

func (p *participant) send(cmd domain.Command) {
	p.inbound <- cmd
}

// disconnect closes the transport side and waits for teardown to finish,
// so presence writes are visible once it returns.
func (p *participant) disconnect(t *testing.T) {
	t.Helper()
	close(p.inbound)
	select {
	case <-p.done:
	case <-time.After(eventWait):
		t.Fatal("Connection handler did not terminate on disconnect")
	}
}

func (p *participant) waitEvent(t *testing.T) event.Event {
	t.Helper()
	select {
	case e := <-p.sink.Events:
		return e
	case <-time.After(eventWait):
		t.Fatal("Timed out waiting for an event")
		return nil
	}
}

func (p *participant) assertSilent(t *testing.T) {
	t.Helper()
	select {
	case e := <-p.sink.Events:
		t.Fatalf("Unexpected event %q", e.Kind())
	case <-time.After(silenceWindow):
	}
}

// joinAndSettle claims the username and waits until every watcher saw the
// userOnline notification, making the following steps deterministic.
func joinAndSettle(t *testing.T, joiner *participant, username string, watchers ...*participant) {
	t.Helper()
	joiner.send(domain.JoinCommand{Conn: joiner.id, Username: username})
	for _, w := range watchers {
		require.Equal(t, event.UserOnline{Username: username}, w.waitEvent(t))
	}
}

func TestPresence_Join_Then_Disconnect(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	f.registerUser(t, "alice")

	alice := f.connect(t)
	joinAndSettle(t, alice, "alice", alice)

	stored, err := f.users.GetUserByUsername("alice")
	req.NoError(err)
	req.True(stored.Online)

	alice.disconnect(t)

	stored, err = f.users.GetUserByUsername("alice")
	req.NoError(err)
	req.False(stored.Online)
}

func TestPresence_Offline_Notified_Exactly_Once(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	f.registerUser(t, "alice")
	f.registerUser(t, "bob")

	alice := f.connect(t)
	bob := f.connect(t)
	joinAndSettle(t, alice, "alice", alice, bob)
	joinAndSettle(t, bob, "bob", alice, bob)

	alice.disconnect(t)

	req.Equal(event.UserOffline{Username: "alice"}, bob.waitEvent(t))
	bob.assertSilent(t)
}

func TestPresence_Duplicate_Join_Notifies_Again(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	f.registerUser(t, "alice")

	first := f.connect(t)
	second := f.connect(t)
	joinAndSettle(t, first, "alice", first, second)

	// Same username from another connection: at-least-once notification,
	// never a suppressed one.
	joinAndSettle(t, second, "alice", first, second)

	stored, err := f.users.GetUserByUsername("alice")
	req.NoError(err)
	req.True(stored.Online)
}

func TestPresence_Disconnect_Before_Join_Is_Silent(t *testing.T) {
	f := newRelayFixture(t)
	f.registerUser(t, "bob")

	bob := f.connect(t)
	joinAndSettle(t, bob, "bob", bob)

	ghost := f.connect(t)
	ghost.disconnect(t)

	// No userOffline, no store write: the session never claimed a username.
	bob.assertSilent(t)
}

func TestMessage_Delivered_To_All_Including_Sender(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	f.registerUser(t, "alice")
	f.registerUser(t, "bob")

	alice := f.connect(t)
	bob := f.connect(t)
	joinAndSettle(t, alice, "alice", alice, bob)
	joinAndSettle(t, bob, "bob", alice, bob)

	sent := domain.Message{Sender: "alice", Receiver: "bob", Content: "hello bob", Timestamp: "10:42"}
	alice.send(domain.PostMessageCommand{Conn: alice.id, Message: sent})

	for _, p := range []*participant{alice, bob} {
		e := p.waitEvent(t)
		received, ok := e.(event.MessageReceived)
		req.True(ok)
		req.Equal(sent.Sender, received.Message.Sender)
		req.Equal(sent.Receiver, received.Message.Receiver)
		req.Equal(sent.Content, received.Message.Content)
		req.Equal(sent.Timestamp, received.Message.Timestamp)
		p.assertSilent(t)
	}

	// Persistence happened before any delivery, so the record is visible now.
	records, err := f.messages.ListMessages()
	req.NoError(err)
	req.Len(records, 1)
	req.Equal(sent.Content, records[0].Content)
	req.Equal(sent.Sender, records[0].Sender)
}

func TestTyping_Excludes_The_Sender(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	f.registerUser(t, "alice")
	f.registerUser(t, "bob")

	alice := f.connect(t)
	bob := f.connect(t)
	joinAndSettle(t, alice, "alice", alice, bob)
	joinAndSettle(t, bob, "bob", alice, bob)

	payload := json.RawMessage(`{"username":"alice"}`)
	alice.send(domain.TypingCommand{Conn: alice.id, Payload: payload})

	typing, ok := bob.waitEvent(t).(event.Typing)
	req.True(ok)
	req.JSONEq(string(payload), string(typing.Payload))

	alice.assertSilent(t)
}
