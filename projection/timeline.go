// Package projection builds local views from observed relay events.
// Handles message ordering and the online roster.
// Does not emit events or interact with the transport directly.
package projection

import (
	"sort"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

// Timeline holds a simple local timeline plus the presence roster
// as seen from one connection's event stream.
type Timeline struct {
	Messages []domain.Message
	online   map[string]struct{}
}

func NewTimeline() *Timeline {
	return &Timeline{
		online: make(map[string]struct{}),
	}
}

func (t *Timeline) Consume(e event.Event) {
	switch evt := e.(type) {
	case event.MessageReceived:
		t.Messages = append(t.Messages, evt.Message)
	case event.UserOnline:
		t.online[evt.Username] = struct{}{}
	case event.UserOffline:
		delete(t.online, evt.Username)
	}
}

// Online returns the usernames currently seen online, sorted for display.
func (t *Timeline) Online() []string {
	users := make([]string, 0, len(t.online))
	for username := range t.online {
		users = append(users, username)
	}
	sort.Strings(users)
	return users
}
