package event

import (
	"chat-relay/domain"
	"encoding/json"
)

// Event is an outbound notification fanned out to connected clients.
// Kind is the wire event name as clients see it.
type Event interface {
	Kind() string
}

type UserOnline struct {
	Username string
}

func (e UserOnline) Kind() string { return "userOnline" }

type UserOffline struct {
	Username string
}

func (e UserOffline) Kind() string { return "userOffline" }

type MessageReceived struct {
	Message domain.Message
}

func (e MessageReceived) Kind() string { return "message" }

// Typing carries the sender's indicator payload verbatim.
type Typing struct {
	Payload json.RawMessage
}

func (e Typing) Kind() string { return "typing" }
