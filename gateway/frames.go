// Package gateway exposes the relay over HTTP and websocket.
// Wire frames are JSON envelopes {"event": ..., "data": ...}, one per
// transport message, mirroring the event names clients already speak.
package gateway

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"encoding/json"
	"fmt"
)

const (
	eventJoin        = "join"
	eventMessage     = "message"
	eventTyping      = "typing"
	eventUserOnline  = "userOnline"
	eventUserOffline = "userOffline"
)

type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ParseCommand decodes one inbound frame into a command for the given
// connection. Unknown event names are an error; the caller decides whether
// to drop or disconnect.
func ParseCommand(id domain.ConnID, raw []byte) (domain.Command, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch frame.Event {
	case eventJoin:
		var username string
		if err := json.Unmarshal(frame.Data, &username); err != nil {
			return nil, fmt.Errorf("malformed join payload: %w", err)
		}
		return domain.JoinCommand{Conn: id, Username: username}, nil
	case eventMessage:
		var msg domain.Message
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			return nil, fmt.Errorf("malformed message payload: %w", err)
		}
		return domain.PostMessageCommand{Conn: id, Message: msg}, nil
	case eventTyping:
		// Forwarded verbatim, never inspected.
		return domain.TypingCommand{Conn: id, Payload: frame.Data}, nil
	default:
		return nil, fmt.Errorf("unknown event %q", frame.Event)
	}
}

// EncodeCommand serializes one command into a wire frame. It is the
// client-side counterpart of ParseCommand.
func EncodeCommand(cmd domain.Command) ([]byte, error) {
	var name string
	var data []byte
	var err error

	switch cmd := cmd.(type) {
	case domain.JoinCommand:
		name = eventJoin
		data, err = json.Marshal(cmd.Username)
	case domain.PostMessageCommand:
		name = eventMessage
		data, err = json.Marshal(cmd.Message)
	case domain.TypingCommand:
		name = eventTyping
		data = cmd.Payload
	default:
		return nil, fmt.Errorf("unknown command %T", cmd)
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(Frame{Event: name, Data: data})
}

// DecodeEvent decodes one outbound frame back into an event. It is the
// client-side counterpart of EncodeEvent.
func DecodeEvent(raw []byte) (event.Event, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch frame.Event {
	case eventUserOnline:
		var username string
		if err := json.Unmarshal(frame.Data, &username); err != nil {
			return nil, fmt.Errorf("malformed userOnline payload: %w", err)
		}
		return event.UserOnline{Username: username}, nil
	case eventUserOffline:
		var username string
		if err := json.Unmarshal(frame.Data, &username); err != nil {
			return nil, fmt.Errorf("malformed userOffline payload: %w", err)
		}
		return event.UserOffline{Username: username}, nil
	case eventMessage:
		var msg domain.Message
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			return nil, fmt.Errorf("malformed message payload: %w", err)
		}
		return event.MessageReceived{Message: msg}, nil
	case eventTyping:
		return event.Typing{Payload: frame.Data}, nil
	default:
		return nil, fmt.Errorf("unknown event %q", frame.Event)
	}
}

// EncodeEvent serializes one outbound event into a wire frame.
func EncodeEvent(e event.Event) ([]byte, error) {
	var data []byte
	var err error

	switch e := e.(type) {
	case event.UserOnline:
		data, err = json.Marshal(e.Username)
	case event.UserOffline:
		data, err = json.Marshal(e.Username)
	case event.MessageReceived:
		data, err = json.Marshal(e.Message)
	case event.Typing:
		data = e.Payload
	default:
		return nil, fmt.Errorf("unknown outbound event %q", e.Kind())
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(Frame{Event: e.Kind(), Data: data})
}
