package gateway

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	connID := domain.ConnID("conn-1")

	t.Run("should parse a join frame", func(t *testing.T) {
		req := require.New(t)

		cmd, err := ParseCommand(connID, []byte(`{"event":"join","data":"alice"}`))

		req.NoError(err)
		join, ok := cmd.(domain.JoinCommand)
		req.True(ok)
		req.Equal(connID, join.Conn)
		req.Equal("alice", join.Username)
	})

	t.Run("should parse a message frame", func(t *testing.T) {
		req := require.New(t)
		raw := []byte(`{"event":"message","data":{"sender":"alice","receiver":"bob","message":"hello","timestamp":"10:42"}}`)

		cmd, err := ParseCommand(connID, raw)

		req.NoError(err)
		post, ok := cmd.(domain.PostMessageCommand)
		req.True(ok)
		req.Equal("alice", post.Message.Sender)
		req.Equal("bob", post.Message.Receiver)
		req.Equal("hello", post.Message.Content)
		req.Equal("10:42", post.Message.Timestamp)
	})

	t.Run("should carry a typing payload verbatim", func(t *testing.T) {
		req := require.New(t)

		cmd, err := ParseCommand(connID, []byte(`{"event":"typing","data":{"who":"alice"}}`))

		req.NoError(err)
		typing, ok := cmd.(domain.TypingCommand)
		req.True(ok)
		req.JSONEq(`{"who":"alice"}`, string(typing.Payload))
	})

	t.Run("should reject an unknown event name", func(t *testing.T) {
		req := require.New(t)

		_, err := ParseCommand(connID, []byte(`{"event":"shutdown","data":null}`))

		req.Error(err)
		req.Contains(err.Error(), "unknown event")
	})

	t.Run("should reject a malformed frame", func(t *testing.T) {
		req := require.New(t)

		_, err := ParseCommand(connID, []byte(`not json`))

		req.Error(err)
	})

	t.Run("should reject a join frame with a non string payload", func(t *testing.T) {
		req := require.New(t)

		_, err := ParseCommand(connID, []byte(`{"event":"join","data":{"nested":true}}`))

		req.Error(err)
	})
}

func TestEncodeCommand(t *testing.T) {
	connID := domain.ConnID("conn-1")

	t.Run("should mirror ParseCommand for a join", func(t *testing.T) {
		req := require.New(t)

		raw, err := EncodeCommand(domain.JoinCommand{Conn: connID, Username: "alice"})
		req.NoError(err)

		cmd, err := ParseCommand(connID, raw)
		req.NoError(err)
		req.Equal(domain.JoinCommand{Conn: connID, Username: "alice"}, cmd)
	})

	t.Run("should mirror ParseCommand for a message", func(t *testing.T) {
		req := require.New(t)
		msg := domain.Message{Sender: "alice", Receiver: "bob", Content: "hello", Timestamp: "10:42"}

		raw, err := EncodeCommand(domain.PostMessageCommand{Conn: connID, Message: msg})
		req.NoError(err)

		cmd, err := ParseCommand(connID, raw)
		req.NoError(err)
		post, ok := cmd.(domain.PostMessageCommand)
		req.True(ok)
		req.Equal(msg, post.Message)
	})
}

func TestDecodeEvent(t *testing.T) {
	t.Run("should mirror EncodeEvent for presence and messages", func(t *testing.T) {
		req := require.New(t)
		events := []event.Event{
			event.UserOnline{Username: "alice"},
			event.UserOffline{Username: "alice"},
			event.MessageReceived{Message: domain.Message{Sender: "alice", Content: "hello", Timestamp: "10:42"}},
		}

		for _, original := range events {
			raw, err := EncodeEvent(original)
			req.NoError(err)

			decoded, err := DecodeEvent(raw)
			req.NoError(err)
			req.Equal(original, decoded)
		}
	})

	t.Run("should reject an unknown inbound event name", func(t *testing.T) {
		req := require.New(t)

		_, err := DecodeEvent([]byte(`{"event":"join","data":"alice"}`))

		req.Error(err)
	})
}

func TestEncodeEvent(t *testing.T) {
	t.Run("should encode userOnline and userOffline", func(t *testing.T) {
		req := require.New(t)

		online, err := EncodeEvent(event.UserOnline{Username: "alice"})
		req.NoError(err)
		req.JSONEq(`{"event":"userOnline","data":"alice"}`, string(online))

		offline, err := EncodeEvent(event.UserOffline{Username: "alice"})
		req.NoError(err)
		req.JSONEq(`{"event":"userOffline","data":"alice"}`, string(offline))
	})

	t.Run("should encode a message event", func(t *testing.T) {
		req := require.New(t)
		msg := domain.Message{Sender: "alice", Receiver: "bob", Content: "hello", Timestamp: "10:42"}

		raw, err := EncodeEvent(event.MessageReceived{Message: msg})

		req.NoError(err)
		req.JSONEq(`{"event":"message","data":{"sender":"alice","receiver":"bob","message":"hello","timestamp":"10:42"}}`, string(raw))
	})

	t.Run("should round trip a typing payload", func(t *testing.T) {
		req := require.New(t)
		payload := json.RawMessage(`{"who":"bob"}`)

		raw, err := EncodeEvent(event.Typing{Payload: payload})

		req.NoError(err)

		var frame Frame
		req.NoError(json.Unmarshal(raw, &frame))
		req.Equal("typing", frame.Event)
		req.JSONEq(string(payload), string(frame.Data))
	})
}
