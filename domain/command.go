package domain

import "encoding/json"

// Command is an inbound client intent, always tied to the connection
// that produced it. Commands for one connection are processed in order.
type Command interface {
	ConnID() ConnID
}

type JoinCommand struct {
	Conn     ConnID
	Username string
}

func (c JoinCommand) ConnID() ConnID { return c.Conn }

type PostMessageCommand struct {
	Conn    ConnID
	Message Message
}

func (c PostMessageCommand) ConnID() ConnID { return c.Conn }

// TypingCommand carries an opaque typing indicator.
// The payload is forwarded verbatim to the other participants.
type TypingCommand struct {
	Conn    ConnID
	Payload json.RawMessage
}

func (c TypingCommand) ConnID() ConnID { return c.Conn }
