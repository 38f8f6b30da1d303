// Package domain contains core concepts of the relay.
// This file defines connection and session identities.
// No runtime, network, or UI logic should be added here.
package domain

import "github.com/google/uuid"

// ConnID uniquely identifies one live transport stream on this process.
type ConnID string

func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}

// Session binds a connection to a user identity.
// Username stays empty until the client announces itself with a join.
type Session struct {
	Conn     ConnID
	Username string
}

// Claimed reports whether a username has been bound to this session.
func (s Session) Claimed() bool {
	return s.Username != ""
}
