// Package domain contains core concepts of the relay.
// This file defines Message payloads and related rules.
// Messages are immutable and relayed without interpretation.
package domain

import (
	"github.com/google/uuid"
)

// Message represents one chat payload exchanged between two users.
// Timestamp is the client-supplied value and is passed through untouched;
// the relay never parses or reorders on it.
type Message struct {
	ID        uuid.UUID `json:"-"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Content   string    `json:"message"`
	Timestamp string    `json:"timestamp"`
}
