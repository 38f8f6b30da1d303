// Package domain contains core concepts of the relay.
// This file defines the User entity and its presence flag.
package domain

import "time"

// User is the durable identity behind a session.
// Online is a plain boolean, not a reference count: with several
// simultaneous sessions for the same username, the last disconnect wins.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Online       bool
	CreatedAt    time.Time
}
