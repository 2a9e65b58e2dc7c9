// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// WHY `json:"-"` ON PasswordHash?
// The bcrypt hash must never leave the server. Tagging it "-" means that even
// if a handler accidentally encodes a whole User, the hash is dropped.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"` // unique
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Identity is what a verified bearer token tells us about the caller.
// It is rebuilt from the token on every request and never stored.
type Identity struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
}
