package model

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that owns clubs and auth tokens
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"password_hash"`
	Audit
}

func (u *User) EntityID() uuid.UUID      { return u.ID }
func (u *User) SetEntityID(id uuid.UUID) { u.ID = id }
func (u *User) SeedHistory()             {}
func (u *User) AdvanceHistory(_ *User)   {}

// Clone returns a copy of the user
func (u User) Clone() User {
	return u
}

// WithDisplayName returns a copy with the display name replaced
func (u User) WithDisplayName(name string) User {
	u.DisplayName = name
	return u
}

// AuthToken is an issued login session belonging to a user.
// Only a hash of the bearer secret is persisted.
type AuthToken struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	Audit
}

func (t *AuthToken) EntityID() uuid.UUID         { return t.ID }
func (t *AuthToken) SetEntityID(id uuid.UUID)    { t.ID = id }
func (t *AuthToken) SeedHistory()                {}
func (t *AuthToken) AdvanceHistory(_ *AuthToken) {}

// Clone returns a copy of the token
func (t AuthToken) Clone() AuthToken {
	return t
}

// Expired reports whether the token is no longer valid at now
func (t AuthToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
