// Package session holds the authenticated account of each browsing session
// and the single authorization gate every protected page goes through.
package session

import (
	"context"
	"time"

	"duck-storefront/internal/models"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Session binds one browsing context to the account that logged in on it
type Session struct {
	ID        string         `json:"id"`
	Account   models.Account `json:"account"`
	CreatedAt time.Time      `json:"created_at"`
}

// New starts a session for a freshly authenticated account
func New(account models.Account) *Session {
	return &Session{
		ID:        uuid.New().String(),
		Account:   account,
		CreatedAt: time.Now(),
	}
}

// AccountID is the id every protected operation keys off
func (s Session) AccountID() int64 {
	return s.Account.ID
}

// Store keeps sessions for their browsing lifetime. Writes are last-write-wins.
type Store interface {
	// Load returns the session or None when the browsing context is unauthenticated.
	Load(ctx context.Context, id string) (mo.Option[Session], error)
	// Set replaces the session atomically.
	Set(ctx context.Context, s *Session) error
	// Clear removes the session; clearing an absent session is not an error.
	Clear(ctx context.Context, id string) error
}
