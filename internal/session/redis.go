package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/mo"
)

// documentStore is the slice of the Redis client the session store needs
type documentStore interface {
	SaveSession(ctx context.Context, sessionID string, doc []byte, ttl time.Duration) error
	LoadSession(ctx context.Context, sessionID string) ([]byte, bool, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// RedisStore keeps sessions as JSON documents that expire with the browsing session
type RedisStore struct {
	docs documentStore
	ttl  time.Duration
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(docs documentStore, ttl time.Duration) *RedisStore {
	return &RedisStore{docs: docs, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context, id string) (mo.Option[Session], error) {
	doc, ok, err := r.docs.LoadSession(ctx, id)
	if err != nil {
		return mo.None[Session](), err
	}
	if !ok {
		return mo.None[Session](), nil
	}

	var s Session
	if err := json.Unmarshal(doc, &s); err != nil {
		return mo.None[Session](), fmt.Errorf("failed to decode session: %w", err)
	}
	return mo.Some(s), nil
}

func (r *RedisStore) Set(ctx context.Context, s *Session) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return r.docs.SaveSession(ctx, s.ID, doc, r.ttl)
}

func (r *RedisStore) Clear(ctx context.Context, id string) error {
	return r.docs.DeleteSession(ctx, id)
}
