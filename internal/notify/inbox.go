package notify

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"duck-storefront/internal/util"

	"go.uber.org/zap"
)

// Inbox queues notifications per browsing session until the UI drains them
type Inbox interface {
	For(sessionID string) Sink
	Drain(ctx context.Context, sessionID string) ([]Notification, error)
}

// MemoryInbox keeps the newest max notifications per session in memory
type MemoryInbox struct {
	mu     sync.Mutex
	max    int
	queues map[string][]Notification
}

// NewMemoryInbox creates an in-memory inbox
func NewMemoryInbox(max int) *MemoryInbox {
	return &MemoryInbox{max: max, queues: make(map[string][]Notification)}
}

func (m *MemoryInbox) For(sessionID string) Sink {
	return sinkFunc(func(n Notification) {
		m.mu.Lock()
		defer m.mu.Unlock()

		q := append(m.queues[sessionID], n)
		if len(q) > m.max {
			q = q[len(q)-m.max:]
		}
		m.queues[sessionID] = q
	})
}

func (m *MemoryInbox) Drain(_ context.Context, sessionID string) ([]Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.queues[sessionID]
	delete(m.queues, sessionID)
	if q == nil {
		q = []Notification{}
	}
	return q, nil
}

// listStore is the slice of the Redis client the inbox needs
type listStore interface {
	PushNotification(ctx context.Context, sessionID string, doc []byte, max int, ttl time.Duration) error
	DrainNotifications(ctx context.Context, sessionID string) ([][]byte, error)
}

// RedisInbox keeps inboxes in Redis so any storefront instance can drain them
type RedisInbox struct {
	lists   listStore
	max     int
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.Logger
}

// NewRedisInbox creates a Redis-backed inbox
func NewRedisInbox(lists listStore, max int, ttl time.Duration) *RedisInbox {
	return &RedisInbox{
		lists:   lists,
		max:     max,
		ttl:     ttl,
		timeout: 2 * time.Second,
		logger:  util.GetLogger(),
	}
}

func (r *RedisInbox) For(sessionID string) Sink {
	return sinkFunc(func(n Notification) {
		doc, err := json.Marshal(n)
		if err != nil {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			defer cancel()

			if err := r.lists.PushNotification(ctx, sessionID, doc, r.max, r.ttl); err != nil {
				r.logger.Warn("Failed to queue notification",
					zap.String("session_id", sessionID),
					zap.Error(err))
			}
		}()
	})
}

// Drain returns queued notifications oldest first
func (r *RedisInbox) Drain(ctx context.Context, sessionID string) ([]Notification, error) {
	docs, err := r.lists.DrainNotifications(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := make([]Notification, 0, len(docs))
	for _, doc := range docs {
		var n Notification
		if err := json.Unmarshal(doc, &n); err != nil {
			r.logger.Warn("Dropping undecodable notification", zap.Error(err))
			continue
		}
		out = append(out, n)
	}
	// pushes are concurrent, so list order is only approximately emission order
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}
