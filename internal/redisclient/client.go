package redisclient

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/release_lock.lua
var releaseLockScript string

type Client struct {
	rdb           *redis.Client
	releaseScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:           rdb,
		releaseScript: redis.NewScript(releaseLockScript),
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks connectivity (readiness probe)
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func inboxKey(sessionID string) string {
	return fmt.Sprintf("inbox:%s", sessionID)
}

// SaveSession stores a session document with a sliding TTL
func (c *Client) SaveSession(ctx context.Context, sessionID string, doc []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, sessionKey(sessionID), doc, ttl).Err()
}

// LoadSession returns the session document; ok is false when none exists
func (c *Client) LoadSession(ctx context.Context, sessionID string) (doc []byte, ok bool, err error) {
	doc, err = c.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load session: %w", err)
	}
	return doc, true, nil
}

// DeleteSession removes the session and its notification inbox
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.rdb.Del(ctx, sessionKey(sessionID), inboxKey(sessionID)).Err()
}

// PushNotification appends to the session inbox, keeping only the newest max entries
func (c *Client) PushNotification(ctx context.Context, sessionID string, doc []byte, max int, ttl time.Duration) error {
	key := inboxKey(sessionID)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, doc)
		pipe.LTrim(ctx, key, int64(-max), -1)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

// DrainNotifications returns and clears the session inbox atomically
func (c *Client) DrainNotifications(ctx context.Context, sessionID string) ([][]byte, error) {
	key := inboxKey(sessionID)
	var lrange *redis.StringSliceCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		lrange = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to drain notifications: %w", err)
	}

	values := lrange.Val()
	docs := make([][]byte, 0, len(values))
	for _, v := range values {
		docs = append(docs, []byte(v))
	}
	return docs, nil
}

// AcquireLock acquires a distributed lock held by owner
func (c *Client) AcquireLock(ctx context.Context, lockKey, owner string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), owner, ttl).Result()
}

// ReleaseLock releases the lock only if owner still holds it
func (c *Client) ReleaseLock(ctx context.Context, lockKey, owner string) error {
	_, err := c.releaseScript.Run(ctx, c.rdb, []string{fmt.Sprintf("lock:%s", lockKey)}, owner).Result()
	if err != nil {
		return fmt.Errorf("release lock script failed: %w", err)
	}
	return nil
}
