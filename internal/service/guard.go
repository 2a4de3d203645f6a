package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"duck-storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Guard admits at most one checkout per account at a time. The in-process set always
// applies; the distributed lock, when configured, extends that across instances.
type Guard struct {
	mu       sync.Mutex
	inflight map[int64]struct{}
	locker   Locker
	ttl      time.Duration
	logger   *zap.Logger
}

// NewGuard creates a guard; locker may be nil
func NewGuard(locker Locker, ttl time.Duration) *Guard {
	return &Guard{
		inflight: make(map[int64]struct{}),
		locker:   locker,
		ttl:      ttl,
		logger:   util.GetLogger(),
	}
}

func lockKey(accountID int64) string {
	return fmt.Sprintf("checkout:%d", accountID)
}

// Enter claims the account or returns ErrCheckoutInFlight. The returned release must be called
// exactly once, on completion or abandonment.
func (g *Guard) Enter(ctx context.Context, accountID int64) (func(), error) {
	g.mu.Lock()
	if _, busy := g.inflight[accountID]; busy {
		g.mu.Unlock()
		return nil, ErrCheckoutInFlight
	}
	g.inflight[accountID] = struct{}{}
	g.mu.Unlock()

	owner := ""
	if g.locker != nil {
		token := uuid.New().String()
		ok, err := g.locker.AcquireLock(ctx, lockKey(accountID), token, g.ttl)
		switch {
		case err != nil:
			// Redis being down must not block buying ducks; the local set still holds.
			g.logger.Warn("Checkout lock unavailable, using local guard only",
				zap.Int64("account_id", accountID),
				zap.Error(err))
		case !ok:
			g.leave(accountID)
			return nil, ErrCheckoutInFlight
		default:
			owner = token
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if owner != "" {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := g.locker.ReleaseLock(ctx, lockKey(accountID), owner); err != nil {
					g.logger.Warn("Failed to release checkout lock",
						zap.Int64("account_id", accountID),
						zap.Error(err))
				}
			}
			g.leave(accountID)
		})
	}, nil
}

func (g *Guard) leave(accountID int64) {
	g.mu.Lock()
	delete(g.inflight, accountID)
	g.mu.Unlock()
}
