// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tweet-telegram-relay/internal/domain"
	"tweet-telegram-relay/internal/domain/ports/adapter"

	"github.com/google/uuid"
)

var _ adapter.InstanceLock = (*InstanceLock)(nil)

// InstanceLock is a single-holder lease on key. The holder must Refresh
// before ttl elapses or another instance may take over.
type InstanceLock struct {
	cli RedisClient
	key string
	ttl time.Duration

	mu    sync.Mutex
	token string
}

func NewInstanceLock(c RedisClient, key string, ttl time.Duration) *InstanceLock {
	return &InstanceLock{cli: c, key: key, ttl: ttl}
}

// LockKey scopes the lease to the set of monitored usernames.
func LockKey(fingerprint string) string {
	return "relay:lock:" + fingerprint
}

func (l *InstanceLock) Acquire(ctx context.Context) error {
	token := uuid.NewString()
	var lastErr error
	for i := 0; i < acquireAttempts; i++ {
		if i > 0 {
			if err := waitRetry(ctx, acquireBackoff); err != nil {
				return err
			}
		}
		ok, err := l.cli.SetNX(ctx, l.key, token, l.ttl)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}
		if ok {
			l.mu.Lock()
			l.token = token
			l.mu.Unlock()
			return nil
		}
		lastErr = nil
	}
	if lastErr != nil {
		return fmt.Errorf("acquire %s: %w", l.key, lastErr)
	}
	return domain.ErrLockHeld
}

const (
	acquireAttempts = 5
	acquireBackoff  = 50 * time.Millisecond
)

func waitRetry(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (l *InstanceLock) Refresh(ctx context.Context) error {
	l.mu.Lock()
	token := l.token
	l.mu.Unlock()
	if token == "" {
		return fmt.Errorf("refresh %s: %w", l.key, domain.ErrLockHeld)
	}
	ok, err := l.cli.ExpireIfEquals(ctx, l.key, token, l.ttl)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("refresh %s: %w", l.key, domain.ErrLockHeld)
	}
	return nil
}

func (l *InstanceLock) Release(ctx context.Context) error {
	l.mu.Lock()
	token := l.token
	l.token = ""
	l.mu.Unlock()
	if token == "" {
		return nil
	}
	_, err := l.cli.DelIfEquals(ctx, l.key, token)
	return err
}
