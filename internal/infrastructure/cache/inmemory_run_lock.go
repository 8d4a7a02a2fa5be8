// Package cache provides the import run lock, kept in Redis for shared
// deployments or in process otherwise.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cosmetica/backend/internal/domain/bulk"
	"github.com/google/uuid"
)

type lockEntry struct {
	token     string
	expiresAt time.Time
}

// InMemoryRunLock implements bulk.RunLock within a single process.
// It does not coordinate across instances.
type InMemoryRunLock struct {
	mu    sync.Mutex
	locks map[string]lockEntry
	now   func() time.Time
}

// NewInMemoryRunLock creates an empty in-process lock table
func NewInMemoryRunLock() *InMemoryRunLock {
	return &InMemoryRunLock{
		locks: make(map[string]lockEntry),
		now:   time.Now,
	}
}

// TryAcquire takes key unless an unexpired holder exists
func (l *InMemoryRunLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if held, exists := l.locks[key]; exists && now.Before(held.expiresAt) {
		return "", false, nil
	}

	token := uuid.NewString()
	l.locks[key] = lockEntry{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

// Release frees key if token still owns it
func (l *InMemoryRunLock) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if held, exists := l.locks[key]; exists && held.token == token {
		delete(l.locks, key)
	}
	return nil
}

// Ensure InMemoryRunLock implements RunLock
var _ bulk.RunLock = (*InMemoryRunLock)(nil)
