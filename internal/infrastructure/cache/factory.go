package cache

import (
	"context"
	"fmt"

	"github.com/cosmetica/backend/internal/domain/bulk"
	"github.com/cosmetica/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// RunLockFactory picks the run lock implementation from configuration
type RunLockFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	connect               func(context.Context, config.RedisConfig) (bulk.RunLock, error)
}

// RunLockFactoryOption is a functional option for configuring the factory
type RunLockFactoryOption func(*RunLockFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) RunLockFactoryOption {
	return func(f *RunLockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-process lock. Default is true.
func WithInMemoryFallback(allow bool) RunLockFactoryOption {
	return func(f *RunLockFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewRunLockFactory creates a new factory
func NewRunLockFactory(cfg config.RedisConfig, opts ...RunLockFactoryOption) *RunLockFactory {
	f := &RunLockFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		connect: func(ctx context.Context, cfg config.RedisConfig) (bulk.RunLock, error) {
			return NewRedisRunLock(ctx, cfg)
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateLock returns the Redis lock when Redis is enabled and reachable,
// otherwise the in-process lock.
func (f *RunLockFactory) CreateLock(ctx context.Context) (bulk.RunLock, error) {
	if !f.redisConfig.Enabled {
		f.logger.Debug("Redis disabled, using in-process run lock")
		return NewInMemoryRunLock(), nil
	}

	lock, err := f.connect(ctx, f.redisConfig)
	if err == nil {
		f.logger.Info("Using Redis run lock", zap.String("addr", f.redisConfig.Addr()))
		return lock, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for the run lock but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-process run lock. "+
		"Concurrent imports from other hosts will not be detected.",
		zap.Error(err),
	)
	return NewInMemoryRunLock(), nil
}
