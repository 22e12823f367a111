package apikey

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/organaizer/config"
)

// =============================================================================
// 🧱 Redis Key 集合
// =============================================================================

// RedisStore 以 Redis Set 保存 API Key，运维可在运行时增删
type RedisStore struct {
	client  *redis.Client
	keySet  string
	timeout time.Duration
	logger  *zap.Logger
	mu      sync.RWMutex
	closed  bool
}

// NewRedisStore 连接 Redis 并校验可达
func NewRedisStore(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	keySet := cfg.KeySet
	if keySet == "" {
		keySet = "organaizer:api_keys"
	}

	logger.Info("redis api key store connected",
		zap.String("addr", cfg.Addr),
		zap.String("key_set", keySet),
	)

	return &RedisStore{
		client:  client,
		keySet:  keySet,
		timeout: timeout,
		logger:  logger.With(zap.String("component", "apikey_redis")),
	}, nil
}

// Contains 实现 Store
func (s *RedisStore) Contains(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, ErrStoreClosed
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ok, err := s.client.SIsMember(ctx, s.keySet, key).Result()
	if err != nil {
		s.logger.Error("api key lookup failed", zap.Error(err))
		return false, fmt.Errorf("redis lookup failed: %w", err)
	}
	return ok, nil
}

// Add 写入 Key
func (s *RedisStore) Add(ctx context.Context, keys ...string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}
	if len(keys) == 0 {
		return nil
	}

	members := make([]any, len(keys))
	for i, k := range keys {
		members[i] = k
	}
	if err := s.client.SAdd(ctx, s.keySet, members...).Err(); err != nil {
		return fmt.Errorf("redis add failed: %w", err)
	}
	return nil
}

// Remove 吊销 Key
func (s *RedisStore) Remove(ctx context.Context, keys ...string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}
	if len(keys) == 0 {
		return nil
	}

	members := make([]any, len(keys))
	for i, k := range keys {
		members[i] = k
	}
	if err := s.client.SRem(ctx, s.keySet, members...).Err(); err != nil {
		return fmt.Errorf("redis remove failed: %w", err)
	}
	return nil
}

// Name 实现 Store
func (s *RedisStore) Name() string { return "redis" }

// Ping 检查 Redis 连接
func (s *RedisStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}
	return s.client.Ping(ctx).Err()
}

// Close 关闭连接
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Info("closing redis api key store")
	return s.client.Close()
}
