package visibility

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"factory-server/internal/tile"

	"github.com/redis/go-redis/v9"
)

// Cache stores computed visible sets per player and region.
type Cache interface {
	Get(ctx context.Context, playerID, region int) (*Set, bool, error)
	Put(ctx context.Context, playerID, region int, s *Set) error
	Invalidate(ctx context.Context, playerID, region int) error
}

type cacheKey struct {
	playerID int
	region   int
}

type MemoryCache struct {
	mu   sync.RWMutex
	sets map[cacheKey]*Set
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{sets: make(map[cacheKey]*Set)}
}

func (c *MemoryCache) Get(_ context.Context, playerID, region int) (*Set, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sets[cacheKey{playerID, region}]
	return s, ok, nil
}

func (c *MemoryCache) Put(_ context.Context, playerID, region int, s *Set) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets[cacheKey{playerID, region}] = s
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, playerID, region int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sets, cacheKey{playerID, region})
	return nil
}

// marker keeps an empty visible set distinguishable from a cache miss,
// since redis drops empty sets.
const marker = "*"

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	logger.Debug("Initializing redis visibility cache", "ttl", ttl)

	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func redisKey(playerID, region int) string {
	return fmt.Sprintf("fog:%d:%d", playerID, region)
}

func (c *RedisCache) Get(ctx context.Context, playerID, region int) (*Set, bool, error) {
	logger := c.logger.With("component", "visibility_cache", "operation", "get", "player_id", playerID, "region", region)

	members, err := c.client.SMembers(ctx, redisKey(playerID, region)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		logger.Error("Failed to read visible set", "error", err)
		return nil, false, fmt.Errorf("failed to read visible set: %w", err)
	}
	if len(members) == 0 {
		logger.Debug("Visible set cache miss")
		return nil, false, nil
	}

	s := NewSet()
	for _, m := range members {
		if m == marker {
			continue
		}
		coord, err := tile.ParseCoord(m)
		if err != nil {
			logger.Warn("Skipping malformed tile key", "key", m, "error", err)
			continue
		}
		s.Add(coord)
	}

	logger.Debug("Visible set cache hit", "tiles", s.Len())
	return s, true, nil
}

func (c *RedisCache) Put(ctx context.Context, playerID, region int, s *Set) error {
	key := redisKey(playerID, region)
	members := make([]any, 0, s.Len()+1)
	members = append(members, marker)
	for _, k := range s.Keys() {
		members = append(members, k)
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.SAdd(ctx, key, members...)
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	if err != nil {
		c.logger.Error("Failed to store visible set", "error", err, "player_id", playerID, "region", region)
		return fmt.Errorf("failed to store visible set: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, playerID, region int) error {
	if err := c.client.Del(ctx, redisKey(playerID, region)).Err(); err != nil {
		c.logger.Error("Failed to invalidate visible set", "error", err, "player_id", playerID, "region", region)
		return fmt.Errorf("failed to invalidate visible set: %w", err)
	}
	return nil
}
