package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
)

// Cache holds the latest known state of jobs. The store stays authoritative;
// a miss or a cache error always falls back to it.
type Cache interface {
	Get(ctx context.Context, id uuid.UUID) (entity.ExtractJob, bool, error)
	Set(ctx context.Context, job entity.ExtractJob) error
}

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// NewCache builds the cache backend named in cfg.
func NewCache(ctx context.Context, cfg common.CacheConfig, logger *slog.Logger) (Cache, error) {
	switch cfg.Backend {
	case CacheMemory, "":
		return NewMemoryCache(), nil
	case CacheRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		if logger != nil {
			logger.Info("jobs.cache.redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		}
		return NewRedisCache(client, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

type memoryCache struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]entity.ExtractJob
}

func NewMemoryCache() Cache {
	return &memoryCache{jobs: make(map[uuid.UUID]entity.ExtractJob)}
}

func (c *memoryCache) Get(_ context.Context, id uuid.UUID) (entity.ExtractJob, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	j, ok := c.jobs[id]
	return j, ok, nil
}

func (c *memoryCache) Set(_ context.Context, job entity.ExtractJob) error {
	c.mu.Lock()
	c.jobs[job.ID] = job
	c.mu.Unlock()
	return nil
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache stores jobs as JSON under "interlock:job:<id>". ttl <= 0 means no expiry.
func NewRedisCache(client *redis.Client, ttl time.Duration) Cache {
	return &redisCache{client: client, ttl: ttl}
}

func redisKey(id uuid.UUID) string { return "interlock:job:" + id.String() }

func (c *redisCache) Get(ctx context.Context, id uuid.UUID) (entity.ExtractJob, bool, error) {
	raw, err := c.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return entity.ExtractJob{}, false, nil
	}
	if err != nil {
		return entity.ExtractJob{}, false, err
	}
	var j entity.ExtractJob
	if err := json.Unmarshal(raw, &j); err != nil {
		return entity.ExtractJob{}, false, fmt.Errorf("decode cached job: %w", err)
	}
	return j, true, nil
}

func (c *redisCache) Set(ctx context.Context, job entity.ExtractJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, redisKey(job.ID), raw, c.ttl).Err()
}
