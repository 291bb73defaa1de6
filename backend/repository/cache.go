package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SergeyShakirov/TaskGo/backend/config"
	"github.com/SergeyShakirov/TaskGo/backend/model"
	"github.com/SergeyShakirov/TaskGo/backend/pkg/logger"
)

const taskKeyPrefix = "task:"

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Close() error
}

type RedisCache struct {
	client *redis.Client
}

// ConnectRedis dials Redis and verifies the connection with a ping.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return data, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachedTaskRepository serves Get from the cache and invalidates on writes.
// Cache failures are logged and fall through to the underlying repository.
type CachedTaskRepository struct {
	TaskRepository
	cache Cache
	ttl   time.Duration
}

func NewCachedTaskRepository(repo TaskRepository, cache Cache, ttl time.Duration) *CachedTaskRepository {
	return &CachedTaskRepository{TaskRepository: repo, cache: cache, ttl: ttl}
}

func (r *CachedTaskRepository) Get(ctx context.Context, id string) (*model.Task, error) {
	key := taskKeyPrefix + id
	data, err := r.cache.Get(ctx, key)
	if err == nil {
		var t model.Task
		if err := json.Unmarshal(data, &t); err == nil {
			return &t, nil
		}
		logger.Warn(ctx, "discarding corrupt cache entry", "key", key)
	} else if !errors.Is(err, ErrCacheMiss) {
		logger.Warn(ctx, "cache read failed", "key", key, "error", err)
	}

	t, err := r.TaskRepository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(t); err == nil {
		if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
			logger.Warn(ctx, "cache write failed", "key", key, "error", err)
		}
	}
	return t, nil
}

func (r *CachedTaskRepository) Update(ctx context.Context, task *model.Task) error {
	if err := r.TaskRepository.Update(ctx, task); err != nil {
		return err
	}
	r.invalidate(ctx, task.ID)
	return nil
}

func (r *CachedTaskRepository) Delete(ctx context.Context, id string) error {
	if err := r.TaskRepository.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedTaskRepository) Close() error {
	return errors.Join(r.TaskRepository.Close(), r.cache.Close())
}

func (r *CachedTaskRepository) invalidate(ctx context.Context, id string) {
	if err := r.cache.Del(ctx, taskKeyPrefix+id); err != nil {
		logger.Warn(ctx, "cache invalidation failed", "task_id", id, "error", err)
	}
}
