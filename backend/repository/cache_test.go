package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SergeyShakirov/TaskGo/backend/config"
)

type mapCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	gets    int
	failGet bool
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet {
		return nil, errors.New("connection refused")
	}
	v, ok := c.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *mapCache) Close() error { return nil }

func (c *mapCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

func TestCachedRepositoryGet(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryTaskRepository(0)
	require.NoError(t, Seed(ctx, inner))
	require.NoError(t, inner.Create(ctx, newTask("t1", 0)))

	cache := newMapCache()
	repo := NewCachedTaskRepository(inner, cache, time.Minute)

	got, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, cache.has("task:t1"))

	// served from cache even after the backing row disappears
	require.NoError(t, inner.Delete(ctx, "t1"))
	cached, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, got.Title, cached.Title)
	require.NotNil(t, cached.Client)
	assert.Equal(t, DemoClient.Name, cached.Client.Name)
}

func TestCachedRepositoryInvalidates(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryTaskRepository(0)
	require.NoError(t, Seed(ctx, inner))
	require.NoError(t, inner.Create(ctx, newTask("t1", 0)))

	cache := newMapCache()
	repo := NewCachedTaskRepository(inner, cache, time.Minute)

	task, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	task.Title = "Renamed"
	require.NoError(t, repo.Update(ctx, task))
	assert.False(t, cache.has("task:t1"))

	got, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)

	require.NoError(t, repo.Delete(ctx, "t1"))
	assert.False(t, cache.has("task:t1"))
	_, err = repo.Get(ctx, "t1")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestCachedRepositoryCacheFailure(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryTaskRepository(0)
	require.NoError(t, Seed(ctx, inner))
	require.NoError(t, inner.Create(ctx, newTask("t1", 0)))

	cache := newMapCache()
	cache.failGet = true
	repo := NewCachedTaskRepository(inner, cache, time.Minute)

	got, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
	assert.Equal(t, 1, cache.gets)
}

func TestConnectRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := ConnectRedis(ctx, config.RedisConfig{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}
