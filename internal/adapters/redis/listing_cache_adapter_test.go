package redis_adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"listing-service/internal/constants"
	"listing-service/internal/core/domain"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRedis реализует только команды, которые использует адаптер
type memoryRedis struct {
	redis.Cmdable
	data   map[string]string
	ttl    map[string]time.Duration
	getErr error
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (m *memoryRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if m.getErr != nil {
		return redis.NewStringResult("", m.getErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memoryRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	default:
		return redis.NewStatusResult("", errors.New("unsupported value"))
	}
	m.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestListingCache_MissOnEmpty(t *testing.T) {
	cache, err := NewListingCacheAdapter(newMemoryRedis(), time.Minute)
	require.NoError(t, err)

	_, err = cache.Get(context.Background())
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestListingCache_SetGetInvalidate(t *testing.T) {
	rdb := newMemoryRedis()
	cache, err := NewListingCacheAdapter(rdb, 5*time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	bedrooms := 2
	listings := []domain.Listing{
		{ID: "a", Title: "Flat in Minsk", Price: 1200, Bedrooms: &bedrooms, Amenities: []string{"Wifi"}},
		{ID: "b", Title: "House", Price: 3000},
	}
	require.NoError(t, cache.Set(ctx, listings))
	assert.Equal(t, 5*time.Minute, rdb.ttl[constants.ListingsCacheKey])

	got, err := cache.Get(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	require.NotNil(t, got[0].Bedrooms)
	assert.Equal(t, 2, *got[0].Bedrooms)
	assert.Equal(t, []string{"Wifi"}, got[0].Amenities)
	assert.Nil(t, got[1].Bedrooms)

	require.NoError(t, cache.Invalidate(ctx))
	_, err = cache.Get(ctx)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestListingCache_CorruptedSnapshotIsMiss(t *testing.T) {
	rdb := newMemoryRedis()
	rdb.data[constants.ListingsCacheKey] = "{not json"
	cache, _ := NewListingCacheAdapter(rdb, time.Minute)

	_, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestListingCache_BackendError(t *testing.T) {
	rdb := newMemoryRedis()
	rdb.getErr = errors.New("connection refused")
	cache, _ := NewListingCacheAdapter(rdb, time.Minute)

	_, err := cache.Get(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrCacheMiss)
}

func TestNewListingCacheAdapter(t *testing.T) {
	_, err := NewListingCacheAdapter(nil, time.Minute)
	assert.Error(t, err)

	cache, err := NewListingCacheAdapter(newMemoryRedis(), 0)
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultListingsCacheTTL, cache.ttl)
}
