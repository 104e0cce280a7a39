package redis_adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"listing-service/internal/constants"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	"github.com/go-redis/redis/v8"
)

// ListingCacheAdapter хранит снимок коллекции одним JSON-значением с TTL
type ListingCacheAdapter struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

func NewListingCacheAdapter(client redis.Cmdable, ttl time.Duration) (*ListingCacheAdapter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = constants.DefaultListingsCacheTTL
	}
	return &ListingCacheAdapter{client: client, key: constants.ListingsCacheKey, ttl: ttl}, nil
}

type snapshot struct {
	StoredAt time.Time        `json:"stored_at"`
	Listings []domain.Listing `json:"listings"`
}

func (a *ListingCacheAdapter) Get(ctx context.Context) ([]domain.Listing, error) {
	raw, err := a.client.Get(ctx, a.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read listings snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// битый снимок считаем промахом, источник перезапишет его
		contextkeys.LoggerFromContext(ctx).Warn("Corrupted listings snapshot in cache", port.Fields{"error": err.Error()})
		return nil, domain.ErrCacheMiss
	}
	return snap.Listings, nil
}

func (a *ListingCacheAdapter) Set(ctx context.Context, listings []domain.Listing) error {
	raw, err := json.Marshal(snapshot{StoredAt: time.Now().UTC(), Listings: listings})
	if err != nil {
		return fmt.Errorf("failed to marshal listings snapshot: %w", err)
	}
	if err := a.client.Set(ctx, a.key, raw, a.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write listings snapshot: %w", err)
	}
	return nil
}

func (a *ListingCacheAdapter) Invalidate(ctx context.Context) error {
	if err := a.client.Del(ctx, a.key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate listings snapshot: %w", err)
	}
	return nil
}
