package port

import (
	"context"

	"listing-service/internal/core/domain"
)

// ListingSourcePort - первичное хранилище объявлений.
// Загрузка - один запрос без повторов.
type ListingSourcePort interface {
	FetchAll(ctx context.Context) ([]domain.Listing, error)
}

// ListingCachePort - кэш последнего снимка коллекции.
// Промах возвращает domain.ErrCacheMiss.
type ListingCachePort interface {
	Get(ctx context.Context) ([]domain.Listing, error)
	Set(ctx context.Context, listings []domain.Listing) error
	Invalidate(ctx context.Context) error
}
