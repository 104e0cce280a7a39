package usecase

import (
	"context"
	"errors"
	"fmt"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/core/search"
)

type RefreshListingsUseCase struct {
	source port.ListingSourcePort
	cache  port.ListingCachePort
	store  *search.Store
}

// cache может быть nil: тогда коллекция всегда читается из источника
func NewRefreshListingsUseCase(source port.ListingSourcePort, cache port.ListingCachePort, store *search.Store) *RefreshListingsUseCase {
	return &RefreshListingsUseCase{source: source, cache: cache, store: store}
}

// Execute загружает коллекцию и устанавливает ее в Store.
// force=true сначала сбрасывает кэш: при ошибке источника старый снимок
// не должен пережить событие об изменении.
func (uc *RefreshListingsUseCase) Execute(ctx context.Context, force bool) (int, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "RefreshListings",
		"force":    force,
	})
	ucLogger.Info("Use case started", nil)

	gen := uc.store.Begin()

	if force && uc.cache != nil {
		if err := uc.cache.Invalidate(ctx); err != nil {
			ucLogger.Warn("Failed to invalidate listings cache", port.Fields{"error": err.Error()})
		}
	}

	if !force && uc.cache != nil {
		cached, err := uc.cache.Get(ctx)
		switch {
		case err == nil:
			if !uc.store.Commit(gen, cached) {
				ucLogger.Info("Newer refresh started or finished first, cached snapshot not installed", nil)
			}
			ucLogger.Info("Use case finished successfully", port.Fields{"source": "cache", "count": len(cached)})
			return len(cached), nil
		case errors.Is(err, domain.ErrCacheMiss):
			ucLogger.Debug("Listings cache miss", nil)
		default:
			ucLogger.Warn("Listings cache read failed, falling back to source", port.Fields{"error": err.Error()})
		}
	}

	fetched, err := uc.source.FetchAll(ctx)
	if err != nil {
		ucLogger.Error("Listing source returned an error", err, nil)
		uc.store.Abort(gen)
		return 0, fmt.Errorf("%w: %v", domain.ErrListingsUnavailable, err)
	}

	listings, dropped := domain.ValidateCollection(fetched)
	if dropped > 0 {
		ucLogger.Warn("Invalid or duplicate listings dropped", port.Fields{"dropped": dropped})
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, listings); err != nil {
			ucLogger.Warn("Failed to write listings cache", port.Fields{"error": err.Error()})
		}
	}

	if !uc.store.Commit(gen, listings) {
		ucLogger.Info("Newer refresh started or finished first, result not installed", nil)
	}

	ucLogger.Info("Use case finished successfully", port.Fields{"source": "primary", "count": len(listings)})
	return len(listings), nil
}
