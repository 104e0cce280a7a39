package usecase

import (
	"context"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/core/port/usecases_port"
	"listing-service/internal/core/search"
)

type GetListingUseCase struct {
	store   *search.Store
	refresh usecases_port.RefreshListingsUseCase
}

func NewGetListingUseCase(store *search.Store, refresh usecases_port.RefreshListingsUseCase) *GetListingUseCase {
	return &GetListingUseCase{store: store, refresh: refresh}
}

func (uc *GetListingUseCase) Execute(ctx context.Context, id string) (*domain.Listing, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":   "GetListing",
		"listing_id": id,
	})
	ucLogger.Info("Use case started", nil)

	listings, err := ensureLoaded(ctx, uc.store, uc.refresh)
	if err != nil {
		ucLogger.Error("Listings are not available", err, nil)
		return nil, err
	}

	listing, ok := uc.store.Get(id)
	if !ok {
		// коллекция может быть еще отложенной и не попасть в индекс Store
		listing, ok = findListing(listings, id)
	}
	if !ok {
		ucLogger.Warn("Listing not found", nil)
		return nil, domain.ErrListingNotFound
	}

	ucLogger.Info("Use case finished successfully", nil)
	return &listing, nil
}

func findListing(listings []domain.Listing, id string) (domain.Listing, bool) {
	for _, l := range listings {
		if l.ID == id {
			return l, true
		}
	}
	return domain.Listing{}, false
}
