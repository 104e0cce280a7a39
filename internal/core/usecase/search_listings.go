package usecase

import (
	"context"

	"listing-service/internal/constants"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/core/port/usecases_port"
	"listing-service/internal/core/search"
)

type SearchListingsUseCase struct {
	store   *search.Store
	refresh usecases_port.RefreshListingsUseCase
}

func NewSearchListingsUseCase(store *search.Store, refresh usecases_port.RefreshListingsUseCase) *SearchListingsUseCase {
	return &SearchListingsUseCase{store: store, refresh: refresh}
}

func (uc *SearchListingsUseCase) Execute(ctx context.Context, raw search.RawCriteria, sort domain.SortSpec, page, perPage int) (*domain.SearchResult, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "SearchListings",
		"sort":     sort,
		"page":     page,
		"per_page": perPage,
	})
	ucLogger.Info("Use case started", nil)

	if perPage > constants.MaxPageSize {
		perPage = constants.MaxPageSize
	}
	criteria := search.BuildCriteria(raw)

	listings, err := ensureLoaded(ctx, uc.store, uc.refresh)
	if err != nil {
		ucLogger.Error("Listings are not available", err, nil)
		if perPage <= 0 {
			perPage = constants.DefaultPageSize
		}
		return &domain.SearchResult{
			Listings:       []domain.Listing{},
			Page:           page,
			PerPage:        perPage,
			TotalPages:     1,
			AppliedFilters: criteria.AppliedFilters(),
			LoadFailed:     true,
		}, err
	}

	result := search.Run(listings, search.Query{
		Criteria: criteria,
		Sort:     sort,
		Page:     page,
		PerPage:  perPage,
	})

	ucLogger.Info("Use case finished successfully", port.Fields{
		"total_found":   result.Total,
		"items_on_page": len(result.Listings),
		"filters":       criteria.Len(),
	})
	return &result, nil
}

// ensureLoaded делает первую загрузку коллекции, если ее еще не было.
// Пока более новая загрузка не завершилась, успешный результат лежит
// в Store как отложенный, и запрос отвечает по нему.
func ensureLoaded(ctx context.Context, store *search.Store, refresh usecases_port.RefreshListingsUseCase) ([]domain.Listing, error) {
	if listings, loaded := store.Snapshot(); loaded {
		return listings, nil
	}
	if _, err := refresh.Execute(ctx, false); err != nil {
		return nil, err
	}
	if listings, loaded := store.Snapshot(); loaded {
		return listings, nil
	}
	if listings, ok := store.Pending(); ok {
		return listings, nil
	}
	return nil, domain.ErrListingsUnavailable
}
