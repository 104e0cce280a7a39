package usecases_port

import (
	"context"

	"listing-service/internal/core/domain"
	"listing-service/internal/core/search"
)

type SearchListingsUseCase interface {
	Execute(ctx context.Context, raw search.RawCriteria, sort domain.SortSpec, page, perPage int) (*domain.SearchResult, error)
}
