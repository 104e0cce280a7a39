package usecases_port

import (
	"context"

	"listing-service/internal/core/domain"
	"listing-service/internal/core/search"
)

type GetFilterOptionsUseCase interface {
	Execute(ctx context.Context, raw search.RawCriteria) (*domain.FilterOptionsResult, error)
}
