package search

import (
	"slices"

	"listing-service/internal/core/domain"
)

// Sort возвращает новый упорядоченный срез, вход не меняется.
// Все варианты стабильны: равные элементы сохраняют исходный порядок.
func Sort(listings []domain.Listing, spec domain.SortSpec) []domain.Listing {
	out := slices.Clone(listings)
	if out == nil {
		out = []domain.Listing{}
	}

	switch spec {
	case domain.SortPriceAsc:
		slices.SortStableFunc(out, func(a, b domain.Listing) int {
			return cmpFloat(a.Price, b.Price)
		})
	case domain.SortPriceDesc:
		slices.SortStableFunc(out, func(a, b domain.Listing) int {
			return cmpFloat(b.Price, a.Price)
		})
	case domain.SortNewest:
		slices.SortStableFunc(out, func(a, b domain.Listing) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	default:
		return partitionRecommended(listings)
	}
	return out
}

// partitionRecommended - стабильное разбиение, а не полная пересортировка
func partitionRecommended(listings []domain.Listing) []domain.Listing {
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if l.Recommended {
			out = append(out, l)
		}
	}
	for _, l := range listings {
		if !l.Recommended {
			out = append(out, l)
		}
	}
	return out
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
