package search

import "listing-service/internal/core/domain"

// Query - все, что нужно для одного прогона конвейера
type Query struct {
	Criteria *FilterSet
	Sort     domain.SortSpec
	Page     int
	PerPage  int
}

// Run: фильтрация -> сортировка -> страница. Каждый вызов считает все заново.
func Run(listings []domain.Listing, q Query) domain.SearchResult {
	filtered := Filter(listings, q.Criteria)
	sorted := Sort(filtered, q.Sort)
	page := Paginate(sorted, q.Page, q.PerPage)

	return domain.SearchResult{
		Listings:       page.Items,
		Total:          page.Total,
		Page:           page.Number,
		PerPage:        page.Size,
		TotalPages:     page.TotalPages,
		AppliedFilters: q.Criteria.AppliedFilters(),
	}
}
