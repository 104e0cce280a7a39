package domain

import "strings"

// SortSpec - единственное активное правило сортировки
type SortSpec string

const (
	SortPriceAsc    SortSpec = "price_asc"
	SortPriceDesc   SortSpec = "price_desc"
	SortNewest      SortSpec = "newest"
	SortRecommended SortSpec = "recommended"
)

const DefaultSort = SortRecommended

// ParseSortSpec: неизвестное или пустое значение -> сортировка по умолчанию
func ParseSortSpec(s string) SortSpec {
	switch spec := SortSpec(strings.ToLower(strings.TrimSpace(s))); spec {
	case SortPriceAsc, SortPriceDesc, SortNewest, SortRecommended:
		return spec
	default:
		return DefaultSort
	}
}

// AppliedFilter - "чип" примененного фильтра для отображения
type AppliedFilter struct {
	Kind  string
	Key   string
	Label string
}

// SearchResult - страница результатов поиска
type SearchResult struct {
	Listings       []Listing
	Total          int
	Page           int
	PerPage        int
	TotalPages     int
	AppliedFilters []AppliedFilter
	// LoadFailed - коллекцию не удалось загрузить, Listings пуст
	LoadFailed bool
}

// FilterOption - описание одного фильтра для ответа
type FilterOption struct {
	Options []interface{}
	Min     interface{}
	Max     interface{}
}

type FilterOptionsResult struct {
	Options map[string]FilterOption
	Count   int
}
