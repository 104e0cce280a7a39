package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/core/port/usecases_port"
	"listing-service/internal/core/search"
)

type GetFilterOptionsUseCase struct {
	store   *search.Store
	refresh usecases_port.RefreshListingsUseCase
}

func NewGetFilterOptionsUseCase(store *search.Store, refresh usecases_port.RefreshListingsUseCase) *GetFilterOptionsUseCase {
	return &GetFilterOptionsUseCase{store: store, refresh: refresh}
}

// Execute собирает варианты фильтров по всей коллекции.
// Count - сколько объявлений проходит текущие фильтры.
// Ошибка одной опции не ломает весь ответ: опция просто пропускается.
func (uc *GetFilterOptionsUseCase) Execute(ctx context.Context, raw search.RawCriteria) (*domain.FilterOptionsResult, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "GetFilterOptions"})
	ucLogger.Info("Use case started", nil)

	listings, err := ensureLoaded(ctx, uc.store, uc.refresh)
	if err != nil {
		ucLogger.Error("Listings are not available", err, nil)
		return nil, err
	}

	collectors := map[string]func([]domain.Listing) (domain.FilterOption, bool){
		"price":     priceOption,
		"bedrooms":  bedroomsOption,
		"category":  categoryOption,
		"amenities": amenitiesOption,
		"status":    statusOption,
	}

	options := make(map[string]domain.FilterOption, len(collectors))
	for name, collect := range collectors {
		opt, ok, err := safeCollect(collect, listings)
		if err != nil {
			ucLogger.Warn("Failed to collect filter option", port.Fields{"option": name, "error": err.Error()})
			continue
		}
		if ok {
			options[name] = opt
		}
	}

	count := len(search.Filter(listings, search.BuildCriteria(raw)))

	ucLogger.Info("Use case finished successfully", port.Fields{"options": len(options), "count": count})
	return &domain.FilterOptionsResult{Options: options, Count: count}, nil
}

func safeCollect(collect func([]domain.Listing) (domain.FilterOption, bool), listings []domain.Listing) (opt domain.FilterOption, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("option collector panicked: %v", r)
		}
	}()
	opt, ok = collect(listings)
	return opt, ok, nil
}

func priceOption(listings []domain.Listing) (domain.FilterOption, bool) {
	if len(listings) == 0 {
		return domain.FilterOption{}, false
	}
	lo, hi := listings[0].Price, listings[0].Price
	for _, l := range listings[1:] {
		lo = min(lo, l.Price)
		hi = max(hi, l.Price)
	}
	return domain.FilterOption{Min: lo, Max: hi}, true
}

func bedroomsOption(listings []domain.Listing) (domain.FilterOption, bool) {
	seen := make(map[int]struct{})
	var values []int
	for _, l := range listings {
		if l.Bedrooms == nil {
			continue
		}
		if _, ok := seen[*l.Bedrooms]; !ok {
			seen[*l.Bedrooms] = struct{}{}
			values = append(values, *l.Bedrooms)
		}
	}
	if len(values) == 0 {
		return domain.FilterOption{}, false
	}
	slices.Sort(values)
	return domain.FilterOption{Options: toInterfaceSlice(values)}, true
}

func categoryOption(listings []domain.Listing) (domain.FilterOption, bool) {
	present := make(map[domain.Category]bool)
	for _, l := range listings {
		present[l.Category] = true
	}
	var values []string
	for _, c := range domain.Categories {
		if present[c] {
			values = append(values, string(c))
		}
	}
	return domain.FilterOption{Options: toInterfaceSlice(values)}, len(values) > 0
}

func statusOption(listings []domain.Listing) (domain.FilterOption, bool) {
	present := make(map[domain.ListingStatus]bool)
	for _, l := range listings {
		present[l.Status] = true
	}
	var values []string
	for _, s := range domain.Statuses {
		if present[s] {
			values = append(values, string(s))
		}
	}
	return domain.FilterOption{Options: toInterfaceSlice(values)}, len(values) > 0
}

// amenitiesOption - уникальные теги без учета регистра, в алфавитном порядке
func amenitiesOption(listings []domain.Listing) (domain.FilterOption, bool) {
	seen := make(map[string]struct{})
	var values []string
	for _, l := range listings {
		for _, a := range l.Amenities {
			a = strings.TrimSpace(a)
			key := search.Fold(a)
			if a == "" {
				continue
			}
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				values = append(values, a)
			}
		}
	}
	if len(values) == 0 {
		return domain.FilterOption{}, false
	}
	slices.SortFunc(values, func(a, b string) int {
		return strings.Compare(search.Fold(a), search.Fold(b))
	})
	return domain.FilterOption{Options: toInterfaceSlice(values)}, true
}

func toInterfaceSlice[T any](in []T) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
