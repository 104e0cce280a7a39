package search

import "listing-service/internal/core/domain"

// Filter возвращает новый срез объявлений, удовлетворяющих всем критериям.
// Пустой набор пропускает все записи.
func Filter(listings []domain.Listing, fs *FilterSet) []domain.Listing {
	criteria := fs.Criteria()
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if matchAll(l, criteria) {
			out = append(out, l)
		}
	}
	return out
}

func matchAll(l domain.Listing, criteria []Criterion) bool {
	for _, c := range criteria {
		if !safeMatch(c, l) {
			return false
		}
	}
	return true
}

// safeMatch: паника внутри одного критерия считается совпадением,
// остальные критерии продолжают применяться
func safeMatch(c Criterion, l domain.Listing) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = true
		}
	}()
	return c.Match(l)
}
