package search

import "listing-service/internal/core/domain"

// FilterSet - упорядоченное множество критериев.
// Повторное добавление критерия с тем же ключом ничего не меняет.
// Порядок влияет только на список примененных фильтров.
type FilterSet struct {
	items []Criterion
	keys  map[string]struct{}
}

func NewFilterSet(criteria ...Criterion) *FilterSet {
	fs := &FilterSet{keys: make(map[string]struct{})}
	for _, c := range criteria {
		fs.Add(c)
	}
	return fs
}

// Add возвращает false, если критерий с таким ключом уже есть
func (fs *FilterSet) Add(c Criterion) bool {
	if c == nil {
		return false
	}
	if fs.keys == nil {
		fs.keys = make(map[string]struct{})
	}
	key := c.Key()
	if _, ok := fs.keys[key]; ok {
		return false
	}
	fs.keys[key] = struct{}{}
	fs.items = append(fs.items, c)
	return true
}

func (fs *FilterSet) Len() int {
	if fs == nil {
		return 0
	}
	return len(fs.items)
}

// Criteria - копия списка в порядке добавления
func (fs *FilterSet) Criteria() []Criterion {
	if fs == nil {
		return nil
	}
	out := make([]Criterion, len(fs.items))
	copy(out, fs.items)
	return out
}

func (fs *FilterSet) AppliedFilters() []domain.AppliedFilter {
	out := make([]domain.AppliedFilter, 0, fs.Len())
	for _, c := range fs.Criteria() {
		out = append(out, domain.AppliedFilter{
			Kind:  string(c.Kind()),
			Key:   c.Key(),
			Label: c.Label(),
		})
	}
	return out
}
