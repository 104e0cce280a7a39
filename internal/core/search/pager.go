package search

import (
	"listing-service/internal/constants"
	"listing-service/internal/core/domain"
)

// Page - одна страница выдачи
type Page struct {
	Items      []domain.Listing
	Number     int
	Size       int
	Total      int
	TotalPages int
}

// Paginate отдает срез [(page-1)*size, page*size), обрезанный по границам.
// Номер страницы начинается с 1; страница вне диапазона пуста.
func Paginate(listings []domain.Listing, page, size int) Page {
	if size <= 0 {
		size = constants.DefaultPageSize
	}
	p := Page{
		Items:      []domain.Listing{},
		Number:     page,
		Size:       size,
		Total:      len(listings),
		TotalPages: TotalPages(len(listings), size),
	}
	// сравнение до умножения: (page-1)*size переполняется на больших page
	if page < 1 || page-1 >= pageCount(len(listings), size) {
		return p
	}

	start := (page - 1) * size
	end := start + min(size, len(listings)-start)
	p.Items = append(p.Items, listings[start:end]...)
	return p
}

// TotalPages = ceil(n/size), но не меньше 1
func TotalPages(n, size int) int {
	if size <= 0 {
		size = constants.DefaultPageSize
	}
	return max(1, pageCount(n, size))
}

// pageCount = ceil(n/size) без переполнения при больших size
func pageCount(n, size int) int {
	pages := n / size
	if n%size != 0 {
		pages++
	}
	return pages
}
