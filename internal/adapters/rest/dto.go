package rest

import (
	"time"

	"listing-service/internal/core/domain"
)

type AddressResponse struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Full       string `json:"full"`
}

type GeoResponse struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	GeoHash string  `json:"geohash"`
}

// ListingResponse - карточка объявления.
// Отсутствующие поля отдаются как null/пустые, запись не выкидывается.
type ListingResponse struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Subtitle      string          `json:"subtitle"`
	Description   string          `json:"description"`
	Address       AddressResponse `json:"address"`
	Category      string          `json:"category"`
	Bedrooms      *int            `json:"bedrooms"`
	Bathrooms     *int            `json:"bathrooms"`
	AreaSqm       *float64        `json:"area_sqm"`
	Price         float64         `json:"price"`
	Status        string          `json:"status"`
	Amenities     []string        `json:"amenities"`
	Features      []string        `json:"features"`
	Recommended   bool            `json:"recommended"`
	Capacity      *int            `json:"capacity"`
	AvailableFrom *string         `json:"available_from"`
	Rules         map[string]bool `json:"rules"`
	AdvertiserID  string          `json:"advertiser_id,omitempty"`
	Images        []string        `json:"images"`
	Geo           *GeoResponse    `json:"geo"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type AppliedFilterResponse struct {
	Kind  string `json:"kind"`
	Key   string `json:"key"`
	Label string `json:"label"`
}

// PaginatedListingsResponse - ответ поиска
type PaginatedListingsResponse struct {
	Data           []ListingResponse       `json:"objects"`
	Total          int                     `json:"total"`
	Page           int                     `json:"page"`
	PerPage        int                     `json:"per_page"`
	TotalPages     int                     `json:"total_pages"`
	AppliedFilters []AppliedFilterResponse `json:"applied_filters"`
	LoadFailed     bool                    `json:"load_failed"`
}

type FilterOptionResponse struct {
	Options []interface{} `json:"options,omitempty"`
	Min     interface{}   `json:"min,omitempty"`
	Max     interface{}   `json:"max,omitempty"`
}

type FilterOptionsResponse struct {
	Filters map[string]FilterOptionResponse `json:"filters"`
	Count   int                             `json:"count"`
}

type NotificationsResponse struct {
	Items       []domain.Notification `json:"items"`
	UnreadCount int                   `json:"unread_count"`
}

type RefreshResponse struct {
	Count int `json:"count"`
}

func toListingResponse(l domain.Listing) ListingResponse {
	resp := ListingResponse{
		ID:          l.ID,
		Title:       l.Title,
		Subtitle:    l.Subtitle,
		Description: l.Description,
		Address: AddressResponse{
			Street:     l.Address.Street,
			City:       l.Address.City,
			State:      l.Address.State,
			PostalCode: l.Address.PostalCode,
			Country:    l.Address.Country,
			Full:       l.Address.String(),
		},
		Category:     string(l.Category),
		Bedrooms:     l.Bedrooms,
		Bathrooms:    l.Bathrooms,
		AreaSqm:      l.AreaSqm,
		Price:        l.Price,
		Status:       string(l.Status),
		Amenities:    nonNilStrings(l.Amenities),
		Features:     nonNilStrings(l.Features),
		Recommended:  l.Recommended,
		Capacity:     l.Capacity,
		Rules:        l.Rules,
		AdvertiserID: l.AdvertiserID,
		Images:       nonNilStrings(l.Images),
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
	if resp.Rules == nil {
		resp.Rules = map[string]bool{}
	}
	if l.AvailableFrom != nil {
		d := l.AvailableFrom.Format("2006-01-02")
		resp.AvailableFrom = &d
	}
	if l.Geo != nil {
		resp.Geo = &GeoResponse{Lat: l.Geo.Lat, Lon: l.Geo.Lon, GeoHash: l.GeoHash()}
	}
	return resp
}

func toSearchResponse(res *domain.SearchResult) PaginatedListingsResponse {
	resp := PaginatedListingsResponse{
		Data:           make([]ListingResponse, 0, len(res.Listings)),
		Total:          res.Total,
		Page:           res.Page,
		PerPage:        res.PerPage,
		TotalPages:     res.TotalPages,
		AppliedFilters: make([]AppliedFilterResponse, 0, len(res.AppliedFilters)),
		LoadFailed:     res.LoadFailed,
	}
	for _, l := range res.Listings {
		resp.Data = append(resp.Data, toListingResponse(l))
	}
	for _, f := range res.AppliedFilters {
		resp.AppliedFilters = append(resp.AppliedFilters, AppliedFilterResponse{Kind: f.Kind, Key: f.Key, Label: f.Label})
	}
	return resp
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
