package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmcloughlin/geohash"
)

// Category - тип объекта недвижимости
type Category string

const (
	CategoryApartment  Category = "apartment"
	CategoryHouse      Category = "house"
	CategoryCondo      Category = "condo"
	CategoryLand       Category = "land"
	CategoryCommercial Category = "commercial"
)

// Categories - все допустимые категории в порядке отображения
var Categories = []Category{CategoryApartment, CategoryHouse, CategoryCondo, CategoryLand, CategoryCommercial}

// ParseCategory без учета регистра. ok=false для неизвестного значения.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// ListingStatus - статус объявления
type ListingStatus string

const (
	StatusAvailable ListingStatus = "available"
	StatusPending   ListingStatus = "pending"
	StatusSold      ListingStatus = "sold"
	StatusRented    ListingStatus = "rented"
)

var Statuses = []ListingStatus{StatusAvailable, StatusPending, StatusSold, StatusRented}

func ParseStatus(s string) (ListingStatus, bool) {
	st := ListingStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Statuses {
		if st == known {
			return st, true
		}
	}
	return "", false
}

type Address struct {
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
}

// String - адрес одной строкой, пустые части пропускаются
func (a Address) String() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.City, a.State, a.PostalCode, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type GeoPoint struct {
	Lat float64
	Lon float64
}

const geohashPrecision = 7 // ~153x153 метра

// Listing - одно объявление об аренде.
// Необязательные числовые поля - указатели: nil значит "не указано".
type Listing struct {
	ID          string
	Title       string
	Subtitle    string
	Description string
	Address     Address
	Category    Category
	Bedrooms    *int
	Bathrooms   *int
	AreaSqm     *float64
	Price       float64
	Status      ListingStatus
	Amenities   []string
	Features    []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Geo         *GeoPoint

	Recommended   bool
	Capacity      *int
	AvailableFrom *time.Time
	Rules         map[string]bool
	AdvertiserID  string
	Images        []string
}

// BedroomsOrZero - отсутствующее количество спален считается нулем
func (l Listing) BedroomsOrZero() int {
	if l.Bedrooms == nil {
		return 0
	}
	return *l.Bedrooms
}

func (l Listing) CapacityOrZero() int {
	if l.Capacity == nil {
		return 0
	}
	return *l.Capacity
}

// GeoHash возвращает geohash координаты или пустую строку
func (l Listing) GeoHash() string {
	if l.Geo == nil {
		return ""
	}
	return geohash.EncodeWithPrecision(l.Geo.Lat, l.Geo.Lon, geohashPrecision)
}

// Validate проверяет инварианты одной записи
func (l Listing) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return fmt.Errorf("listing id is empty")
	}
	if !(l.Price >= 0) { // NaN тоже отсекается
		return fmt.Errorf("listing %s: invalid price %v", l.ID, l.Price)
	}
	if l.Bedrooms != nil && *l.Bedrooms < 0 {
		return fmt.Errorf("listing %s: negative bedrooms", l.ID)
	}
	if l.Bathrooms != nil && *l.Bathrooms < 0 {
		return fmt.Errorf("listing %s: negative bathrooms", l.ID)
	}
	if _, ok := ParseStatus(string(l.Status)); !ok {
		return fmt.Errorf("listing %s: unknown status %q", l.ID, l.Status)
	}
	return nil
}

// ValidateCollection оставляет только корректные записи с уникальными ID
// (при дубликатах побеждает первая) и возвращает число отброшенных.
func ValidateCollection(listings []Listing) ([]Listing, int) {
	seen := make(map[string]struct{}, len(listings))
	valid := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if l.Validate() != nil {
			continue
		}
		if _, dup := seen[l.ID]; dup {
			continue
		}
		seen[l.ID] = struct{}{}
		valid = append(valid, l)
	}
	return valid, len(listings) - len(valid)
}
