package search

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"listing-service/internal/core/domain"
)

const DateLayout = "2006-01-02"

// RawCriteria - сырые значения из запроса, как их прислал клиент
type RawCriteria struct {
	Query     string
	Bedrooms  string
	PriceMin  string
	PriceMax  string
	Category  string
	Amenities []string
	Status    string
	Capacity  string
	MoveIn    string
	Rules     map[string]string
}

// BuildCriteria превращает сырой ввод в набор критериев.
// Пустые и некорректные значения просто пропускаются, ошибок нет.
func BuildCriteria(raw RawCriteria) *FilterSet {
	fs := NewFilterSet()

	if q := strings.TrimSpace(raw.Query); q != "" {
		fs.Add(NewTextCriterion(q))
	}
	if c, ok := parseBedrooms(raw.Bedrooms); ok {
		fs.Add(c)
	}
	if c, ok := parsePriceRange(raw.PriceMin, raw.PriceMax); ok {
		fs.Add(c)
	}
	if cat, ok := domain.ParseCategory(raw.Category); ok {
		fs.Add(CategoryCriterion{Category: cat})
	}
	for _, tag := range raw.Amenities {
		if tag = strings.TrimSpace(tag); tag != "" {
			fs.Add(NewAmenityCriterion(tag))
		}
	}
	if st, ok := domain.ParseStatus(raw.Status); ok {
		fs.Add(StatusCriterion{Status: st})
	}
	if n, err := strconv.Atoi(strings.TrimSpace(raw.Capacity)); err == nil && n > 0 {
		fs.Add(CapacityCriterion{Guests: n})
	}
	if d, err := time.Parse(DateLayout, strings.TrimSpace(raw.MoveIn)); err == nil {
		fs.Add(MoveInCriterion{Date: d})
	}

	// правила в алфавитном порядке, чтобы чипы не прыгали между запросами
	rules := make(map[string]string, len(raw.Rules))
	names := make([]string, 0, len(raw.Rules))
	for name, value := range raw.Rules {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, seen := rules[key]; !seen {
			names = append(names, key)
		}
		rules[key] = value
	}
	sort.Strings(names)
	for _, name := range names {
		allowed, err := strconv.ParseBool(strings.TrimSpace(rules[name]))
		if err != nil {
			continue
		}
		fs.Add(RuleCriterion{Name: name, Allowed: allowed})
	}

	return fs
}

// parseBedrooms: "3+" -> не меньше 3, "3" -> ровно 3
func parseBedrooms(s string) (BedroomsCriterion, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return BedroomsCriterion{}, false
	}
	atLeast := strings.HasSuffix(s, "+")
	n, err := strconv.Atoi(strings.TrimSuffix(s, "+"))
	if err != nil || n < 0 {
		return BedroomsCriterion{}, false
	}
	return BedroomsCriterion{Count: n, AtLeast: atLeast}, true
}

// parsePriceRange: непарсящаяся, отрицательная или бесконечная граница отбрасывается.
// Если min > max, границы меняются местами.
func parsePriceRange(minRaw, maxRaw string) (PriceCriterion, bool) {
	min := parseBound(minRaw)
	max := parseBound(maxRaw)
	if min == nil && max == nil {
		return PriceCriterion{}, false
	}
	if min != nil && max != nil && *min > *max {
		min, max = max, min
	}
	return PriceCriterion{Min: min, Max: max}, true
}

func parseBound(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
