package search

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"listing-service/internal/core/domain"

	"golang.org/x/text/cases"
)

// CriterionKind - вид фильтра
type CriterionKind string

const (
	KindText     CriterionKind = "text"
	KindBedrooms CriterionKind = "bedrooms"
	KindPrice    CriterionKind = "price"
	KindCategory CriterionKind = "category"
	KindAmenity  CriterionKind = "amenity"
	KindStatus   CriterionKind = "status"
	KindCapacity CriterionKind = "capacity"
	KindMoveIn   CriterionKind = "move_in"
	KindRule     CriterionKind = "rule"
)

// Criterion - чистый предикат над одним объявлением.
// Key однозначно определяет критерий внутри набора.
type Criterion interface {
	Kind() CriterionKind
	Key() string
	Label() string
	Match(l domain.Listing) bool
}

// Fold приводит строку к виду для сравнения без учета регистра
func Fold(s string) string {
	return cases.Fold().String(s)
}

// TextCriterion - подстрока в заголовке, подзаголовке, городе, регионе или категории
type TextCriterion struct {
	Query  string
	folded string
}

func NewTextCriterion(q string) TextCriterion {
	return TextCriterion{Query: q, folded: Fold(q)}
}

func (c TextCriterion) Kind() CriterionKind { return KindText }
func (c TextCriterion) Key() string         { return "text:" + c.folded }
func (c TextCriterion) Label() string       { return fmt.Sprintf("%q", c.Query) }

func (c TextCriterion) Match(l domain.Listing) bool {
	for _, field := range []string{l.Title, l.Subtitle, l.Address.City, l.Address.State, string(l.Category)} {
		if strings.Contains(Fold(field), c.folded) {
			return true
		}
	}
	return false
}

// BedroomsCriterion: точное совпадение или AtLeast ("N+")
type BedroomsCriterion struct {
	Count   int
	AtLeast bool
}

func (c BedroomsCriterion) Kind() CriterionKind { return KindBedrooms }

func (c BedroomsCriterion) Key() string {
	if c.AtLeast {
		return fmt.Sprintf("bedrooms:%d+", c.Count)
	}
	return fmt.Sprintf("bedrooms:%d", c.Count)
}

func (c BedroomsCriterion) Label() string {
	if c.AtLeast {
		return fmt.Sprintf("%d+ bedrooms", c.Count)
	}
	return fmt.Sprintf("%d bedrooms", c.Count)
}

func (c BedroomsCriterion) Match(l domain.Listing) bool {
	n := l.BedroomsOrZero()
	if c.AtLeast {
		return n >= c.Count
	}
	return n == c.Count
}

// PriceCriterion - диапазон с включенными границами, любая может отсутствовать
type PriceCriterion struct {
	Min *float64
	Max *float64
}

func (c PriceCriterion) Kind() CriterionKind { return KindPrice }

func (c PriceCriterion) Key() string {
	return "price:" + formatBound(c.Min) + "-" + formatBound(c.Max)
}

func (c PriceCriterion) Label() string {
	switch {
	case c.Min != nil && c.Max != nil:
		return fmt.Sprintf("%s - %s", formatBound(c.Min), formatBound(c.Max))
	case c.Min != nil:
		return "from " + formatBound(c.Min)
	default:
		return "up to " + formatBound(c.Max)
	}
}

func (c PriceCriterion) Match(l domain.Listing) bool {
	if c.Min != nil && l.Price < *c.Min {
		return false
	}
	if c.Max != nil && l.Price > *c.Max {
		return false
	}
	return true
}

func formatBound(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

type CategoryCriterion struct {
	Category domain.Category
}

func (c CategoryCriterion) Kind() CriterionKind { return KindCategory }
func (c CategoryCriterion) Key() string         { return "category:" + string(c.Category) }
func (c CategoryCriterion) Label() string       { return string(c.Category) }
func (c CategoryCriterion) Match(l domain.Listing) bool {
	return l.Category == c.Category
}

// AmenityCriterion - тег должен присутствовать среди удобств (без учета регистра)
type AmenityCriterion struct {
	Amenity string
	folded  string
}

func NewAmenityCriterion(tag string) AmenityCriterion {
	return AmenityCriterion{Amenity: tag, folded: Fold(tag)}
}

func (c AmenityCriterion) Kind() CriterionKind { return KindAmenity }
func (c AmenityCriterion) Key() string         { return "amenity:" + c.folded }
func (c AmenityCriterion) Label() string       { return c.Amenity }

func (c AmenityCriterion) Match(l domain.Listing) bool {
	for _, a := range l.Amenities {
		if Fold(a) == c.folded {
			return true
		}
	}
	return false
}

type StatusCriterion struct {
	Status domain.ListingStatus
}

func (c StatusCriterion) Kind() CriterionKind { return KindStatus }
func (c StatusCriterion) Key() string         { return "status:" + string(c.Status) }
func (c StatusCriterion) Label() string       { return string(c.Status) }
func (c StatusCriterion) Match(l domain.Listing) bool {
	return l.Status == c.Status
}

// CapacityCriterion - вместимость не меньше Guests
type CapacityCriterion struct {
	Guests int
}

func (c CapacityCriterion) Kind() CriterionKind { return KindCapacity }
func (c CapacityCriterion) Key() string         { return fmt.Sprintf("capacity:%d", c.Guests) }
func (c CapacityCriterion) Label() string       { return fmt.Sprintf("%d+ guests", c.Guests) }
func (c CapacityCriterion) Match(l domain.Listing) bool {
	return l.CapacityOrZero() >= c.Guests
}

// MoveInCriterion - объект доступен не позже даты заезда.
// Без AvailableFrom объект считается доступным сразу.
type MoveInCriterion struct {
	Date time.Time
}

func (c MoveInCriterion) Kind() CriterionKind { return KindMoveIn }
func (c MoveInCriterion) Key() string         { return "move_in:" + c.Date.Format(DateLayout) }
func (c MoveInCriterion) Label() string       { return "move in " + c.Date.Format(DateLayout) }
func (c MoveInCriterion) Match(l domain.Listing) bool {
	if l.AvailableFrom == nil {
		return true
	}
	return !l.AvailableFrom.After(c.Date)
}

// RuleCriterion - правило проживания должно иметь значение Allowed.
// Отсутствующее правило считается false.
type RuleCriterion struct {
	Name    string
	Allowed bool
}

func (c RuleCriterion) Kind() CriterionKind { return KindRule }
func (c RuleCriterion) Key() string         { return "rule:" + c.Name }

func (c RuleCriterion) Label() string {
	if c.Allowed {
		return c.Name + " allowed"
	}
	return "no " + c.Name
}

func (c RuleCriterion) Match(l domain.Listing) bool {
	return l.Rules[c.Name] == c.Allowed
}
