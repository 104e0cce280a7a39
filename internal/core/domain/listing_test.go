package domain

import (
	"math"
	"testing"

	"github.com/mmcloughlin/geohash"
	"github.com/stretchr/testify/assert"
)

func TestParseCategoryAndStatus(t *testing.T) {
	c, ok := ParseCategory(" House ")
	assert.True(t, ok)
	assert.Equal(t, CategoryHouse, c)

	_, ok = ParseCategory("castle")
	assert.False(t, ok)

	st, ok := ParseStatus("RENTED")
	assert.True(t, ok)
	assert.Equal(t, StatusRented, st)

	_, ok = ParseStatus("")
	assert.False(t, ok)
}

func TestAddressString(t *testing.T) {
	a := Address{Street: "Nezavisimosti 1", City: "Minsk", State: " ", Country: "BY"}
	assert.Equal(t, "Nezavisimosti 1, Minsk, BY", a.String())
	assert.Equal(t, "", Address{}.String())
}

func TestListingGeoHash(t *testing.T) {
	assert.Equal(t, "", Listing{}.GeoHash())

	l := Listing{Geo: &GeoPoint{Lat: 53.9023, Lon: 27.5619}}
	hash := l.GeoHash()
	assert.Len(t, hash, geohashPrecision)

	lat, lon := geohash.Decode(hash)
	assert.InDelta(t, 53.9023, lat, 0.01)
	assert.InDelta(t, 27.5619, lon, 0.01)
}

func TestValidateCollection(t *testing.T) {
	neg := -1
	two := 2
	listings := []Listing{
		{ID: "a", Price: 100, Status: StatusAvailable, Bedrooms: &two},
		{ID: "", Price: 100, Status: StatusAvailable},
		{ID: "b", Price: -5, Status: StatusAvailable},
		{ID: "c", Price: 10, Status: StatusAvailable, Bathrooms: &neg},
		{ID: "d", Price: 10, Status: "archived"},
		{ID: "a", Price: 999, Status: StatusSold},
		{ID: "e", Price: 0, Status: StatusPending},
		{ID: "f", Price: math.NaN(), Status: StatusAvailable},
	}

	valid, dropped := ValidateCollection(listings)
	assert.Equal(t, 6, dropped)
	if assert.Len(t, valid, 2) {
		assert.Equal(t, "a", valid[0].ID)
		assert.Equal(t, 100.0, valid[0].Price)
		assert.Equal(t, "e", valid[1].ID)
	}
	assert.Equal(t, 2, valid[0].BedroomsOrZero())
	assert.Equal(t, 0, valid[1].BedroomsOrZero())
}

func TestSessionIsAdmin(t *testing.T) {
	assert.True(t, Session{Role: RoleAdmin}.IsAdmin())
	assert.False(t, Session{Role: RoleTenant}.IsAdmin())
}
