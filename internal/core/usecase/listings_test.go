package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"listing-service/internal/core/domain"
	"listing-service/internal/core/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshListings_LoadsFromSourceAndFillsCache(t *testing.T) {
	store := search.NewStore()
	source := &fakeSource{listings: []domain.Listing{listing("a", 10), listing("b", 20)}}
	cache := &fakeCache{}

	n, err := NewRefreshListingsUseCase(source, cache, store).Execute(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, cache.sets)
	listings, loaded := store.Snapshot()
	assert.True(t, loaded)
	assert.Len(t, listings, 2)
}

func TestRefreshListings_UsesCacheUnlessForced(t *testing.T) {
	store := search.NewStore()
	source := &fakeSource{listings: []domain.Listing{listing("fresh", 1)}}
	cache := &fakeCache{listings: []domain.Listing{listing("cached", 1)}}
	uc := NewRefreshListingsUseCase(source, cache, store)

	_, err := uc.Execute(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, source.Calls())
	_, ok := store.Get("cached")
	assert.True(t, ok)

	_, err = uc.Execute(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, source.Calls())
	_, ok = store.Get("fresh")
	assert.True(t, ok)
	assert.Equal(t, "fresh", cache.listings[0].ID)
}

func TestRefreshListings_CacheErrorsFallBackToSource(t *testing.T) {
	store := search.NewStore()
	source := &fakeSource{listings: []domain.Listing{listing("a", 1)}}
	cache := &fakeCache{getErr: errors.New("redis down"), setErr: errors.New("redis down")}

	n, err := NewRefreshListingsUseCase(source, cache, store).Execute(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, source.Calls())
}

func TestRefreshListings_SourceFailure(t *testing.T) {
	store := search.NewStore()
	source := &fakeSource{err: errors.New("connection refused")}

	_, err := NewRefreshListingsUseCase(source, nil, store).Execute(context.Background(), false)

	assert.ErrorIs(t, err, domain.ErrListingsUnavailable)
	_, loaded := store.Snapshot()
	assert.False(t, loaded)
}

func TestRefreshListings_ForcedFailureClearsCache(t *testing.T) {
	store := search.NewStore()
	source := &fakeSource{err: errors.New("timeout")}
	cache := &fakeCache{listings: []domain.Listing{listing("stale", 1)}}
	uc := NewRefreshListingsUseCase(source, cache, store)

	_, err := uc.Execute(context.Background(), true)
	assert.ErrorIs(t, err, domain.ErrListingsUnavailable)
	assert.Equal(t, 1, cache.cleared)
	assert.Nil(t, cache.listings)

	_, err = uc.Execute(context.Background(), false)
	assert.ErrorIs(t, err, domain.ErrListingsUnavailable)
	assert.Equal(t, 1, cache.cleared)
}

func TestRefreshListings_DropsInvalidAndDuplicateRecords(t *testing.T) {
	store := search.NewStore()
	bad := listing("bad", -1)
	dup := listing("a", 999)
	source := &fakeSource{listings: []domain.Listing{listing("a", 10), bad, dup, listing("", 5)}}

	n, err := NewRefreshListingsUseCase(source, nil, store).Execute(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	l, ok := store.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10.0, l.Price)
}

func TestRefreshListings_OverlappingLoadsLastStartedWins(t *testing.T) {
	store := search.NewStore()
	gate := make(chan struct{})
	slow := &fakeSource{listings: []domain.Listing{listing("old", 1)}, gate: gate}
	fast := &fakeSource{listings: []domain.Listing{listing("new", 1)}}

	done := make(chan struct{})
	go func() {
		_, _ = NewRefreshListingsUseCase(slow, nil, store).Execute(context.Background(), true)
		close(done)
	}()
	require.Eventually(t, func() bool { return slow.Calls() == 1 }, time.Second, time.Millisecond)

	_, err := NewRefreshListingsUseCase(fast, nil, store).Execute(context.Background(), true)
	require.NoError(t, err)

	close(gate)
	<-done

	_, ok := store.Get("new")
	assert.True(t, ok)
	_, ok = store.Get("old")
	assert.False(t, ok, "late response of an earlier load must be discarded")
}

func TestSearchListings_FailedForcedRefreshDoesNotDiscardLoad(t *testing.T) {
	store := search.NewStore()
	gate := make(chan struct{})
	slow := &fakeSource{listings: []domain.Listing{listing("a", 10)}, gate: gate}
	uc := NewSearchListingsUseCase(store, NewRefreshListingsUseCase(slow, nil, store))

	type outcome struct {
		res *domain.SearchResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := uc.Execute(context.Background(), search.RawCriteria{}, domain.SortPriceAsc, 1, 6)
		done <- outcome{res, err}
	}()
	require.Eventually(t, func() bool { return slow.Calls() == 1 }, time.Second, time.Millisecond)

	failing := &fakeSource{err: errors.New("connection reset")}
	_, err := NewRefreshListingsUseCase(failing, nil, store).Execute(context.Background(), true)
	require.ErrorIs(t, err, domain.ErrListingsUnavailable)

	close(gate)
	got := <-done
	require.NoError(t, got.err)
	assert.False(t, got.res.LoadFailed)
	assert.Len(t, got.res.Listings, 1)
	_, loaded := store.Snapshot()
	assert.True(t, loaded)
}

func TestSearchListings_AnswersWhileNewerRefreshStillRunning(t *testing.T) {
	store := search.NewStore()
	searchGate, refreshGate := make(chan struct{}), make(chan struct{})
	slow := &fakeSource{listings: []domain.Listing{listing("a", 10), listing("b", 20)}, gate: searchGate}
	failing := &fakeSource{err: errors.New("timeout"), gate: refreshGate}
	uc := NewSearchListingsUseCase(store, NewRefreshListingsUseCase(slow, nil, store))

	searchDone := make(chan error, 1)
	var res *domain.SearchResult
	go func() {
		var err error
		res, err = uc.Execute(context.Background(), search.RawCriteria{}, domain.SortPriceAsc, 1, 6)
		searchDone <- err
	}()
	require.Eventually(t, func() bool { return slow.Calls() == 1 }, time.Second, time.Millisecond)

	refreshDone := make(chan error, 1)
	go func() {
		_, err := NewRefreshListingsUseCase(failing, nil, store).Execute(context.Background(), true)
		refreshDone <- err
	}()
	require.Eventually(t, func() bool { return failing.Calls() == 1 }, time.Second, time.Millisecond)

	close(searchGate)
	require.NoError(t, <-searchDone)
	assert.Len(t, res.Listings, 2)
	_, loaded := store.Snapshot()
	assert.False(t, loaded, "newer refresh is still running")

	close(refreshGate)
	assert.Error(t, <-refreshDone)
	listings, loaded := store.Snapshot()
	require.True(t, loaded)
	assert.Len(t, listings, 2)
}

func TestSearchListings_LoadsOnFirstUse(t *testing.T) {
	store := search.NewStore()
	a := listing("a", 300)
	a.Bedrooms = intPtr(2)
	b := listing("b", 100)
	b.Bedrooms = intPtr(2)
	c := listing("c", 200)
	c.Bedrooms = intPtr(1)
	source := &fakeSource{listings: []domain.Listing{a, b, c}}
	uc := NewSearchListingsUseCase(store, NewRefreshListingsUseCase(source, nil, store))

	res, err := uc.Execute(context.Background(), search.RawCriteria{Bedrooms: "2"}, domain.SortPriceAsc, 1, 6)
	require.NoError(t, err)
	require.Len(t, res.Listings, 2)
	assert.Equal(t, "b", res.Listings[0].ID)
	assert.Equal(t, "a", res.Listings[1].ID)
	assert.False(t, res.LoadFailed)

	_, err = uc.Execute(context.Background(), search.RawCriteria{}, domain.SortNewest, 1, 6)
	require.NoError(t, err)
	assert.Equal(t, 1, source.Calls(), "collection is loaded once")
}

func TestSearchListings_LoadFailureReturnsEmptyResult(t *testing.T) {
	store := search.NewStore()
	source := &fakeSource{err: errors.New("timeout")}
	uc := NewSearchListingsUseCase(store, NewRefreshListingsUseCase(source, nil, store))

	res, err := uc.Execute(context.Background(), search.RawCriteria{Category: "house"}, domain.SortRecommended, 1, 0)

	assert.ErrorIs(t, err, domain.ErrListingsUnavailable)
	require.NotNil(t, res)
	assert.True(t, res.LoadFailed)
	assert.Empty(t, res.Listings)
	assert.Equal(t, 1, res.TotalPages)
	require.Len(t, res.AppliedFilters, 1)
	assert.Equal(t, "category:house", res.AppliedFilters[0].Key)

	// следующий запрос пробует загрузить снова
	source.mu.Lock()
	source.err = nil
	source.listings = []domain.Listing{listing("a", 1)}
	source.mu.Unlock()

	res, err = uc.Execute(context.Background(), search.RawCriteria{}, domain.SortRecommended, 1, 0)
	require.NoError(t, err)
	assert.Len(t, res.Listings, 1)
}

func TestSearchListings_PerPageIsClamped(t *testing.T) {
	store := search.NewStore()
	source := &fakeSource{listings: []domain.Listing{listing("a", 1)}}
	uc := NewSearchListingsUseCase(store, NewRefreshListingsUseCase(source, nil, store))

	res, err := uc.Execute(context.Background(), search.RawCriteria{}, domain.SortRecommended, 1, 10_000)

	require.NoError(t, err)
	assert.Equal(t, 100, res.PerPage)
}

func TestGetListing(t *testing.T) {
	store := search.NewStore()
	source := &fakeSource{listings: []domain.Listing{listing("a", 1)}}
	uc := NewGetListingUseCase(store, NewRefreshListingsUseCase(source, nil, store))

	l, err := uc.Execute(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", l.ID)

	_, err = uc.Execute(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
}

func TestGetListing_Unavailable(t *testing.T) {
	store := search.NewStore()
	uc := NewGetListingUseCase(store, NewRefreshListingsUseCase(&fakeSource{err: errors.New("x")}, nil, store))

	_, err := uc.Execute(context.Background(), "a")
	assert.ErrorIs(t, err, domain.ErrListingsUnavailable)
}

func TestGetFilterOptions(t *testing.T) {
	store := search.NewStore()
	a := listing("a", 500)
	a.Bedrooms = intPtr(3)
	a.Amenities = []string{"Wifi", "parking"}
	a.Category = domain.CategoryHouse
	b := listing("b", 1500)
	b.Bedrooms = intPtr(1)
	b.Amenities = []string{"wifi", "Balcony"}
	b.Status = domain.StatusRented
	c := listing("c", 900)
	source := &fakeSource{listings: []domain.Listing{a, b, c}}
	uc := NewGetFilterOptionsUseCase(store, NewRefreshListingsUseCase(source, nil, store))

	res, err := uc.Execute(context.Background(), search.RawCriteria{PriceMax: "1000"})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 500.0, res.Options["price"].Min)
	assert.Equal(t, 1500.0, res.Options["price"].Max)
	assert.Equal(t, []interface{}{1, 3}, res.Options["bedrooms"].Options)
	assert.Equal(t, []interface{}{"apartment", "house"}, res.Options["category"].Options)
	assert.Equal(t, []interface{}{"available", "rented"}, res.Options["status"].Options)
	assert.Equal(t, []interface{}{"Balcony", "parking", "Wifi"}, res.Options["amenities"].Options)
}

func TestGetFilterOptions_AmenitiesFoldLikeFilter(t *testing.T) {
	store := search.NewStore()
	a := listing("a", 100)
	a.Amenities = []string{"Straße"}
	b := listing("b", 200)
	b.Amenities = []string{"STRASSE"}
	source := &fakeSource{listings: []domain.Listing{a, b}}
	uc := NewGetFilterOptionsUseCase(store, NewRefreshListingsUseCase(source, nil, store))

	res, err := uc.Execute(context.Background(), search.RawCriteria{Amenities: []string{"Straße"}})
	require.NoError(t, err)

	// одна опция и фильтр по ней находит обе записи
	assert.Equal(t, []interface{}{"Straße"}, res.Options["amenities"].Options)
	assert.Equal(t, 2, res.Count)
}

func TestGetFilterOptions_EmptyCollection(t *testing.T) {
	store := search.NewStore()
	uc := NewGetFilterOptionsUseCase(store, NewRefreshListingsUseCase(&fakeSource{}, nil, store))

	res, err := uc.Execute(context.Background(), search.RawCriteria{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)
	assert.Empty(t, res.Options)
}

func TestSafeCollect_RecoversPanic(t *testing.T) {
	_, ok, err := safeCollect(func([]domain.Listing) (domain.FilterOption, bool) {
		panic("broken collector")
	}, nil)

	assert.False(t, ok)
	assert.Error(t, err)
}
