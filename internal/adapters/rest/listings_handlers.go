package rest

import (
	"errors"
	"net/http"
	"strings"

	"listing-service/internal/constants"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/core/port/usecases_port"
	"listing-service/internal/core/search"

	"github.com/go-chi/chi/v5"
)

const rulePrefix = "rule."

type ListingsHandler struct {
	searchUC          usecases_port.SearchListingsUseCase
	getListingUC      usecases_port.GetListingUseCase
	getFilterOptionUC usecases_port.GetFilterOptionsUseCase
	refreshUC         usecases_port.RefreshListingsUseCase
	defaultPageSize   int
}

func NewListingsHandler(
	searchUC usecases_port.SearchListingsUseCase,
	getListingUC usecases_port.GetListingUseCase,
	getFilterOptionUC usecases_port.GetFilterOptionsUseCase,
	refreshUC usecases_port.RefreshListingsUseCase,
	defaultPageSize int,
) *ListingsHandler {
	if defaultPageSize <= 0 {
		defaultPageSize = constants.DefaultPageSize
	}
	return &ListingsHandler{
		searchUC:          searchUC,
		getListingUC:      getListingUC,
		getFilterOptionUC: getFilterOptionUC,
		refreshUC:         refreshUC,
		defaultPageSize:   defaultPageSize,
	}
}

// parseRawCriteria переносит query-параметры в сырой ввод без валидации:
// разбор и отбрасывание мусора делает search.BuildCriteria
func parseRawCriteria(r *http.Request) search.RawCriteria {
	q := r.URL.Query()
	raw := search.RawCriteria{
		Query:     q.Get("q"),
		Bedrooms:  q.Get("bedrooms"),
		PriceMin:  q.Get("priceMin"),
		PriceMax:  q.Get("priceMax"),
		Category:  q.Get("category"),
		Amenities: listParam(r, "amenities"),
		Status:    q.Get("status"),
		Capacity:  q.Get("capacity"),
		MoveIn:    q.Get("moveIn"),
	}
	for key, values := range q {
		if name, ok := strings.CutPrefix(key, rulePrefix); ok && name != "" && len(values) > 0 {
			if raw.Rules == nil {
				raw.Rules = make(map[string]string)
			}
			raw.Rules[name] = values[0]
		}
	}
	return raw
}

// SearchListings - GET /api/v1/listings
func (h *ListingsHandler) SearchListings(w http.ResponseWriter, r *http.Request) {
	page := positiveIntParam(r, "page", 1)
	perPage := positiveIntParam(r, "perPage", h.defaultPageSize)
	if perPage > constants.MaxPageSize {
		perPage = constants.MaxPageSize
	}
	sort := domain.ParseSortSpec(r.URL.Query().Get("sort"))

	result, err := h.searchUC.Execute(r.Context(), parseRawCriteria(r), sort, page, perPage)
	if err != nil {
		// клиент получает пустую выдачу с флагом load_failed
		if errors.Is(err, domain.ErrListingsUnavailable) && result != nil {
			RespondWithJSON(w, http.StatusServiceUnavailable, toSearchResponse(result))
			return
		}
		WriteJSONError(w, http.StatusInternalServerError, "Failed to search listings")
		return
	}

	RespondWithJSON(w, http.StatusOK, toSearchResponse(result))
}

// GetListing - GET /api/v1/listings/{listingID}
func (h *ListingsHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "listingID"))
	if id == "" {
		WriteJSONError(w, http.StatusBadRequest, "Listing ID is required")
		return
	}

	listing, err := h.getListingUC.Execute(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrListingNotFound):
		WriteJSONError(w, http.StatusNotFound, "Listing not found")
	case errors.Is(err, domain.ErrListingsUnavailable):
		WriteJSONError(w, http.StatusServiceUnavailable, "Failed to load listings")
	case err != nil:
		WriteJSONError(w, http.StatusInternalServerError, "Failed to get listing")
	default:
		RespondWithJSON(w, http.StatusOK, toListingResponse(*listing))
	}
}

// GetFilterOptions - GET /api/v1/filters/options
func (h *ListingsHandler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	result, err := h.getFilterOptionUC.Execute(r.Context(), parseRawCriteria(r))
	if err != nil {
		if errors.Is(err, domain.ErrListingsUnavailable) {
			WriteJSONError(w, http.StatusServiceUnavailable, "Failed to load listings")
			return
		}
		WriteJSONError(w, http.StatusInternalServerError, "Failed to get filter options")
		return
	}

	resp := FilterOptionsResponse{Filters: make(map[string]FilterOptionResponse, len(result.Options)), Count: result.Count}
	for name, opt := range result.Options {
		resp.Filters[name] = FilterOptionResponse{Options: opt.Options, Min: opt.Min, Max: opt.Max}
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

// RefreshListings - POST /api/v1/listings/refresh, только для админа
func (h *ListingsHandler) RefreshListings(w http.ResponseWriter, r *http.Request) {
	count, err := h.refreshUC.Execute(r.Context(), true)
	if err != nil {
		contextkeys.LoggerFromContext(r.Context()).Error("Manual refresh failed", err, nil)
		WriteJSONError(w, http.StatusServiceUnavailable, "Failed to load listings")
		return
	}
	contextkeys.LoggerFromContext(r.Context()).Info("Listings refreshed manually", port.Fields{"count": count})
	RespondWithJSON(w, http.StatusOK, RefreshResponse{Count: count})
}
