package postgres_adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresListingSource читает всю коллекцию объявлений одним запросом
type PostgresListingSource struct {
	pool *pgxpool.Pool
}

func NewPostgresListingSource(pool *pgxpool.Pool) (*PostgresListingSource, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &PostgresListingSource{pool: pool}, nil
}

const selectListingsQuery = `
	SELECT
		id, title, subtitle, description,
		street, city, state, postal_code, country,
		category, bedrooms, bathrooms, area_sqm, price, status,
		amenities, features, recommended, capacity, available_from,
		rules, advertiser_id, images, lat, lon,
		created_at, updated_at
	FROM listings
	ORDER BY created_at DESC, id
`

func (s *PostgresListingSource) FetchAll(ctx context.Context) ([]domain.Listing, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "PostgresListingSource",
		"method":    "FetchAll",
	})
	repoLogger.Debug("Fetching listings from DB", nil)

	rows, err := s.pool.Query(ctx, selectListingsQuery)
	if err != nil {
		repoLogger.Error("Failed to query listings", err, nil)
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}

	listings, err := pgx.CollectRows(rows, listingScanner(repoLogger))
	if err != nil {
		repoLogger.Error("Failed to scan listings", err, nil)
		return nil, fmt.Errorf("failed to scan listings: %w", err)
	}

	repoLogger.Debug("Listings fetched", port.Fields{"count": len(listings)})
	return listings, nil
}

// listingScanner: дефектное необязательное поле не роняет всю выборку
func listingScanner(logger port.LoggerPort) pgx.RowToFunc[domain.Listing] {
	return func(row pgx.CollectableRow) (domain.Listing, error) {
		return scanListing(row, logger)
	}
}

func scanListing(row pgx.CollectableRow, logger port.LoggerPort) (domain.Listing, error) {
	var (
		l             domain.Listing
		category      string
		status        string
		availableFrom *time.Time
		rulesJSON     []byte
		lat, lon      *float64
	)

	err := row.Scan(
		&l.ID, &l.Title, &l.Subtitle, &l.Description,
		&l.Address.Street, &l.Address.City, &l.Address.State, &l.Address.PostalCode, &l.Address.Country,
		&category, &l.Bedrooms, &l.Bathrooms, &l.AreaSqm, &l.Price, &status,
		&l.Amenities, &l.Features, &l.Recommended, &l.Capacity, &availableFrom,
		&rulesJSON, &l.AdvertiserID, &l.Images, &lat, &lon,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return domain.Listing{}, err
	}

	// неизвестные значения оставляем как есть: Validate отбросит запись
	l.Category = domain.Category(category)
	if c, ok := domain.ParseCategory(category); ok {
		l.Category = c
	}
	l.Status = domain.ListingStatus(status)
	if st, ok := domain.ParseStatus(status); ok {
		l.Status = st
	}

	l.AvailableFrom = availableFrom
	if lat != nil && lon != nil {
		l.Geo = &domain.GeoPoint{Lat: *lat, Lon: *lon}
	}
	l.Rules = decodeRules(l.ID, rulesJSON, logger)
	return l, nil
}

// decodeRules: не JSON-объект из bool - правил нет, запись остается
func decodeRules(listingID string, raw []byte, logger port.LoggerPort) map[string]bool {
	if len(raw) == 0 {
		return nil
	}
	var rules map[string]bool
	if err := json.Unmarshal(raw, &rules); err != nil {
		logger.Warn("Invalid rules column, rules ignored", port.Fields{
			"listing_id": listingID,
			"error":      err.Error(),
		})
		return nil
	}
	return rules
}
