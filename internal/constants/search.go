package constants

import "time"

const (
	DefaultPageSize = 6
	MaxPageSize     = 100
)

const (
	ListingsCacheKey = "listings:snapshot:v1"

	DefaultListingsCacheTTL     = 10 * time.Minute
	DefaultNotificationsPollInt = 30 * time.Second
	SSEKeepAliveInterval        = 15 * time.Second
)
