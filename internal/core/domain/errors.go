package domain

import "errors"

var (
	ErrListingNotFound      = errors.New("listing not found")
	ErrListingsUnavailable  = errors.New("failed to load listings")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrTokenInvalid         = errors.New("token is invalid or expired")
	ErrForbidden            = errors.New("forbidden")
	ErrCacheMiss            = errors.New("cache miss")
)
