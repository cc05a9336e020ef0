package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrSessionNotFound is returned when a session id is unknown or expired
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionBusy is returned when a session already has a message in flight
	ErrSessionBusy = errors.New("session has a message in flight")

	// ErrUpstreamFailure is returned when the webhook request fails
	ErrUpstreamFailure = errors.New("upstream webhook request failed")

	// ErrStorefrontFailure is returned when a storefront API request fails
	ErrStorefrontFailure = errors.New("storefront API request failed")

	// ErrStorefrontNotConfigured is returned when no store domain or token is set
	ErrStorefrontNotConfigured = errors.New("storefront configuration missing")

	// ErrLLMUnavailable is returned when no LLM is configured or it fails
	ErrLLMUnavailable = errors.New("LLM unavailable")

	// ErrCartAddFailed is returned when neither cart path succeeded
	ErrCartAddFailed = errors.New("failed to add to cart")

	// ErrProductNotFound is returned when a search yields no products
	ErrProductNotFound = errors.New("no matching products")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
