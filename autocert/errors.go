package autocert

import "errors"

var (
	// ErrNoDomains is returned when a cycle is requested without any domain configured.
	ErrNoDomains = errors.New("at least one domain is required")

	// ErrMalformedCacheEntry is returned when a cached certificate entry is
	// missing its private key or certificate blocks.
	ErrMalformedCacheEntry = errors.New("malformed autocert cache entry")
)
