package letsencrypt

import "errors"

var (
	// ErrNoDomains is returned when a cycle is requested without any domain configured.
	ErrNoDomains = errors.New("at least one domain is required")

	// ErrEmptyResource is returned when the ACME server responds with an incomplete certificate resource.
	ErrEmptyResource = errors.New("empty certificate resource received from ACME server")
)
