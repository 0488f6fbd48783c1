package certstore

import "errors"

var (
	// ErrEmptyDirectory is returned when a store is created with an empty directory path.
	ErrEmptyDirectory = errors.New("certificate directory path is empty")

	// ErrMalformedChain is returned when the chain file does not start with a parseable PEM certificate block.
	ErrMalformedChain = errors.New("malformed certificate chain")
)
