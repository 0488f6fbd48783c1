package autocert

import (
	"log/slog"
	"time"

	xautocert "golang.org/x/crypto/acme/autocert"

	"github.com/PoeBlu/ssl/certstore"
)

// Option configures a Certifier during construction.
type Option func(*Certifier)

// WithLogger sets the logger used to report cycle outcomes.
// By default all output is discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Certifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithACMEProvider sets a custom ACME provider implementation.
// Primarily useful for testing with mock providers.
func WithACMEProvider(provider ACMEProvider) Option {
	return func(c *Certifier) {
		c.acme = provider
	}
}

// WithCache sets a custom cache implementation.
// By default a directory cache inside the certificate directory is used.
func WithCache(cache xautocert.Cache) Option {
	return func(c *Certifier) {
		c.cache = cache
	}
}

// WithRetryConfig sets custom retry behavior for certificate generation.
// Primarily useful for testing to avoid long delays.
func WithRetryConfig(maxRetries int, backoff time.Duration) Option {
	return func(c *Certifier) {
		c.maxRetries = maxRetries
		c.retryBackoff = backoff
	}
}

// WithMirror adds a secondary destination that receives a copy of the
// artifacts after every successful cycle.
func WithMirror(mirror certstore.Mirror) Option {
	return func(c *Certifier) {
		c.mirror = mirror
	}
}

// WithRestartHook sets the function invoked after a renewed certificate has
// been persisted. The hook does not fire on first-time issuance.
func WithRestartHook(fn func()) Option {
	return func(c *Certifier) {
		c.notify = fn
	}
}
