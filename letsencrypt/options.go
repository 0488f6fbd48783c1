package letsencrypt

import (
	"log/slog"

	"github.com/PoeBlu/ssl/certstore"
	"github.com/PoeBlu/ssl/challenge"
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

// WithTokenStore replaces the default in-memory challenge token store.
// Use a shared store when several replicas sit behind one load balancer
// and any of them may receive the authority's validation request.
func WithTokenStore(store challenge.TokenStore) Option {
	return func(c *Certifier) {
		if store != nil {
			c.tokens = store
		}
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
// been persisted, typically to restart the TLS listener so it picks up the
// new key pair. The hook does not fire on first-time issuance.
func WithRestartHook(fn func()) Option {
	return func(c *Certifier) {
		c.notify = fn
	}
}
