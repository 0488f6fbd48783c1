package autocert

import (
	"crypto/tls"
	"net/http"
)

// ACMEProvider defines the interface for ACME certificate operations.
// The abstraction allows testing without real ACME requests and enables
// swapping the underlying machinery.
type ACMEProvider interface {
	// GetCertificate obtains a certificate for the requested server name,
	// issuing one when the cache has none.
	GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error)

	// HTTPHandler returns the handler for ACME HTTP-01 challenges.
	// Requests outside /.well-known/acme-challenge/ go to fallback.
	HTTPHandler(fallback http.Handler) http.Handler
}
