// Package autocert adapts golang.org/x/crypto/acme/autocert to the two-file
// certificate layout (domain.key, chained.pem).
//
// The Certifier forces issuance through the autocert manager, then exports
// the cached key and chain into the store so that servers reading the plain
// files pick them up. Renewal drops the cached entries and re-runs the
// exchange once the stored certificate approaches expiry. The middleware
// delegates challenge handling to autocert's own HTTP-01 responder, so no
// separate token store is involved.
//
// Compared to the letsencrypt package, this certifier trades control over
// key parameters for autocert's battle-tested caching; autocert picks the
// certificate key type itself.
package autocert
