// Package challenge provides storage and HTTP plumbing for ACME HTTP-01
// domain validation. The certificate authority hands out a token during
// issuance; the authority then fetches
// /.well-known/acme-challenge/<token> from port 80 of the domain and expects
// the stored key authorization back.
//
// The TokenStore interface decouples where tokens live from how they are
// served: MemoryStore covers a single process, while a shared store (see the
// redis integration) lets any replica behind a load balancer answer the
// authority's request.
package challenge
