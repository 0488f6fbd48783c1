// Package letsencrypt implements certificate issuance and renewal against
// Let's Encrypt (or any ACME v2 endpoint) using the HTTP-01 challenge.
//
// The Certifier drives the full exchange: it registers an account, solves
// challenges by publishing tokens to a token store that the listening
// server's middleware reads from, orders the certificate, and persists the
// private key and bundled chain through a certstore.Store. Renewal runs as
// a background watch loop that re-issues once the stored certificate
// approaches expiry and then fires an optional restart hook.
//
// # Types
//
//   - Certifier: issuance and renewal cycles plus challenge middleware
//   - Config: domains, account contact, endpoint and cadence settings
//
// # Basic Usage
//
//	certifier, err := letsencrypt.New(letsencrypt.Config{
//		Domains:   []string{"example.com"},
//		Email:     "admin@example.com",
//		Directory: "~/dadi/ssl",
//	}, letsencrypt.WithLogger(logger))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Answer validation requests on the port-80 server.
//	srv.Use(certifier.Middleware())
//
//	// First-time issuance; runs in the background.
//	if err := certifier.Init(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// Use CADirectoryStaging while integrating: staging issues untrusted
// certificates but is exempt from production rate limits.
package letsencrypt
