// Package ssl manages the TLS certificate lifecycle for a host application:
// obtaining certificates from an ACME authority, persisting them as a
// two-file store (domain.key and chained.pem), renewing them before expiry,
// and answering the HTTP-01 validation requests the authority sends back.
//
// The package does not run its own HTTP server. The host application owns
// the listening server; the manager attaches challenge middleware to it and
// otherwise stays out of the request path.
//
// # Configuration
//
// Configuration is built through chainable setters. The first invalid value
// wins and is reported by Build:
//
//	cfg, err := ssl.NewConfig().
//		WithDomains([]string{"example.com", "www.example.com"}).
//		WithRegistrationEmail("ops@example.com").
//		WithCertificateDirectory("/etc/certs", true).
//		WithListeningServer(server).
//		WithRestartHook(func() { server.Reload() }).
//		Build()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// LoadConfig offers the same result from SSL_* environment variables, with
// .env support for development.
//
// # Startup
//
// The manager decides between first-time issuance and renewal watching by
// probing the certificate directory:
//
//	manager, err := ssl.NewManager(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	state, err := manager.Start(ctx)
//
// When both artifacts exist, the provider watches for expiry and renews in
// the background, firing the restart hook after each renewed certificate is
// persisted. When either artifact is missing, a fresh issuance is
// dispatched. Both paths return promptly; the work continues in goroutines
// owned by the provider and stops when the Start context is canceled.
//
// # Providers
//
// Certificate operations are delegated to a named provider resolved through
// a registry. Two implementations ship with the module: letsencrypt, the
// default, built on go-acme/lego, and autocert, built on
// golang.org/x/crypto/acme/autocert. Unknown names fall back to the
// default. Custom providers implement Provider, optionally
// MiddlewareProvider, and register through WithRegistry.
//
// # Listening Server Capabilities
//
// The manager talks to the host server through two small interfaces rather
// than a concrete type. MiddlewareRegistrar is required at startup so the
// challenge responder can be attached. PortReporter is optional: servers
// that report a port are validated against ChallengePort when configured,
// since the authority only delivers challenges to port 80.
package ssl
