package ssl

import "net/http"

// ChallengePort is the only port the certificate authority delivers HTTP-01
// validation requests to.
const ChallengePort = 80

// MiddlewareRegistrar is the capability a listening server must expose so
// Start can attach the provider's challenge middleware. Any server type with
// a compatible Use method satisfies it.
type MiddlewareRegistrar interface {
	Use(middleware func(http.Handler) http.Handler)
}

// PortReporter optionally reports which port a listening server accepts
// plain HTTP traffic on. Servers exposing it are checked against
// ChallengePort at configuration time; servers without it are taken at
// their word.
type PortReporter interface {
	Port() int
}
