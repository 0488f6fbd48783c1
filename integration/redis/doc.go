// Package redis provides Redis client initialization with retry logic and a
// Redis-backed store for ACME HTTP-01 challenge tokens.
//
// The token store makes multi-instance deployments possible: the certificate
// authority may deliver the validation request to any instance behind a load
// balancer, so tokens published by one instance must be readable by all of
// them. Process-local deployments do not need this package; the in-memory
// store in the challenge package is the default.
//
// # Connecting
//
//	cfg := redis.Config{ConnectionURL: "redis://localhost:6379/0"}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	store := redis.NewTokenStore(client)
//
// The store satisfies challenge.TokenStore and plugs into the certificate
// manager through the builder's challenge store setter.
//
// # Error Handling
//
// The package defines domain-specific errors that can be checked with
// errors.Is():
//
//   - ErrFailedToParseRedisConnString: the connection URL is malformed
//   - ErrRedisNotReady: Redis did not answer a ping within the timeout
//   - ErrEmptyConnectionURL: no connection URL was provided
//   - ErrHealthcheckFailed: a health check ping failed
//
// Connection establishment validates the URL, retries transient failures at
// RetryInterval, and verifies connectivity with a ping before returning the
// client. Both redis:// and rediss:// schemes are supported.
package redis
