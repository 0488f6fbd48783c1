package ssl

import (
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/PoeBlu/ssl/certstore"
	"github.com/PoeBlu/ssl/challenge"
)

// Environment selects which certificate authority endpoint issues
// certificates.
type Environment string

const (
	// EnvironmentProduction issues browser-trusted certificates under
	// strict rate limits.
	EnvironmentProduction Environment = "production"

	// EnvironmentStaging issues untrusted test certificates under generous
	// rate limits, for integration testing.
	EnvironmentStaging Environment = "staging"
)

// Valid reports whether the environment is a known value.
func (e Environment) Valid() bool {
	return e == EnvironmentProduction || e == EnvironmentStaging
}

// MinKeyLength is the smallest accepted RSA modulus size in bits.
const MinKeyLength = 512

// DefaultDirectory is where certificate artifacts live unless configured
// otherwise. The leading "~" expands to the user's home directory.
const DefaultDirectory = "~/dadi/ssl"

// Config is the complete description of a certificate manager. Build one
// through NewConfig's chainable setters or from environment variables with
// LoadConfig.
type Config struct {
	Environment     Environment `env:"SSL_ENVIRONMENT" envDefault:"production"`
	Directory       string      `env:"SSL_CERT_DIR" envDefault:"~/dadi/ssl"`
	CreateDirectory bool        `env:"SSL_CREATE_DIR" envDefault:"true"`
	ProviderName    string      `env:"SSL_PROVIDER" envDefault:"letsencrypt"`
	Domains         []string    `env:"SSL_DOMAINS" envSeparator:","`
	Email           string      `env:"SSL_EMAIL"`
	AutoRenew       bool        `env:"SSL_AUTO_RENEW" envDefault:"true"`
	KeyLength       int         `env:"SSL_KEY_LENGTH" envDefault:"2048"`

	// Collaborators cannot come from the environment.
	Server    any                  `env:"-"`
	OnRestart func()               `env:"-"`
	Logger    *slog.Logger         `env:"-"`
	Mirror    certstore.Mirror     `env:"-"`
	Challenge challenge.TokenStore `env:"-"`
}

// DefaultConfig returns the configuration NewConfig starts from: production
// environment, ~/dadi/ssl with creation enabled, the letsencrypt provider,
// auto-renew on, and 2048 bit keys.
func DefaultConfig() Config {
	return Config{
		Environment:     EnvironmentProduction,
		Directory:       DefaultDirectory,
		CreateDirectory: true,
		ProviderName:    ProviderLetsEncrypt,
		Domains:         []string{},
		AutoRenew:       true,
		KeyLength:       2048,
	}
}

// LoadConfig reads configuration from environment variables, loading .env
// first when present. The result is validated; collaborators like the
// listening server still have to be set on the returned value.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.Domains == nil {
		cfg.Domains = []string{}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every invariant that does not require collaborators to be
// present. A missing server is legal here; Start is where attachment is
// enforced.
func (c Config) Validate() error {
	if !c.Environment.Valid() {
		return fmt.Errorf("%w: unknown environment %q", ErrInvalidArgument, c.Environment)
	}
	if c.Directory == "" {
		return fmt.Errorf("%w: certificate directory cannot be empty", ErrInvalidArgument)
	}
	if c.Domains == nil {
		return fmt.Errorf("%w: domains cannot be nil", ErrInvalidArgument)
	}
	for _, domain := range c.Domains {
		if strings.TrimSpace(domain) == "" {
			return fmt.Errorf("%w: domains cannot contain blank entries", ErrInvalidArgument)
		}
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return fmt.Errorf("%w: malformed registration email %q", ErrInvalidArgument, c.Email)
		}
	}
	if c.KeyLength < MinKeyLength {
		return fmt.Errorf("%w: key length %d is below the %d bit minimum", ErrInvalidArgument, c.KeyLength, MinKeyLength)
	}
	if reporter, ok := c.Server.(PortReporter); ok && reporter.Port() != ChallengePort {
		return fmt.Errorf("%w: listening server reports port %d, challenges arrive on port %d",
			ErrInvalidArgument, reporter.Port(), ChallengePort)
	}
	return nil
}
