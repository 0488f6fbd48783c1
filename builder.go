package ssl

import (
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/PoeBlu/ssl/certstore"
	"github.com/PoeBlu/ssl/challenge"
)

// Builder accumulates configuration through chainable setters. The first
// invalid value sticks: later calls are ignored and Build returns the
// recorded error.
type Builder struct {
	cfg Config
	err error
}

// NewConfig starts a builder seeded with DefaultConfig.
func NewConfig() *Builder {
	return &Builder{cfg: DefaultConfig()}
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// WithEnvironment selects the production or staging certificate authority.
func (b *Builder) WithEnvironment(environment Environment) *Builder {
	if b.err != nil {
		return b
	}
	if !environment.Valid() {
		return b.fail(fmt.Errorf("%w: unknown environment %q", ErrInvalidArgument, environment))
	}
	b.cfg.Environment = environment
	return b
}

// WithDomains replaces the domain list. The slice must be non-nil with no
// blank entries; an empty list is valid at configuration time and rejected
// when issuance starts.
func (b *Builder) WithDomains(domains []string) *Builder {
	if b.err != nil {
		return b
	}
	if domains == nil {
		return b.fail(fmt.Errorf("%w: domains cannot be nil", ErrInvalidArgument))
	}
	for _, domain := range domains {
		if strings.TrimSpace(domain) == "" {
			return b.fail(fmt.Errorf("%w: domains cannot contain blank entries", ErrInvalidArgument))
		}
	}
	b.cfg.Domains = cloneDomains(domains)
	return b
}

// WithCertificateDirectory sets where domain.key and chained.pem live and
// whether Start creates the directory when it is missing. A leading "~" in
// dir expands to the user's home directory.
func (b *Builder) WithCertificateDirectory(dir string, create bool) *Builder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(dir) == "" {
		return b.fail(fmt.Errorf("%w: certificate directory cannot be empty", ErrInvalidArgument))
	}
	b.cfg.Directory = dir
	b.cfg.CreateDirectory = create
	return b
}

// WithProvider names the certificate provider. Any name is accepted here;
// unknown names fall back to the default provider when Start resolves the
// registry.
func (b *Builder) WithProvider(name string) *Builder {
	if b.err != nil {
		return b
	}
	b.cfg.ProviderName = name
	return b
}

// WithRegistrationEmail sets the ACME account contact. The address must
// parse per RFC 5322; the normalized form is stored.
func (b *Builder) WithRegistrationEmail(email string) *Builder {
	if b.err != nil {
		return b
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return b.fail(fmt.Errorf("%w: malformed registration email %q", ErrInvalidArgument, email))
	}
	b.cfg.Email = addr.Address
	return b
}

// WithAutoRenew toggles renewal watching when a certificate already exists
// at startup.
func (b *Builder) WithAutoRenew(enabled bool) *Builder {
	if b.err != nil {
		return b
	}
	b.cfg.AutoRenew = enabled
	return b
}

// WithKeyLength sets the RSA modulus size in bits. Values below
// MinKeyLength are rejected.
func (b *Builder) WithKeyLength(bits int) *Builder {
	if b.err != nil {
		return b
	}
	if bits < MinKeyLength {
		return b.fail(fmt.Errorf("%w: key length %d is below the %d bit minimum", ErrInvalidArgument, bits, MinKeyLength))
	}
	b.cfg.KeyLength = bits
	return b
}

// WithListeningServer attaches the host server that answers challenge
// requests. The server must be non-nil, and when it reports a port, that
// port must be ChallengePort. The middleware capability is checked by
// Start, not here, so a value without a Use method configures fine and
// fails at startup.
func (b *Builder) WithListeningServer(server any) *Builder {
	if b.err != nil {
		return b
	}
	if server == nil {
		return b.fail(fmt.Errorf("%w: listening server is required", ErrInvalidArgument))
	}
	if reporter, ok := server.(PortReporter); ok && reporter.Port() != ChallengePort {
		return b.fail(fmt.Errorf("%w: listening server reports port %d, challenges arrive on port %d",
			ErrInvalidArgument, reporter.Port(), ChallengePort))
	}
	b.cfg.Server = server
	return b
}

// WithRestartHook registers a callback fired after a renewed certificate has
// been persisted, typically to reload the TLS listener. Passing nil clears
// the hook.
func (b *Builder) WithRestartHook(hook func()) *Builder {
	if b.err != nil {
		return b
	}
	b.cfg.OnRestart = hook
	return b
}

// WithLogger sets the structured logger. Without one, all logging is
// discarded.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	if b.err != nil {
		return b
	}
	if logger == nil {
		return b.fail(fmt.Errorf("%w: logger cannot be nil", ErrInvalidArgument))
	}
	b.cfg.Logger = logger
	return b
}

// WithCertificateMirror replicates artifacts off host after each successful
// issuance or renewal.
func (b *Builder) WithCertificateMirror(mirror certstore.Mirror) *Builder {
	if b.err != nil {
		return b
	}
	if mirror == nil {
		return b.fail(fmt.Errorf("%w: certificate mirror cannot be nil", ErrInvalidArgument))
	}
	b.cfg.Mirror = mirror
	return b
}

// WithChallengeStore overrides where HTTP-01 tokens are published, e.g. a
// Redis store shared between load-balanced instances.
func (b *Builder) WithChallengeStore(store challenge.TokenStore) *Builder {
	if b.err != nil {
		return b
	}
	if store == nil {
		return b.fail(fmt.Errorf("%w: challenge store cannot be nil", ErrInvalidArgument))
	}
	b.cfg.Challenge = store
	return b
}

// Err returns the first validation failure without finalizing the builder.
func (b *Builder) Err() error {
	return b.err
}

// Build returns the accumulated configuration, or the first validation
// failure recorded by a setter.
func (b *Builder) Build() (Config, error) {
	if b.err != nil {
		return Config{}, b.err
	}

	cfg := b.cfg
	cfg.Domains = cloneDomains(cfg.Domains)
	return cfg, nil
}

func cloneDomains(domains []string) []string {
	cloned := make([]string, len(domains))
	copy(cloned, domains)
	return cloned
}
