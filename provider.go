package ssl

import (
	"context"
	"net/http"
	"sync"

	"github.com/PoeBlu/ssl/autocert"
	"github.com/PoeBlu/ssl/letsencrypt"
)

// Built-in provider names.
const (
	ProviderLetsEncrypt = "letsencrypt"
	ProviderAutocert    = "autocert"
)

// Provider drives certificate issuance and renewal. Constructors must be
// passive: no filesystem or network work happens before Init or Watch.
type Provider interface {
	// Init starts first-time issuance. It returns once the work is
	// scheduled; the outcome is reported through the provider's logger.
	Init(ctx context.Context) error

	// Watch starts background renewal monitoring for an existing
	// certificate. Canceling the context stops the watch.
	Watch(ctx context.Context) error
}

// MiddlewareProvider is the capability of answering ACME HTTP-01 challenge
// requests through a handler chain link. Start requires it from whichever
// provider the registry resolves.
type MiddlewareProvider interface {
	Middleware() func(http.Handler) http.Handler
}

// Factory builds a Provider from a validated configuration.
type Factory func(cfg Config) (Provider, error)

// Registry maps provider names to factories.
type Registry struct {
	mu          sync.RWMutex
	factories   map[string]Factory
	defaultName string
}

// NewRegistry creates an empty registry whose Resolve falls back to the
// factory registered under defaultName.
func NewRegistry(defaultName string) *Registry {
	return &Registry{
		factories:   make(map[string]Factory),
		defaultName: defaultName,
	}
}

// Register adds or replaces the factory for a name.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[name] = factory
}

// Resolve returns the factory for a name. Unknown names resolve to the
// default factory, so a misspelled provider silently selects the default
// rather than failing. The second return value is false only when neither
// the name nor the default is registered.
func (r *Registry) Resolve(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if factory, ok := r.factories[name]; ok {
		return factory, true
	}
	factory, ok := r.factories[r.defaultName]
	return factory, ok
}

// DefaultRegistry returns a registry with the built-in providers registered:
// letsencrypt, the default, and autocert.
func DefaultRegistry() *Registry {
	registry := NewRegistry(ProviderLetsEncrypt)
	registry.Register(ProviderLetsEncrypt, newLetsEncryptProvider)
	registry.Register(ProviderAutocert, newAutocertProvider)
	return registry
}

func newLetsEncryptProvider(cfg Config) (Provider, error) {
	pcfg := letsencrypt.Config{
		Domains:   cfg.Domains,
		Email:     cfg.Email,
		Directory: cfg.Directory,
		KeyBits:   cfg.KeyLength,
	}
	if cfg.Environment == EnvironmentStaging {
		pcfg.CADirURL = letsencrypt.CADirectoryStaging
	}

	opts := []letsencrypt.Option{
		letsencrypt.WithLogger(cfg.Logger),
		letsencrypt.WithRestartHook(cfg.OnRestart),
	}
	if cfg.Challenge != nil {
		opts = append(opts, letsencrypt.WithTokenStore(cfg.Challenge))
	}
	if cfg.Mirror != nil {
		opts = append(opts, letsencrypt.WithMirror(cfg.Mirror))
	}

	return letsencrypt.New(pcfg, opts...)
}

// newAutocertProvider ignores cfg.KeyLength: autocert chooses certificate
// keys itself.
func newAutocertProvider(cfg Config) (Provider, error) {
	pcfg := autocert.Config{
		Domains:   cfg.Domains,
		Email:     cfg.Email,
		Directory: cfg.Directory,
	}
	if cfg.Environment == EnvironmentStaging {
		pcfg.CADirURL = letsencrypt.CADirectoryStaging
	}

	opts := []autocert.Option{
		autocert.WithLogger(cfg.Logger),
		autocert.WithRestartHook(cfg.OnRestart),
	}
	if cfg.Mirror != nil {
		opts = append(opts, autocert.WithMirror(cfg.Mirror))
	}

	return autocert.New(pcfg, opts...)
}
