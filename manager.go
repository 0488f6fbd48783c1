package ssl

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/PoeBlu/ssl/certstore"
)

// State describes how far a Start call progressed.
type State int

const (
	// StateIdle is a manager that has not started.
	StateIdle State = iota

	// StateMiddlewareAttached means the provider's challenge middleware is
	// registered on the listening server.
	StateMiddlewareAttached

	// StateDirectoryEnsured means the certificate directory exists.
	StateDirectoryEnsured

	// StateIssuing means first-time issuance was dispatched.
	StateIssuing

	// StateWatching means an existing certificate was found. With
	// auto-renew enabled a renewal watch is running; without it the state
	// is terminal and passive.
	StateWatching
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMiddlewareAttached:
		return "middleware_attached"
	case StateDirectoryEnsured:
		return "directory_ensured"
	case StateIssuing:
		return "issuing"
	case StateWatching:
		return "watching"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Manager drives certificate lifecycle startup: it attaches the provider's
// challenge middleware to the listening server, ensures the certificate
// directory, then dispatches either first-time issuance or renewal watching
// depending on which artifacts are already on disk.
type Manager struct {
	cfg      Config
	registry *Registry
	logger   *slog.Logger
	store    *certstore.Store
	provider Provider
	state    State
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithRegistry overrides the provider registry, e.g. to add a custom
// provider implementation.
func WithRegistry(registry *Registry) ManagerOption {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// NewManager validates the configuration and prepares a manager. Nothing
// touches the filesystem or the network until Start.
func NewManager(cfg Config, opts ...ManagerOption) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := certstore.New(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve certificate directory: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	m := &Manager{
		cfg:      cfg,
		registry: DefaultRegistry(),
		logger:   logger,
		store:    store,
		state:    StateIdle,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(m)
	}

	return m, nil
}

// Start runs the startup sequence: construct the provider, attach its
// challenge middleware to the listening server, ensure the certificate
// directory, probe for existing artifacts, and dispatch issuance or renewal
// watching. The returned state reports how far the sequence got; on failure
// it is the last state reached.
//
// Middleware attachment failures abort before any directory is created or
// any provider work is dispatched. Probe failures are never errors: an
// unreadable artifact counts as absent and routes to first-time issuance.
func (m *Manager) Start(ctx context.Context) (State, error) {
	factory, ok := m.registry.Resolve(m.cfg.ProviderName)
	if !ok {
		return m.state, fmt.Errorf("%w: no factory registered for provider %q and no default available",
			ErrPreconditionFailed, m.cfg.ProviderName)
	}

	provider, err := factory(m.cfg)
	if err != nil {
		return m.state, fmt.Errorf("failed to construct provider %q: %w", m.cfg.ProviderName, err)
	}
	m.provider = provider

	if err := m.attachMiddleware(provider); err != nil {
		return m.state, err
	}
	m.state = StateMiddlewareAttached

	if m.cfg.CreateDirectory {
		if err := m.store.Ensure(); err != nil {
			return m.state, err
		}
	}
	m.state = StateDirectoryEnsured

	if m.store.HasCertificate() {
		if m.cfg.AutoRenew {
			if err := provider.Watch(ctx); err != nil {
				return m.state, fmt.Errorf("failed to start renewal watch: %w", err)
			}
			m.logger.InfoContext(ctx, "certificate found, watching for renewal",
				slog.String("dir", m.store.Dir()),
				slog.String("provider", m.cfg.ProviderName))
		} else {
			m.logger.InfoContext(ctx, "certificate found, auto renew disabled",
				slog.String("dir", m.store.Dir()))
		}
		m.state = StateWatching
		return m.state, nil
	}

	if err := provider.Init(ctx); err != nil {
		return m.state, fmt.Errorf("failed to start certificate issuance: %w", err)
	}
	m.logger.InfoContext(ctx, "no certificate found, starting issuance",
		slog.String("dir", m.store.Dir()),
		slog.String("provider", m.cfg.ProviderName))
	m.state = StateIssuing
	return m.state, nil
}

// attachMiddleware wires the provider's challenge responder into the
// listening server. The checks run in a fixed order: server present,
// provider supplies middleware, server can register it.
func (m *Manager) attachMiddleware(provider Provider) error {
	if m.cfg.Server == nil {
		return fmt.Errorf("%w: no listening server attached", ErrPreconditionFailed)
	}

	source, ok := provider.(MiddlewareProvider)
	if !ok {
		return fmt.Errorf("%w: provider %q does not supply challenge middleware",
			ErrPreconditionFailed, m.cfg.ProviderName)
	}

	registrar, ok := m.cfg.Server.(MiddlewareRegistrar)
	if !ok {
		return fmt.Errorf("%w: listening server cannot register middleware", ErrPreconditionFailed)
	}

	registrar.Use(source.Middleware())
	return nil
}

// State returns how far the last Start call progressed.
func (m *Manager) State() State {
	return m.state
}

// Provider returns the provider constructed by Start, or nil before Start
// has run.
func (m *Manager) Provider() Provider {
	return m.provider
}
