package letsencrypt

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-acme/lego/v4/certcrypto"
	"github.com/go-acme/lego/v4/certificate"
	"github.com/go-acme/lego/v4/lego"
	"github.com/go-acme/lego/v4/registration"
	"github.com/google/uuid"

	"github.com/PoeBlu/ssl/certstore"
	"github.com/PoeBlu/ssl/challenge"
)

const (
	// CADirectoryProduction is the production ACME endpoint.
	CADirectoryProduction = lego.LEDirectoryProduction

	// CADirectoryStaging is the staging ACME endpoint. Staging issues
	// untrusted certificates but has far higher rate limits.
	CADirectoryStaging = lego.LEDirectoryStaging

	defaultKeyBits       = 2048
	defaultRenewBefore   = 30 * 24 * time.Hour
	defaultCheckInterval = 12 * time.Hour
)

// Config holds settings for the Let's Encrypt certifier.
type Config struct {
	// Domains to include in the certificate. The first entry is the subject,
	// the rest become subject alternative names.
	Domains []string

	// Email is the ACME account contact. Optional; the authority uses it
	// for expiry warnings when set.
	Email string

	// Directory is where domain.key and chained.pem are written.
	// A leading "~" is expanded to the user's home directory.
	Directory string

	// CADirURL selects the ACME endpoint. Defaults to CADirectoryProduction.
	CADirURL string

	// KeyBits is the RSA modulus size for the certificate key. Values are
	// rounded up to the nearest size the authority accepts. Defaults to 2048.
	KeyBits int

	// RenewBefore is how close to expiry a renewal is attempted. Defaults to 30 days.
	RenewBefore time.Duration

	// CheckInterval is how often the watch loop inspects the stored
	// certificate. Defaults to 12 hours.
	CheckInterval time.Duration
}

// Certifier obtains and renews a certificate through the ACME HTTP-01 flow
// and persists the artifacts to a certificate store. Issuance and renewal
// run in background goroutines owned by the certifier; cancellation of the
// context passed to Init or Watch stops them.
type Certifier struct {
	cfg    Config
	store  *certstore.Store
	tokens challenge.TokenStore
	mirror certstore.Mirror
	logger *slog.Logger
	notify func()

	clientFactory   clientFactory
	accountKeyMaker func() (crypto.PrivateKey, error)

	// mu serializes issuance cycles so a slow first issuance and an early
	// renewal check never write artifacts concurrently. account lives under
	// the same lock: one ACME account serves every cycle, so renewals never
	// register throwaway accounts against the authority's account limits.
	mu      sync.Mutex
	account *accountUser
	wg      sync.WaitGroup
}

// New constructs a Certifier. The constructor is passive: it touches neither
// the network nor the filesystem beyond resolving the directory path.
func New(cfg Config, opts ...Option) (*Certifier, error) {
	cfg.Email = strings.TrimSpace(cfg.Email)
	if cfg.CADirURL == "" {
		cfg.CADirURL = CADirectoryProduction
	}
	if cfg.KeyBits <= 0 {
		cfg.KeyBits = defaultKeyBits
	}
	if cfg.RenewBefore <= 0 {
		cfg.RenewBefore = defaultRenewBefore
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = defaultCheckInterval
	}

	store, err := certstore.New(cfg.Directory)
	if err != nil {
		return nil, err
	}

	c := &Certifier{
		cfg:           cfg,
		store:         store,
		tokens:        challenge.NewMemoryStore(),
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		clientFactory: defaultClientFactory,
		accountKeyMaker: func() (crypto.PrivateKey, error) {
			return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		},
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}

	return c, nil
}

// Init begins first-time issuance. It returns once the issuance cycle is
// scheduled; protocol work continues in the background and its outcome is
// reported through the logger.
func (c *Certifier) Init(ctx context.Context) error {
	if len(c.cfg.Domains) == 0 {
		return ErrNoDomains
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runCycle(ctx, "issuance")
	}()

	return nil
}

// Watch begins background renewal monitoring. Every CheckInterval the stored
// certificate's expiry is inspected; once it falls within RenewBefore a full
// issuance cycle runs and, on success, the restart hook fires. Watch returns
// once the loop is scheduled.
func (c *Certifier) Watch(ctx context.Context) error {
	if len(c.cfg.Domains) == 0 {
		return ErrNoDomains
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.watchLoop(ctx)
	}()

	return nil
}

// Middleware returns the handler chain link that answers the authority's
// HTTP-01 challenge requests from the certifier's token store.
func (c *Certifier) Middleware() func(http.Handler) http.Handler {
	return challenge.Middleware(c.tokens)
}

// Wait blocks until all background cycles have finished. Intended for
// orderly shutdown after cancelling the context passed to Init or Watch.
func (c *Certifier) Wait() {
	c.wg.Wait()
}

func (c *Certifier) watchLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		c.renewIfDue(ctx)

		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "renewal watch stopped")
			return
		case <-ticker.C:
		}
	}
}

func (c *Certifier) renewIfDue(ctx context.Context) {
	notAfter, err := c.store.NotAfter()
	if err != nil {
		c.logger.WarnContext(ctx, "cannot determine certificate expiry",
			slog.String("dir", c.store.Dir()),
			slog.String("error", err.Error()))
		return
	}

	remaining := time.Until(notAfter)
	if remaining > c.cfg.RenewBefore {
		c.logger.DebugContext(ctx, "certificate not due for renewal",
			slog.Time("not_after", notAfter),
			slog.Duration("remaining", remaining))
		return
	}

	if c.runCycle(ctx, "renewal") {
		if c.notify != nil {
			c.notify()
		}
	}
}

// runCycle performs one issuance attempt and reports whether it succeeded.
func (c *Certifier) runCycle(ctx context.Context, kind string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.logger.With(
		slog.String("cycle_id", uuid.NewString()),
		slog.String("kind", kind))

	log.InfoContext(ctx, "starting certificate cycle",
		slog.String("domains", strings.Join(c.cfg.Domains, ",")),
		slog.String("ca_dir_url", c.cfg.CADirURL))

	if err := c.obtain(ctx); err != nil {
		log.ErrorContext(ctx, "certificate cycle failed",
			slog.String("error", err.Error()))
		return false
	}

	log.InfoContext(ctx, "certificate stored",
		slog.String("dir", c.store.Dir()))
	return true
}

// obtain runs the full ACME exchange: account registration, HTTP-01
// validation through the token store, certificate order, and persistence.
func (c *Certifier) obtain(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if c.account == nil {
		accountKey, err := c.accountKeyMaker()
		if err != nil {
			return fmt.Errorf("generate account key: %w", err)
		}
		c.account = &accountUser{
			email: c.cfg.Email,
			key:   accountKey,
		}
	}

	legoCfg := lego.NewConfig(c.account)
	legoCfg.CADirURL = c.cfg.CADirURL
	legoCfg.Certificate.KeyType = keyTypeForBits(c.cfg.KeyBits)

	client, err := c.clientFactory(legoCfg)
	if err != nil {
		return fmt.Errorf("create acme client: %w", err)
	}

	if err := client.SetHTTP01Provider(&tokenSolver{ctx: ctx, tokens: c.tokens}); err != nil {
		return fmt.Errorf("configure http-01 solver: %w", err)
	}

	if c.account.registration == nil {
		reg, err := client.Register(registration.RegisterOptions{TermsOfServiceAgreed: true})
		if err != nil {
			return fmt.Errorf("register account: %w", err)
		}
		c.account.registration = reg
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// The contact email belongs to account registration only. Putting it on
	// the order would request an email identifier, which the authority
	// rejects.
	request := certificate.ObtainRequest{
		Domains: cloneStrings(c.cfg.Domains),
		Bundle:  true,
	}

	certRes, err := client.Obtain(request)
	if err != nil {
		return fmt.Errorf("obtain certificate: %w", err)
	}

	return c.persist(ctx, certRes)
}

func (c *Certifier) persist(ctx context.Context, certRes *certificate.Resource) error {
	if certRes == nil {
		return ErrEmptyResource
	}
	if len(certRes.PrivateKey) == 0 {
		return fmt.Errorf("%w: private key", ErrEmptyResource)
	}
	if len(certRes.Certificate) == 0 {
		return fmt.Errorf("%w: certificate", ErrEmptyResource)
	}

	if err := c.store.WriteKey(certRes.PrivateKey); err != nil {
		return err
	}
	// Bundle was requested, so the certificate payload already carries the
	// leaf plus the issuer chain.
	if err := c.store.WriteChain(certRes.Certificate); err != nil {
		return err
	}

	c.replicate(ctx, certRes.PrivateKey, certRes.Certificate)
	return nil
}

// replicate pushes fresh artifacts to the configured mirror. Replication is
// secondary; failures are logged and never fail the cycle.
func (c *Certifier) replicate(ctx context.Context, key, chain []byte) {
	if c.mirror == nil {
		return
	}

	if err := c.mirror.Put(ctx, certstore.KeyFile, key); err != nil {
		c.logger.WarnContext(ctx, "failed to mirror private key",
			slog.String("error", err.Error()))
	}
	if err := c.mirror.Put(ctx, certstore.ChainFile, chain); err != nil {
		c.logger.WarnContext(ctx, "failed to mirror certificate chain",
			slog.String("error", err.Error()))
	}
}

// keyTypeForBits rounds the requested modulus size up to the nearest key
// type the authority accepts.
func keyTypeForBits(bits int) certcrypto.KeyType {
	switch {
	case bits <= 2048:
		return certcrypto.RSA2048
	case bits <= 3072:
		return certcrypto.RSA3072
	case bits <= 4096:
		return certcrypto.RSA4096
	default:
		return certcrypto.RSA8192
	}
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	out := make([]string, len(values))
	copy(out, values)
	return out
}
