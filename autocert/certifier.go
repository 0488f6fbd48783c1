package autocert

import (
	"context"
	"crypto/tls"
	"encoding/pem"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/acme"
	xautocert "golang.org/x/crypto/acme/autocert"

	"github.com/PoeBlu/ssl/certstore"
)

const (
	defaultRenewBefore   = 30 * 24 * time.Hour
	defaultCheckInterval = 12 * time.Hour
	defaultMaxRetries    = 3
	defaultRetryBackoff  = 5 * time.Second
)

// Config holds settings for the autocert-backed certifier.
type Config struct {
	// Domains the certifier is allowed to issue for. The first entry is the
	// primary domain whose artifacts are exported to the store.
	Domains []string

	// Email is the ACME account contact.
	Email string

	// Directory is where domain.key and chained.pem are written. The
	// autocert cache shares the same directory.
	Directory string

	// CADirURL overrides the ACME directory endpoint, e.g. to point at the
	// staging environment. Empty selects the library default.
	CADirURL string

	// RenewBefore is how close to expiry a renewal is attempted. Defaults to 30 days.
	RenewBefore time.Duration

	// CheckInterval is how often the watch loop inspects the stored
	// certificate. Defaults to 12 hours.
	CheckInterval time.Duration
}

// Certifier issues and renews certificates through golang.org/x/crypto's
// autocert machinery, then exports the cached material into the two-file
// store layout. Certificate keys are chosen by autocert itself.
type Certifier struct {
	cfg    Config
	store  *certstore.Store
	cache  xautocert.Cache
	acme   ACMEProvider
	logger *slog.Logger
	mirror certstore.Mirror
	notify func()

	maxRetries   int
	retryBackoff time.Duration

	// mu serializes cycles; wg tracks background work for Wait.
	mu sync.Mutex
	wg sync.WaitGroup
}

// New constructs a Certifier. Nothing is issued until Init or Watch runs.
func New(cfg Config, opts ...Option) (*Certifier, error) {
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
		cfg:          cfg,
		store:        store,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxRetries:   defaultMaxRetries,
		retryBackoff: defaultRetryBackoff,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}

	if c.cache == nil {
		c.cache = xautocert.DirCache(store.Dir())
	}
	if c.acme == nil {
		manager := &xautocert.Manager{
			Cache:      c.cache,
			Prompt:     xautocert.AcceptTOS,
			Email:      cfg.Email,
			HostPolicy: xautocert.HostWhitelist(cfg.Domains...),
		}
		if cfg.CADirURL != "" {
			manager.Client = &acme.Client{DirectoryURL: cfg.CADirURL}
		}
		c.acme = manager
	}

	return c, nil
}

// Init begins first-time issuance for every configured domain. It returns
// once the cycle is scheduled; the outcome is reported through the logger.
func (c *Certifier) Init(ctx context.Context) error {
	if len(c.cfg.Domains) == 0 {
		return ErrNoDomains
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runCycle(ctx, "issuance", false)
	}()

	return nil
}

// Watch begins background renewal monitoring. Once the stored certificate
// falls within RenewBefore of expiry, the cached entries are dropped, fresh
// certificates are obtained, and the restart hook fires.
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

// Middleware returns a handler chain link that answers ACME HTTP-01
// challenge requests and forwards everything else to the next handler.
func (c *Certifier) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return c.acme.HTTPHandler(next)
	}
}

// Wait blocks until all background cycles have finished.
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

	if !c.runCycle(ctx, "renewal", true) {
		return
	}

	renewed, err := c.store.NotAfter()
	if err != nil {
		c.logger.WarnContext(ctx, "cannot read expiry of renewed certificate",
			slog.String("dir", c.store.Dir()),
			slog.String("error", err.Error()))
		return
	}

	// The manager keeps issued certificates in memory and may hand the old
	// one back even after its cache entry was dropped. An unchanged expiry
	// means nothing new was issued, so the restart hook must not fire again
	// on the next tick.
	if !renewed.After(notAfter) {
		c.logger.WarnContext(ctx, "renewal cycle returned the existing certificate",
			slog.Time("not_after", renewed))
		return
	}

	if c.notify != nil {
		c.notify()
	}
}

// runCycle obtains certificates for every domain and exports the primary
// domain's artifacts. When force is set, cached entries are dropped first so
// the ACME exchange runs again instead of serving from cache.
func (c *Certifier) runCycle(ctx context.Context, kind string, force bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.logger.With(
		slog.String("cycle_id", uuid.NewString()),
		slog.String("kind", kind))

	log.InfoContext(ctx, "starting certificate cycle",
		slog.String("domains", strings.Join(c.cfg.Domains, ",")))

	for _, domain := range c.cfg.Domains {
		if force {
			if err := c.cache.Delete(ctx, domain); err != nil && !os.IsNotExist(err) {
				log.ErrorContext(ctx, "failed to drop cached certificate",
					slog.String("domain", domain),
					slog.String("error", err.Error()))
				return false
			}
		}

		if err := c.obtainCertificate(ctx, domain); err != nil {
			log.ErrorContext(ctx, "certificate cycle failed",
				slog.String("domain", domain),
				slog.String("error", err.Error()))
			return false
		}
	}

	if err := c.exportArtifacts(ctx); err != nil {
		log.ErrorContext(ctx, "failed to export certificate artifacts",
			slog.String("error", err.Error()))
		return false
	}

	log.InfoContext(ctx, "certificate stored",
		slog.String("dir", c.store.Dir()))
	return true
}

// obtainCertificate forces issuance for a single domain with retry and
// exponential backoff for transient failures.
func (c *Certifier) obtainCertificate(ctx context.Context, domain string) error {
	hello := &tls.ClientHelloInfo{ServerName: domain}
	backoff := c.retryBackoff

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		_, err := c.acme.GetCertificate(hello)
		if err == nil {
			return nil
		}

		lastErr = err

		if attempt < c.maxRetries && isRetryableError(err) {
			select {
			case <-ctx.Done():
				return fmt.Errorf("context canceled during certificate generation for %s: %w", domain, ctx.Err())
			case <-time.After(backoff):
				backoff *= 2
				continue
			}
		}
		break
	}

	return fmt.Errorf("failed to generate certificate for %s after %d attempts: %w", domain, c.maxRetries, lastErr)
}

// exportArtifacts translates the cached entry for the primary domain into
// the store's two-file layout and replicates it to the mirror.
func (c *Certifier) exportArtifacts(ctx context.Context) error {
	primary := c.cfg.Domains[0]

	data, err := c.cache.Get(ctx, primary)
	if err != nil {
		return fmt.Errorf("read cached certificate for %s: %w", primary, err)
	}

	keyPEM, chainPEM, err := splitCacheEntry(data)
	if err != nil {
		return fmt.Errorf("cached certificate for %s: %w", primary, err)
	}

	if err := c.store.WriteKey(keyPEM); err != nil {
		return err
	}
	if err := c.store.WriteChain(chainPEM); err != nil {
		return err
	}

	c.replicate(ctx, keyPEM, chainPEM)
	return nil
}

// replicate pushes fresh artifacts to the configured mirror. Failures are
// logged and never fail the cycle.
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

// splitCacheEntry separates the private key block from the certificate
// blocks of a combined autocert cache entry.
func splitCacheEntry(data []byte) (keyPEM, chainPEM []byte, err error) {
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}

		switch {
		case strings.HasSuffix(block.Type, "PRIVATE KEY"):
			keyPEM = append(keyPEM, pem.EncodeToMemory(block)...)
		case block.Type == "CERTIFICATE":
			chainPEM = append(chainPEM, pem.EncodeToMemory(block)...)
		}
	}

	if len(keyPEM) == 0 || len(chainPEM) == 0 {
		return nil, nil, ErrMalformedCacheEntry
	}
	return keyPEM, chainPEM, nil
}

// isRetryableError checks for transient failures worth another attempt,
// such as network errors and rate limits.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"connection refused",
		"network is unreachable",
		"no such host",
		"timeout",
		"rate limit",
		"429",
		"503",
		"temporary failure",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
