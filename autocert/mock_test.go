package autocert_test

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	xautocert "golang.org/x/crypto/acme/autocert"
)

// mockProvider is a test implementation of ACMEProvider.
type mockProvider struct {
	mu          sync.Mutex
	getCertFunc func(*tls.ClientHelloInfo) (*tls.Certificate, error)
	callCount   int
}

func (m *mockProvider) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.getCertFunc != nil {
		return m.getCertFunc(hello)
	}
	return nil, errors.New("mock: GetCertificate not implemented")
}

func (m *mockProvider) HTTPHandler(fallback http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/.well-known/acme-challenge/") {
			_, _ = w.Write([]byte("mock-challenge"))
			return
		}
		if fallback != nil {
			fallback.ServeHTTP(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
}

func (m *mockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// mockCache is a test implementation of autocert.Cache.
type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deletes []string
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (c *mockCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if !ok {
		return nil, xautocert.ErrCacheMiss
	}
	return data, nil
}

func (c *mockCache) Put(_ context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = data
	return nil
}

func (c *mockCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
	c.deletes = append(c.deletes, key)
	return nil
}

func (c *mockCache) DeleteCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.deletes)
}

// recordingMirror captures replicated artifacts by name.
type recordingMirror struct {
	mu   sync.Mutex
	puts map[string][]byte
}

func newRecordingMirror() *recordingMirror {
	return &recordingMirror{puts: make(map[string][]byte)}
}

func (m *recordingMirror) Put(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.puts[name] = data
	return nil
}

func (m *recordingMirror) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.puts[name]
	return data, ok
}

// combinedPEM builds an autocert-style cache entry: an EC private key block
// followed by the certificate chain.
func combinedPEM(t *testing.T, notAfter time.Time) []byte {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "example.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     notAfter,
		DNSNames:     []string{"example.com"},
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, pem.Encode(&buf, &pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}))
	require.NoError(t, pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: der}))
	return buf.Bytes()
}

// splitCombinedPEM separates a combined cache entry into the leading key
// block and the certificate chain that follows it.
func splitCombinedPEM(t *testing.T, entry []byte) (keyPEM, chainPEM []byte) {
	t.Helper()

	block, rest := pem.Decode(entry)
	require.NotNil(t, block)
	return pem.EncodeToMemory(block), rest
}
