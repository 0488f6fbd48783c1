package certstore

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// KeyFile is the private key filename inside the store directory.
	KeyFile = "domain.key"

	// ChainFile is the bundled certificate chain filename inside the store directory.
	ChainFile = "chained.pem"
)

// Store provides file operations for the two certificate artifacts of a
// single certificate: the private key and the bundled chain.
type Store struct {
	dir string
}

// New creates a certificate store rooted at dir. A leading "~" is expanded
// to the current user's home directory. The directory itself is not created
// until Ensure is called.
func New(dir string) (*Store, error) {
	expanded, err := ExpandPath(dir)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(expanded) == "" {
		return nil, ErrEmptyDirectory
	}

	return &Store{dir: expanded}, nil
}

// ExpandPath resolves a leading "~" or "~/" prefix against the current
// user's home directory. Paths without the prefix are returned unchanged.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	if path == "~" {
		return home, nil
	}

	return filepath.Join(home, path[2:]), nil
}

// Ensure creates the store directory if it does not exist.
// It is idempotent and succeeds when the directory is already present.
func (s *Store) Ensure() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create certificate directory: %w", err)
	}
	return nil
}

// HasCertificate reports whether both artifacts are present and readable.
// A failed read attempt (file absent, not a regular file, unreadable) counts
// as absence, never as an error.
func (s *Store) HasCertificate() bool {
	if _, err := os.ReadFile(s.KeyPath()); err != nil {
		return false
	}
	if _, err := os.ReadFile(s.ChainPath()); err != nil {
		return false
	}
	return true
}

// ReadKey reads the private key file.
func (s *Store) ReadKey() ([]byte, error) {
	data, err := os.ReadFile(s.KeyPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", KeyFile, err)
	}
	return data, nil
}

// ReadChain reads the certificate chain file.
func (s *Store) ReadChain() ([]byte, error) {
	data, err := os.ReadFile(s.ChainPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ChainFile, err)
	}
	return data, nil
}

// WriteKey atomically replaces the private key file.
func (s *Store) WriteKey(data []byte) error {
	return s.write(KeyFile, data)
}

// WriteChain atomically replaces the certificate chain file.
func (s *Store) WriteChain(data []byte) error {
	return s.write(ChainFile, data)
}

// write stages data in a temporary file and renames it into place so
// concurrent readers never observe a partially written artifact.
func (s *Store) write(name string, data []byte) error {
	path := filepath.Join(s.dir, name)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("failed to save %s: %w", name, err)
	}

	return nil
}

// Certificate loads the stored key pair for use in a TLS configuration.
func (s *Store) Certificate() (tls.Certificate, error) {
	chain, err := s.ReadChain()
	if err != nil {
		return tls.Certificate{}, err
	}

	key, err := s.ReadKey()
	if err != nil {
		return tls.Certificate{}, err
	}

	cert, err := tls.X509KeyPair(chain, key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to load key pair: %w", err)
	}

	return cert, nil
}

// NotAfter returns the expiry time of the leaf certificate. The chain file
// is expected to carry the leaf as its first PEM block.
func (s *Store) NotAfter() (time.Time, error) {
	chain, err := s.ReadChain()
	if err != nil {
		return time.Time{}, err
	}

	block, _ := pem.Decode(chain)
	if block == nil || block.Type != "CERTIFICATE" {
		return time.Time{}, ErrMalformedChain
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedChain, err)
	}

	return cert.NotAfter, nil
}

// Dir returns the expanded store directory path.
func (s *Store) Dir() string {
	return s.dir
}

// KeyPath returns the full path of the private key file.
func (s *Store) KeyPath() string {
	return filepath.Join(s.dir, KeyFile)
}

// ChainPath returns the full path of the certificate chain file.
func (s *Store) ChainPath() string {
	return filepath.Join(s.dir, ChainFile)
}
