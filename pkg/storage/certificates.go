package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CertificateStore persists uploaded certificates on disk under a base
// directory; training records hold only the relative reference it returns.
type CertificateStore struct {
	baseDir string
}

// NewCertificateStore ensures the base directory exists and returns a handle.
func NewCertificateStore(baseDir string) (*CertificateStore, error) {
	if baseDir == "" {
		baseDir = "./certificates"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create certificates directory: %w", err)
	}
	return &CertificateStore{baseDir: baseDir}, nil
}

// Save writes certificate bytes to the provided relative reference.
func (s *CertificateStore) Save(ref string, data []byte) (string, error) {
	path := s.resolve(ref)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare certificate directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write certificate file: %w", err)
	}
	return ref, nil
}

// SaveStream copies from reader into the target certificate path.
func (s *CertificateStore) SaveStream(ref string, r io.Reader) (string, error) {
	path := s.resolve(ref)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare certificate directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create certificate file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		return "", fmt.Errorf("write certificate stream: %w", err)
	}
	return ref, nil
}

// Open returns a read-only handle for the stored certificate.
func (s *CertificateStore) Open(ref string) (*os.File, error) {
	file, err := os.Open(s.resolve(ref))
	if err != nil {
		return nil, fmt.Errorf("open certificate file: %w", err)
	}
	return file, nil
}

// Delete removes a stored certificate if present.
func (s *CertificateStore) Delete(ref string) error {
	if err := os.Remove(s.resolve(ref)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete certificate file: %w", err)
	}
	return nil
}

// Path exposes the underlying absolute path (useful for debugging).
func (s *CertificateStore) Path(ref string) string {
	return s.resolve(ref)
}

func (s *CertificateStore) resolve(ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(s.baseDir, ref)
}
