package store

import (
	"encoding/hex"
	"path/filepath"
	"sync"

	"quietwire/internal/domain"
)

const issuedFilename = "issued_prekeys.json"

// IssuedPreKeyFileStore keeps the secret halves of one-time prekeys that
// were consumed into published bundles. Each secret is removed the moment a
// handshake claims it, so it can serve at most one session.
type IssuedPreKeyFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewIssuedPreKeyFileStore returns an IssuedPreKeyFileStore rooted at dir.
func NewIssuedPreKeyFileStore(dir string) *IssuedPreKeyFileStore {
	return &IssuedPreKeyFileStore{dir: dir}
}

// SaveIssued parks the secret for a bundled one-time prekey.
func (s *IssuedPreKeyFileStore) SaveIssued(pub domain.X25519Public, priv domain.X25519Private) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, issuedFilename)
	m := map[string]domain.X25519Private{}
	_ = readJSON(path, &m)
	m[hex.EncodeToString(pub[:])] = priv
	return writeJSON(path, m, 0o600)
}

// ConsumeIssued removes and returns the secret for pub, if still present.
func (s *IssuedPreKeyFileStore) ConsumeIssued(pub domain.X25519Public) (domain.X25519Private, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, issuedFilename)
	m := map[string]domain.X25519Private{}
	if err := readJSON(path, &m); err != nil {
		return domain.X25519Private{}, false, err
	}
	k := hex.EncodeToString(pub[:])
	priv, ok := m[k]
	if !ok {
		return domain.X25519Private{}, false, nil
	}
	delete(m, k)
	if err := writeJSON(path, m, 0o600); err != nil {
		return domain.X25519Private{}, false, err
	}
	return priv, true, nil
}

// Compile-time assertion that IssuedPreKeyFileStore implements domain.IssuedPreKeyStore.
var _ domain.IssuedPreKeyStore = (*IssuedPreKeyFileStore)(nil)
