package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"quietwire/internal/domain"
	"quietwire/internal/util/memzero"
)

const keystoreFilename = "keystore.json.enc"

// KeyStoreFileStore persists the exported key store state, sealed under a
// passphrase-derived key.
type KeyStoreFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewKeyStoreFileStore returns a KeyStoreFileStore rooted at dir.
func NewKeyStoreFileStore(dir string) *KeyStoreFileStore {
	return &KeyStoreFileStore{dir: dir}
}

// SaveKeyStore writes the encrypted key store state to disk.
func (s *KeyStoreFileStore) SaveKeyStore(passphrase string, st domain.KeyStoreState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	defer memzero.Zero(raw)
	ct, err := sealBlob(passphrase, raw)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, keystoreFilename), ct, 0o600)
}

// LoadKeyStore reads and decrypts the key store state. A missing file is
// reported via the boolean, not as an error.
func (s *KeyStoreFileStore) LoadKeyStore(passphrase string) (domain.KeyStoreState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(filepath.Join(s.dir, keystoreFilename))
	if errors.Is(err, os.ErrNotExist) {
		return domain.KeyStoreState{}, false, nil
	}
	if err != nil {
		return domain.KeyStoreState{}, false, err
	}
	raw, err := openBlob(passphrase, b)
	if err != nil {
		return domain.KeyStoreState{}, false, err
	}
	defer memzero.Zero(raw)
	var st domain.KeyStoreState
	if err := json.Unmarshal(raw, &st); err != nil {
		return domain.KeyStoreState{}, false, err
	}
	return st, true, nil
}

// Compile-time assertion that KeyStoreFileStore implements domain.KeyStoreStore.
var _ domain.KeyStoreStore = (*KeyStoreFileStore)(nil)
