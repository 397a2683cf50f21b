package keystore

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"quietwire/internal/crypto"
	"quietwire/internal/domain"
	"quietwire/internal/util/memzero"
)

var (
	// ErrNoIdentity is returned by operations that need identity keys
	// before GenerateIdentity has run.
	ErrNoIdentity = errors.New("keystore: no identity generated")
	// ErrNoSignedPreKey is returned when a bundle is requested before a
	// signed prekey exists.
	ErrNoSignedPreKey = errors.New("keystore: no signed prekey generated")
)

// Store holds the local key material behind a mutex. All mutation goes
// through the methods below; key pairs are never handed out by reference.
type Store struct {
	mu       sync.Mutex
	identity *domain.Identity
	signed   *domain.SignedPreKeyPair
	oneTime  []domain.OneTimePreKeyPair // consumption order
}

// New returns an empty key store.
func New() *Store { return &Store{} }

// GenerateIdentity creates the long-term X25519 and Ed25519 key pairs and
// returns the new identity. Any previous identity is wiped.
func (s *Store) GenerateIdentity() (domain.Identity, error) {
	xPriv, xPub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.Identity{}, err
	}
	edPriv, edPub, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.Identity{}, err
	}
	id := domain.Identity{XPub: xPub, XPriv: xPriv, EdPub: edPub, EdPriv: edPriv}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity != nil {
		wipeIdentity(s.identity)
	}
	stored := id
	s.identity = &stored
	return id, nil
}

// Identity returns a copy of the current identity.
func (s *Store) Identity() (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return domain.Identity{}, ErrNoIdentity
	}
	return *s.identity, nil
}

// GenerateSignedPreKey rotates the signed prekey: a fresh pair is created,
// signed with the identity's Ed25519 key, and the old secret is wiped.
func (s *Store) GenerateSignedPreKey() (domain.SignedPreKeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return domain.SignedPreKeyPair{}, ErrNoIdentity
	}
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.SignedPreKeyPair{}, err
	}
	pair := domain.SignedPreKeyPair{
		ID:        "spk-" + uuid.NewString(),
		Priv:      priv,
		Pub:       pub,
		Signature: crypto.SignEd25519(s.identity.EdPriv, pub[:]),
	}
	if s.signed != nil {
		memzero.Zero32((*[32]byte)(&s.signed.Priv))
	}
	stored := pair
	s.signed = &stored
	return pair, nil
}

// SignedPreKey returns a copy of the current signed prekey pair.
func (s *Store) SignedPreKey() (domain.SignedPreKeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signed == nil {
		return domain.SignedPreKeyPair{}, ErrNoSignedPreKey
	}
	return *s.signed, nil
}

// GenerateOneTimePreKeys appends count fresh one-time pairs to the pool and
// returns their public halves.
func (s *Store) GenerateOneTimePreKeys(count int) ([]domain.X25519Public, error) {
	pairs := make([]domain.OneTimePreKeyPair, 0, count)
	publics := make([]domain.X25519Public, 0, count)
	for i := 0; i < count; i++ {
		priv, pub, err := crypto.GenerateX25519()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, domain.OneTimePreKeyPair{
			ID:   "opk-" + uuid.NewString(),
			Priv: priv,
			Pub:  pub,
		})
		publics = append(publics, pub)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.oneTime = append(s.oneTime, pairs...)
	return publics, nil
}

// ConsumeOneTimePreKey removes and returns the oldest one-time prekey pair.
// An empty pool is not an error: callers proceed without one-time
// protection for that handshake.
func (s *Store) ConsumeOneTimePreKey() (domain.OneTimePreKeyPair, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.oneTime) == 0 {
		return domain.OneTimePreKeyPair{}, false
	}
	pair := s.oneTime[0]
	memzero.Zero32((*[32]byte)(&s.oneTime[0].Priv))
	s.oneTime = s.oneTime[1:]
	return pair, true
}

// OneTimeRemaining reports how many one-time prekeys are left in the pool.
func (s *Store) OneTimeRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.oneTime)
}

// Bundle assembles the public key bundle for publication. It consumes one
// one-time prekey from the pool; the consumed pair is returned so the caller
// can park its secret until the matching handshake arrives. consumed is nil
// when the pool was empty.
func (s *Store) Bundle() (domain.KeyBundle, *domain.OneTimePreKeyPair, error) {
	s.mu.Lock()
	identity := s.identity
	signed := s.signed
	s.mu.Unlock()

	if identity == nil {
		return domain.KeyBundle{}, nil, ErrNoIdentity
	}
	if signed == nil {
		return domain.KeyBundle{}, nil, ErrNoSignedPreKey
	}

	b := domain.KeyBundle{
		IdentityKey:           identity.XPub,
		SigningKey:            identity.EdPub,
		SignedPreKey:          signed.Pub,
		SignedPreKeySignature: append([]byte(nil), signed.Signature...),
	}
	var consumed *domain.OneTimePreKeyPair
	if pair, ok := s.ConsumeOneTimePreKey(); ok {
		pub := pair.Pub
		b.OneTimePreKey = &pub
		consumed = &pair
	}
	return b, consumed, nil
}

// Export snapshots the store for the persistence collaborator.
func (s *Store) Export() domain.KeyStoreState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := domain.KeyStoreState{}
	if s.identity != nil {
		id := *s.identity
		st.Identity = &id
	}
	if s.signed != nil {
		sp := *s.signed
		sp.Signature = append([]byte(nil), s.signed.Signature...)
		st.SignedPreKey = &sp
	}
	st.OneTime = append([]domain.OneTimePreKeyPair(nil), s.oneTime...)
	return st
}

// Import replaces the store contents with a previously exported state.
func Import(st domain.KeyStoreState) *Store {
	s := New()
	if st.Identity != nil {
		id := *st.Identity
		s.identity = &id
	}
	if st.SignedPreKey != nil {
		sp := *st.SignedPreKey
		sp.Signature = append([]byte(nil), st.SignedPreKey.Signature...)
		s.signed = &sp
	}
	s.oneTime = append([]domain.OneTimePreKeyPair(nil), st.OneTime...)
	return s
}

// Wipe zeroes every secret held by the store and empties it.
func (s *Store) Wipe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity != nil {
		wipeIdentity(s.identity)
		s.identity = nil
	}
	if s.signed != nil {
		memzero.Zero32((*[32]byte)(&s.signed.Priv))
		s.signed = nil
	}
	for i := range s.oneTime {
		memzero.Zero32((*[32]byte)(&s.oneTime[i].Priv))
	}
	s.oneTime = nil
}

func wipeIdentity(id *domain.Identity) {
	memzero.Zero32((*[32]byte)(&id.XPriv))
	memzero.Zero(id.EdPriv[:])
}
