package conversation

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"quietwire/internal/crypto"
	"quietwire/internal/domain"
	"quietwire/internal/keystore"
	"quietwire/internal/protocol/ratchet"
	"quietwire/internal/protocol/x3dh"
	"quietwire/internal/util/memzero"
)

var (
	// ErrNoSession indicates there is no conversation with the peer and the
	// envelope carries no handshake material to start one.
	ErrNoSession = errors.New("conversation: no session with peer")

	// ErrSessionExists prevents re-running the handshake over a live session.
	ErrSessionExists = errors.New("conversation: session with peer already exists")

	// ErrNoKeyStore means Init has not been run in this home directory.
	ErrNoKeyStore = errors.New("conversation: no key store; run init first")

	// ErrBadCommitment means the envelope's commitment does not match its
	// header and ciphertext.
	ErrBadCommitment = errors.New("conversation: envelope commitment mismatch")
)

// Service wires the stores to the cryptographic core.
type Service struct {
	keys   domain.KeyStoreStore
	issued domain.IssuedPreKeyStore
	convs  domain.ConversationStore
}

// New constructs a conversation service with the given stores.
func New(keys domain.KeyStoreStore, issued domain.IssuedPreKeyStore, convs domain.ConversationStore) *Service {
	return &Service{keys: keys, issued: issued, convs: convs}
}

// Init creates a fresh identity, a signed prekey and oneTimeCount one-time
// prekeys, persists them, and returns the identity fingerprint.
func (s *Service) Init(passphrase string, oneTimeCount int) (domain.Fingerprint, error) {
	ks := keystore.New()
	defer ks.Wipe()

	id, err := ks.GenerateIdentity()
	if err != nil {
		return "", err
	}
	if _, err := ks.GenerateSignedPreKey(); err != nil {
		return "", err
	}
	if _, err := ks.GenerateOneTimePreKeys(oneTimeCount); err != nil {
		return "", err
	}
	if err := s.keys.SaveKeyStore(passphrase, ks.Export()); err != nil {
		return "", err
	}
	return domain.Fingerprint(crypto.Fingerprint(id.XPub.Slice())), nil
}

// Fingerprint returns the short fingerprint of the local identity key.
func (s *Service) Fingerprint(passphrase string) (domain.Fingerprint, error) {
	ks, err := s.loadKeyStore(passphrase)
	if err != nil {
		return "", err
	}
	defer ks.Wipe()
	id, err := ks.Identity()
	if err != nil {
		return "", err
	}
	return domain.Fingerprint(crypto.Fingerprint(id.XPub.Slice())), nil
}

// ReplenishOneTime tops the one-time prekey pool up by count pairs.
func (s *Service) ReplenishOneTime(passphrase string, count int) (remaining int, err error) {
	ks, err := s.loadKeyStore(passphrase)
	if err != nil {
		return 0, err
	}
	defer ks.Wipe()
	if _, err := ks.GenerateOneTimePreKeys(count); err != nil {
		return 0, err
	}
	if err := s.keys.SaveKeyStore(passphrase, ks.Export()); err != nil {
		return 0, err
	}
	return ks.OneTimeRemaining(), nil
}

// ExportBundle assembles a publishable key bundle. The one-time prekey it
// carries is consumed from the pool; its secret is parked in the issued
// store until the matching handshake arrives. The pool running dry is not an
// error: the bundle just ships without a one-time prekey.
func (s *Service) ExportBundle(passphrase string) (domain.KeyBundle, error) {
	ks, err := s.loadKeyStore(passphrase)
	if err != nil {
		return domain.KeyBundle{}, err
	}
	defer ks.Wipe()

	bundle, consumed, err := ks.Bundle()
	if err != nil {
		return domain.KeyBundle{}, err
	}
	// Persist the shrunken pool before parking the secret: if we crash in
	// between, the handshake fails closed instead of the same prekey being
	// issued twice.
	if err := s.keys.SaveKeyStore(passphrase, ks.Export()); err != nil {
		return domain.KeyBundle{}, err
	}
	if consumed != nil {
		if err := s.issued.SaveIssued(consumed.Pub, consumed.Priv); err != nil {
			return domain.KeyBundle{}, err
		}
		memzero.Zero32((*[32]byte)(&consumed.Priv))
	}
	return bundle, nil
}

// Start runs the initiator side of the handshake against a peer's bundle
// and stores the seeded ratchet session. Outgoing envelopes carry the
// handshake parameters until the peer's first reply proves the session.
func (s *Service) Start(passphrase, peer string, bundle domain.KeyBundle) error {
	if _, ok, err := s.convs.LoadConversation(peer); err != nil {
		return err
	} else if ok {
		return ErrSessionExists
	}

	ks, err := s.loadKeyStore(passphrase)
	if err != nil {
		return err
	}
	defer ks.Wipe()
	id, err := ks.Identity()
	if err != nil {
		return err
	}

	res, err := x3dh.Initiate(id, bundle)
	if err != nil {
		return fmt.Errorf("handshake with %q: %w", peer, err)
	}
	sess, err := ratchet.NewInitiator(res.Secret, bundle.SignedPreKey)
	memzero.Zero(res.Secret)
	if err != nil {
		return err
	}
	defer sess.Wipe()

	pre := &domain.PreKeyMessage{
		InitiatorIdentityKey: id.XPub,
		EphemeralKey:         res.EphemeralKey,
	}
	if res.UsedOneTimePreKey {
		pre.OneTimePreKey = bundle.OneTimePreKey
	}

	return s.convs.SaveConversation(peer, domain.Conversation{
		Peer:            peer,
		State:           sess.Snapshot(),
		PendingPreKey:   pre,
		PeerIdentityKey: bundle.IdentityKey,
		CreatedUTC:      time.Now().Unix(),
	})
}

// Seal encrypts plaintext for peer, advancing and persisting the ratchet.
// The envelope carries a BLAKE2b commitment over header and ciphertext for
// the proof subsystem, and the handshake parameters while they are pending.
func (s *Service) Seal(passphrase, me, peer string, plaintext []byte) (domain.Envelope, error) {
	conv, ok, err := s.convs.LoadConversation(peer)
	if err != nil {
		return domain.Envelope{}, err
	}
	if !ok {
		return domain.Envelope{}, ErrNoSession
	}

	sess := ratchet.Resume(conv.State)
	defer sess.Wipe()
	header, ct, nonce, err := sess.Encrypt(plaintext, nil)
	if err != nil {
		return domain.Envelope{}, err
	}

	conv.State = sess.Snapshot()
	// Persist the advanced chain before the envelope leaves: replaying the
	// old state would reuse a message key.
	if err := s.convs.SaveConversation(peer, conv); err != nil {
		return domain.Envelope{}, err
	}

	return domain.Envelope{
		From:      me,
		To:        peer,
		Header:    header,
		Nonce:     nonce,
		Cipher:    ct,
		Commit:    crypto.Commitment(header.Bytes(), ct),
		PreKey:    conv.PendingPreKey,
		Timestamp: time.Now().Unix(),
	}, nil
}

// Open decrypts an envelope, bootstrapping the responder side of the
// handshake if this is the first message from the peer.
func (s *Service) Open(passphrase, me string, env domain.Envelope) ([]byte, error) {
	if env.Commit != nil {
		if !bytes.Equal(env.Commit, crypto.Commitment(env.Header.Bytes(), env.Cipher)) {
			return nil, ErrBadCommitment
		}
	}

	conv, ok, err := s.convs.LoadConversation(env.From)
	if err != nil {
		return nil, err
	}
	if !ok {
		if env.PreKey == nil {
			return nil, fmt.Errorf("%w: first envelope from %q carries no handshake material", ErrNoSession, env.From)
		}
		conv, err = s.bootstrapResponder(passphrase, env)
		if err != nil {
			return nil, err
		}
	}

	sess := ratchet.Resume(conv.State)
	defer sess.Wipe()
	pt, err := sess.Decrypt(env.Header, env.Cipher, env.Nonce, nil)
	if err != nil {
		return nil, fmt.Errorf("open envelope from %q: %w", env.From, err)
	}

	conv.State = sess.Snapshot()
	// A decrypted message proves the peer holds the session; stop
	// re-sending handshake parameters.
	conv.PendingPreKey = nil
	if err := s.convs.SaveConversation(env.From, conv); err != nil {
		return nil, err
	}
	return pt, nil
}

// End tears the session with peer down and removes its stored state.
func (s *Service) End(peer string) error {
	return s.convs.DeleteConversation(peer)
}

// bootstrapResponder derives the shared secret from the envelope's handshake
// parameters and seeds a responder-side ratchet session.
func (s *Service) bootstrapResponder(passphrase string, env domain.Envelope) (domain.Conversation, error) {
	ks, err := s.loadKeyStore(passphrase)
	if err != nil {
		return domain.Conversation{}, err
	}
	defer ks.Wipe()
	id, err := ks.Identity()
	if err != nil {
		return domain.Conversation{}, err
	}
	spk, err := ks.SignedPreKey()
	if err != nil {
		return domain.Conversation{}, err
	}

	var opkPriv *domain.X25519Private
	if env.PreKey.OneTimePreKey != nil {
		priv, ok, err := s.issued.ConsumeIssued(*env.PreKey.OneTimePreKey)
		if err != nil {
			return domain.Conversation{}, err
		}
		if !ok {
			return domain.Conversation{}, x3dh.ErrMissingOneTimeSecret
		}
		opkPriv = &priv
	}

	secret, err := x3dh.Respond(id, spk.Priv, opkPriv, *env.PreKey)
	if opkPriv != nil {
		memzero.Zero32((*[32]byte)(opkPriv))
	}
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("handshake from %q: %w", env.From, err)
	}

	sess, err := ratchet.NewResponder(secret, spk.Priv, spk.Pub)
	memzero.Zero(secret)
	if err != nil {
		return domain.Conversation{}, err
	}
	defer sess.Wipe()

	return domain.Conversation{
		Peer:            env.From,
		State:           sess.Snapshot(),
		PeerIdentityKey: env.PreKey.InitiatorIdentityKey,
		CreatedUTC:      time.Now().Unix(),
	}, nil
}

func (s *Service) loadKeyStore(passphrase string) (*keystore.Store, error) {
	st, ok, err := s.keys.LoadKeyStore(passphrase)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoKeyStore
	}
	return keystore.Import(st), nil
}
