package ratchet

import (
	"errors"
	"sync"

	"quietwire/internal/crypto"
	"quietwire/internal/domain"
	"quietwire/internal/util/memzero"
)

const (
	// maxSkippedKeys bounds the skipped-key cache per session.
	maxSkippedKeys = 1000
	// maxSkipAhead bounds how far a single header may run a chain forward.
	// A forged previous-chain-length or message number past this limit is
	// rejected instead of burning unbounded CPU and cache.
	maxSkipAhead = 512
)

var (
	// ErrMessageReplayed means the message number was already processed on
	// the active receiving chain and no cached key remains for it. The
	// session stays usable for subsequent messages.
	ErrMessageReplayed = errors.New("ratchet: message number already processed")

	// ErrSkippedKeyUnavailable means the key for an out-of-order message
	// was consumed earlier or evicted from the cache; the message is
	// permanently undecryptable. The session stays usable.
	ErrSkippedKeyUnavailable = errors.New("ratchet: skipped message key consumed or evicted")

	// ErrTooManySkipped rejects a header that would skip the chain forward
	// past the reordering limit.
	ErrTooManySkipped = errors.New("ratchet: header skips too many messages")

	// ErrSendNotReady means the responder tried to send before receiving
	// the initiator's first message.
	ErrSendNotReady = errors.New("ratchet: no remote ratchet key yet; receive first")

	// ErrEchoedRatchetKey rejects a header whose ratchet key is the
	// handshake prekey echoed back; stepping on it would derive a
	// receiving chain equal to our own sending chain.
	ErrEchoedRatchetKey = errors.New("ratchet: peer echoed the handshake ratchet key")

	errBadSecretSize = errors.New("ratchet: shared secret must be 32 bytes")
)

// Session is the per-conversation Double Ratchet state machine. Exactly one
// Session exists per conversation; every method serializes on the internal
// mutex because send and receive both mutate the root key.
type Session struct {
	mu sync.Mutex

	rootKey       []byte
	dhPriv        domain.X25519Private
	dhPub         domain.X25519Public
	peerDHPub     domain.X25519Public // zero until known
	prevPeerDHPub domain.X25519Public // previous receiving chain, zero until a DH step
	sendCK        []byte              // nil when a sending half-step is pending
	recvCK        []byte              // nil before the first message from the peer
	ns, nr        uint32
	pn            uint32
	skipped       *skippedCache
}

// NewInitiator seeds a session from an X3DH shared secret on the initiating
// side. The sending chain is established immediately against the peer's
// signed prekey, so the first RatchetSend needs no pending half-step. The
// caller must wipe secret afterwards; the session does not retain it.
func NewInitiator(secret []byte, peerSignedPreKey domain.X25519Public) (*Session, error) {
	if len(secret) != 32 {
		return nil, errBadSecretSize
	}
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return nil, err
	}
	dh, err := crypto.DH(priv, peerSignedPreKey)
	if err != nil {
		return nil, err
	}
	rk, sendCK := kdfRoot(secret, dh[:])
	memzero.Zero32(&dh)

	return &Session{
		rootKey:   rk,
		dhPriv:    priv,
		dhPub:     pub,
		peerDHPub: peerSignedPreKey,
		sendCK:    sendCK,
		skipped:   newSkippedCache(maxSkippedKeys),
	}, nil
}

// NewResponder seeds a session from an X3DH shared secret on the responding
// side. The signed prekey pair the initiator targeted becomes the first
// local ratchet pair; both chains stay unset until the first message
// arrives. The caller must wipe secret afterwards.
func NewResponder(secret []byte, spkPriv domain.X25519Private, spkPub domain.X25519Public) (*Session, error) {
	if len(secret) != 32 {
		return nil, errBadSecretSize
	}
	return &Session{
		rootKey: append([]byte(nil), secret...),
		dhPriv:  spkPriv,
		dhPub:   spkPub,
		skipped: newSkippedCache(maxSkippedKeys),
	}, nil
}

// RatchetSend derives the next message key on the sending chain, performing
// the pending DH half-step first when one is due. The returned key is
// single-use; the caller wipes it after the AEAD operation.
func (s *Session) RatchetSend() (domain.MessageKey, domain.RatchetHeader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendLocked()
}

func (s *Session) sendLocked() (domain.MessageKey, domain.RatchetHeader, error) {
	if s.sendCK == nil {
		if isZeroKey(s.peerDHPub) {
			return domain.MessageKey{}, domain.RatchetHeader{}, ErrSendNotReady
		}
		newPriv, newPub, err := crypto.GenerateX25519()
		if err != nil {
			return domain.MessageKey{}, domain.RatchetHeader{}, err
		}
		dh, err := crypto.DH(newPriv, s.peerDHPub)
		if err != nil {
			return domain.MessageKey{}, domain.RatchetHeader{}, err
		}
		newRK, sendCK := kdfRoot(s.rootKey, dh[:])
		memzero.Zero32(&dh)

		// All fallible work is done; commit the half-step.
		memzero.Zero(s.rootKey)
		s.rootKey = newRK
		memzero.Zero32((*[32]byte)(&s.dhPriv))
		s.dhPriv, s.dhPub = newPriv, newPub
		s.sendCK = sendCK
		s.pn = s.ns
		s.ns = 0
	}

	var mk []byte
	s.sendCK, mk = kdfChain(s.sendCK)
	header := domain.RatchetHeader{
		RatchetKey:          s.dhPub,
		PreviousChainLength: s.pn,
		MessageNumber:       s.ns,
	}
	key := domain.MessageKey{Key: mk, MessageNumber: s.ns, RatchetKey: s.dhPub}
	s.ns++
	return key, header, nil
}

// RatchetReceive resolves the message key for an incoming header: from the
// skipped-key cache for out-of-order messages, by advancing the receiving
// chain, or by performing a DH ratchet step when the header carries a new
// remote ratchet key. State is mutated only after every check has passed.
func (s *Session) RatchetReceive(header domain.RatchetHeader) (domain.MessageKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receiveLocked(header)
}

func (s *Session) receiveLocked(header domain.RatchetHeader) (domain.MessageKey, error) {
	if mk, ok := s.skipped.take(header.RatchetKey, header.MessageNumber); ok {
		return domain.MessageKey{
			Key:           mk,
			MessageNumber: header.MessageNumber,
			RatchetKey:    header.RatchetKey,
		}, nil
	}

	if header.RatchetKey == s.peerDHPub && !isZeroKey(s.peerDHPub) {
		if s.recvCK == nil {
			// The peer can only reach us under the handshake prekey; a
			// header echoing it back never starts a chain.
			return domain.MessageKey{}, ErrEchoedRatchetKey
		}
		// Active receiving chain.
		if header.MessageNumber < s.nr {
			return domain.MessageKey{}, ErrMessageReplayed
		}
		if header.MessageNumber-s.nr > maxSkipAhead {
			return domain.MessageKey{}, ErrTooManySkipped
		}
		return s.advanceRecvChain(header.MessageNumber), nil
	}

	// A key we have ratcheted past: any surviving key lives in the cache,
	// and the cache lookup above already missed.
	if (header.RatchetKey == s.prevPeerDHPub && !isZeroKey(s.prevPeerDHPub)) ||
		s.skipped.contains(header.RatchetKey) {
		return domain.MessageKey{}, ErrSkippedKeyUnavailable
	}

	// New remote ratchet key: validate everything before touching state.
	if s.recvCK != nil && header.PreviousChainLength > s.nr &&
		header.PreviousChainLength-s.nr > maxSkipAhead {
		return domain.MessageKey{}, ErrTooManySkipped
	}
	if header.MessageNumber > maxSkipAhead {
		return domain.MessageKey{}, ErrTooManySkipped
	}
	dh, err := crypto.DH(s.dhPriv, header.RatchetKey)
	if err != nil {
		return domain.MessageKey{}, err
	}
	newRK, recvCK := kdfRoot(s.rootKey, dh[:])
	memzero.Zero32(&dh)

	// Commit: park the unseen keys of the old chain, then step.
	if s.recvCK != nil {
		for s.nr < header.PreviousChainLength {
			var mk []byte
			s.recvCK, mk = kdfChain(s.recvCK)
			s.skipped.put(s.peerDHPub, s.nr, mk)
			s.nr++
		}
		memzero.Zero(s.recvCK)
	}
	memzero.Zero(s.rootKey)
	s.rootKey = newRK
	s.recvCK = recvCK
	s.prevPeerDHPub = s.peerDHPub
	s.peerDHPub = header.RatchetKey
	s.nr = 0
	// The sending chain is now stale; the next send performs its half-step.
	memzero.Zero(s.sendCK)
	s.sendCK = nil

	return s.advanceRecvChain(header.MessageNumber), nil
}

// advanceRecvChain steps the receiving chain to n, caching every
// intermediate key, and returns the key for n. Callers have already
// validated n against the counter and the skip limit.
func (s *Session) advanceRecvChain(n uint32) domain.MessageKey {
	for s.nr < n {
		var mk []byte
		s.recvCK, mk = kdfChain(s.recvCK)
		s.skipped.put(s.peerDHPub, s.nr, mk)
		s.nr++
	}
	var mk []byte
	s.recvCK, mk = kdfChain(s.recvCK)
	s.nr++
	return domain.MessageKey{Key: mk, MessageNumber: n, RatchetKey: s.peerDHPub}
}

// Encrypt derives the next sending key and seals plaintext with the header
// bytes (and any caller AD) bound as associated data. It returns the header
// to transmit alongside the ciphertext and nonce.
func (s *Session) Encrypt(plaintext, ad []byte) (domain.RatchetHeader, []byte, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshotLocked()
	mk, header, err := s.sendLocked()
	if err != nil {
		wipeState(&snap)
		return domain.RatchetHeader{}, nil, nil, err
	}
	ct, nonce, err := crypto.SealWithAD(mk.Key, plaintext, bindHeader(ad, header))
	memzero.Zero(mk.Key)
	if err != nil {
		s.restoreLocked(snap)
		return domain.RatchetHeader{}, nil, nil, err
	}
	wipeState(&snap)
	return header, ct, nonce, nil
}

// Decrypt resolves the message key for header and opens the ciphertext. On
// authentication failure the pre-call state is restored in full, so a
// tampered message can never advance a chain or consume a cached key.
func (s *Session) Decrypt(header domain.RatchetHeader, ciphertext, nonce, ad []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshotLocked()
	mk, err := s.receiveLocked(header)
	if err != nil {
		wipeState(&snap)
		return nil, err
	}
	pt, err := crypto.OpenWithAD(mk.Key, ciphertext, nonce, bindHeader(ad, header))
	memzero.Zero(mk.Key)
	if err != nil {
		s.restoreLocked(snap)
		return nil, err
	}
	wipeState(&snap)
	return pt, nil
}

// Snapshot exports the session state for the persistence collaborator.
func (s *Session) Snapshot() domain.RatchetState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Resume rebuilds a session from previously exported state.
func Resume(st domain.RatchetState) *Session {
	s := &Session{
		rootKey:       append([]byte(nil), st.RootKey...),
		dhPriv:        st.DHPriv,
		dhPub:         st.DHPub,
		peerDHPub:     st.PeerDHPub,
		prevPeerDHPub: st.PrevPeerDHPub,
		ns:            st.SendCount,
		nr:            st.RecvCount,
		pn:            st.PreviousChainLength,
		skipped:       newSkippedCache(maxSkippedKeys),
	}
	if st.SendChainKey != nil {
		s.sendCK = append([]byte(nil), st.SendChainKey...)
	}
	if st.RecvChainKey != nil {
		s.recvCK = append([]byte(nil), st.RecvChainKey...)
	}
	s.skipped.restore(st.Skipped)
	return s
}

// Wipe zeroes all key material and leaves the session unusable.
func (s *Session) Wipe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	memzero.Zero(s.rootKey)
	s.rootKey = nil
	memzero.Zero32((*[32]byte)(&s.dhPriv))
	memzero.Zero(s.sendCK)
	s.sendCK = nil
	memzero.Zero(s.recvCK)
	s.recvCK = nil
	s.skipped.wipe()
}

func (s *Session) snapshotLocked() domain.RatchetState {
	st := domain.RatchetState{
		RootKey:             append([]byte(nil), s.rootKey...),
		DHPriv:              s.dhPriv,
		DHPub:               s.dhPub,
		PeerDHPub:           s.peerDHPub,
		PrevPeerDHPub:       s.prevPeerDHPub,
		SendCount:           s.ns,
		RecvCount:           s.nr,
		PreviousChainLength: s.pn,
		Skipped:             s.skipped.export(),
	}
	if s.sendCK != nil {
		st.SendChainKey = append([]byte(nil), s.sendCK...)
	}
	if s.recvCK != nil {
		st.RecvChainKey = append([]byte(nil), s.recvCK...)
	}
	return st
}

func (s *Session) restoreLocked(st domain.RatchetState) {
	memzero.Zero(s.rootKey)
	memzero.Zero(s.sendCK)
	memzero.Zero(s.recvCK)
	s.rootKey = st.RootKey
	s.dhPriv = st.DHPriv
	s.dhPub = st.DHPub
	s.peerDHPub = st.PeerDHPub
	s.prevPeerDHPub = st.PrevPeerDHPub
	s.sendCK = st.SendChainKey
	s.recvCK = st.RecvChainKey
	s.ns = st.SendCount
	s.nr = st.RecvCount
	s.pn = st.PreviousChainLength
	s.skipped.restore(st.Skipped)
	for i := range st.Skipped {
		memzero.Zero(st.Skipped[i].Key)
	}
}

func wipeState(st *domain.RatchetState) {
	memzero.Zero(st.RootKey)
	memzero.Zero32((*[32]byte)(&st.DHPriv))
	memzero.Zero(st.SendChainKey)
	memzero.Zero(st.RecvChainKey)
	for i := range st.Skipped {
		memzero.Zero(st.Skipped[i].Key)
	}
}

func bindHeader(ad []byte, h domain.RatchetHeader) []byte {
	out := make([]byte, 0, len(ad)+domain.HeaderSize)
	out = append(out, ad...)
	out = append(out, h.Bytes()...)
	return out
}

func isZeroKey(k domain.X25519Public) bool {
	var zero domain.X25519Public
	return k == zero
}
