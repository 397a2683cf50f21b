package domain

import "errors"

// SignedPreKeyPair is the current medium-term prekey with its signature,
// stored locally. The signature covers the public key and is produced with
// the identity's Ed25519 signing key.
type SignedPreKeyPair struct {
	ID        string        `json:"id"`
	Priv      X25519Private `json:"priv"`
	Pub       X25519Public  `json:"pub"`
	Signature []byte        `json:"signature"`
}

// OneTimePreKeyPair is a single-use prekey stored locally until consumed.
type OneTimePreKeyPair struct {
	ID   string        `json:"id"`
	Priv X25519Private `json:"priv"`
	Pub  X25519Public  `json:"pub"`
}

// KeyBundle is the public key material a peer publishes so others can
// initiate a handshake. OneTimePreKey is nil when the pool is exhausted;
// that bundle is still valid, just without one-time protection.
type KeyBundle struct {
	IdentityKey           X25519Public  `json:"identity_key"`
	SigningKey            Ed25519Public `json:"signing_key"`
	SignedPreKey          X25519Public  `json:"signed_pre_key"`
	SignedPreKeySignature []byte        `json:"signed_pre_key_signature"`
	OneTimePreKey         *X25519Public `json:"one_time_pre_key,omitempty"`
}

// Sizes of the KeyBundle wire form. The optional one-time prekey is
// announced by a one-byte presence flag.
const (
	bundleSigSize   = 64
	bundleFixedSize = 32 + 32 + 32 + bundleSigSize + 1
)

var errBadBundleLength = errors.New("key bundle: bad wire length")

// MarshalBinary encodes the bundle as
// identity(32) || signing(32) || spk(32) || sig(64) || flag(1) [|| opk(32)].
func (b KeyBundle) MarshalBinary() ([]byte, error) {
	if len(b.SignedPreKeySignature) != bundleSigSize {
		return nil, errors.New("key bundle: signature must be 64 bytes")
	}
	out := make([]byte, 0, bundleFixedSize+32)
	out = append(out, b.IdentityKey[:]...)
	out = append(out, b.SigningKey[:]...)
	out = append(out, b.SignedPreKey[:]...)
	out = append(out, b.SignedPreKeySignature...)
	if b.OneTimePreKey != nil {
		out = append(out, 1)
		out = append(out, b.OneTimePreKey[:]...)
	} else {
		out = append(out, 0)
	}
	return out, nil
}

// UnmarshalBinary decodes the wire form produced by MarshalBinary.
func (b *KeyBundle) UnmarshalBinary(data []byte) error {
	if len(data) != bundleFixedSize && len(data) != bundleFixedSize+32 {
		return errBadBundleLength
	}
	copy(b.IdentityKey[:], data[0:32])
	copy(b.SigningKey[:], data[32:64])
	copy(b.SignedPreKey[:], data[64:96])
	b.SignedPreKeySignature = append([]byte(nil), data[96:96+bundleSigSize]...)
	switch data[bundleFixedSize-1] {
	case 0:
		if len(data) != bundleFixedSize {
			return errBadBundleLength
		}
		b.OneTimePreKey = nil
	case 1:
		if len(data) != bundleFixedSize+32 {
			return errBadBundleLength
		}
		var opk X25519Public
		copy(opk[:], data[bundleFixedSize:])
		b.OneTimePreKey = &opk
	default:
		return errBadBundleLength
	}
	return nil
}

// PreKeyMessage carries the handshake parameters in the first envelope of a
// conversation so the responder can derive the same shared secret.
type PreKeyMessage struct {
	InitiatorIdentityKey X25519Public  `json:"initiator_identity_key"`
	EphemeralKey         X25519Public  `json:"ephemeral_key"`
	OneTimePreKey        *X25519Public `json:"one_time_pre_key,omitempty"`
}
