package x3dh

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"

	"quietwire/internal/crypto"
	"quietwire/internal/domain"
	"quietwire/internal/util/memzero"
)

// SecretSize is the size of the derived shared secret.
const SecretSize = 32

// kdfInfo pins the derivation label both sides must agree on bit-for-bit.
var kdfInfo = []byte("quietwire/x3dh/v1")

var (
	// ErrBadPrekeySignature means the bundle's signed prekey failed
	// verification against the published signing key. Fatal; the handshake
	// must not continue with unverified material.
	ErrBadPrekeySignature = errors.New("x3dh: signed prekey signature invalid")

	// ErrMissingOneTimeSecret means the initiator claims to have used a
	// one-time prekey whose secret the responder no longer holds.
	ErrMissingOneTimeSecret = errors.New("x3dh: one-time prekey secret unavailable")
)

// Result is what Initiate hands back: the shared secret, the ephemeral
// public to transmit, and whether a one-time prekey strengthened the
// handshake.
type Result struct {
	Secret            []byte
	EphemeralKey      domain.X25519Public
	UsedOneTimePreKey bool
}

// Initiate runs the initiator side of X3DH against a peer's bundle.
//
// The transcript order is DH(IKa,SPKb) || DH(EKa,IKb) || DH(EKa,SPKb)
// followed by DH(EKa,OPKb) when the bundle carries a one-time prekey.
func Initiate(id domain.Identity, bundle domain.KeyBundle) (Result, error) {
	if !crypto.VerifyEd25519(bundle.SigningKey, bundle.SignedPreKey[:], bundle.SignedPreKeySignature) {
		return Result{}, ErrBadPrekeySignature
	}

	ephPriv, ephPub, err := crypto.GenerateX25519()
	if err != nil {
		return Result{}, err
	}
	defer memzero.Zero32((*[32]byte)(&ephPriv))

	dh1, err := crypto.DH(id.XPriv, bundle.SignedPreKey)
	if err != nil {
		return Result{}, err
	}
	defer memzero.Zero32(&dh1)
	dh2, err := crypto.DH(ephPriv, bundle.IdentityKey)
	if err != nil {
		return Result{}, err
	}
	defer memzero.Zero32(&dh2)
	dh3, err := crypto.DH(ephPriv, bundle.SignedPreKey)
	if err != nil {
		return Result{}, err
	}
	defer memzero.Zero32(&dh3)

	transcript := make([]byte, 0, 32*4)
	transcript = append(transcript, dh1[:]...)
	transcript = append(transcript, dh2[:]...)
	transcript = append(transcript, dh3[:]...)
	defer memzero.Zero(transcript)

	used := false
	if bundle.OneTimePreKey != nil {
		dh4, err := crypto.DH(ephPriv, *bundle.OneTimePreKey)
		if err != nil {
			return Result{}, err
		}
		transcript = append(transcript, dh4[:]...)
		memzero.Zero32(&dh4)
		used = true
	}

	return Result{
		Secret:            deriveSecret(transcript),
		EphemeralKey:      ephPub,
		UsedOneTimePreKey: used,
	}, nil
}

// Respond mirrors Initiate on the responder side, producing the identical
// shared secret. opkPriv must be non-nil exactly when msg names a one-time
// prekey; a claimed-but-missing secret is a fatal protocol error.
func Respond(
	id domain.Identity,
	spkPriv domain.X25519Private,
	opkPriv *domain.X25519Private,
	msg domain.PreKeyMessage,
) ([]byte, error) {
	if msg.OneTimePreKey != nil && opkPriv == nil {
		return nil, ErrMissingOneTimeSecret
	}

	dh1, err := crypto.DH(spkPriv, msg.InitiatorIdentityKey)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero32(&dh1)
	dh2, err := crypto.DH(id.XPriv, msg.EphemeralKey)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero32(&dh2)
	dh3, err := crypto.DH(spkPriv, msg.EphemeralKey)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero32(&dh3)

	transcript := make([]byte, 0, 32*4)
	transcript = append(transcript, dh1[:]...)
	transcript = append(transcript, dh2[:]...)
	transcript = append(transcript, dh3[:]...)
	defer memzero.Zero(transcript)

	if msg.OneTimePreKey != nil {
		dh4, err := crypto.DH(*opkPriv, msg.EphemeralKey)
		if err != nil {
			return nil, err
		}
		transcript = append(transcript, dh4[:]...)
		memzero.Zero32(&dh4)
	}

	return deriveSecret(transcript), nil
}

// deriveSecret runs HKDF-SHA256 over the DH transcript with a zero salt.
func deriveSecret(transcript []byte) []byte {
	out := make([]byte, SecretSize)
	r := hkdf.New(sha256.New, transcript, nil, kdfInfo)
	_, _ = io.ReadFull(r, out)
	return out
}
