package ratchet

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"quietwire/internal/util/memzero"
)

// Derivation labels. Both parties must agree on these bit-for-bit.
var (
	rootLabel  = []byte("quietwire/dr/root")
	chainLabel = []byte("quietwire/dr/chain")
)

// kdfRoot mixes a DH output into the root key, yielding the next root key
// and a fresh chain key. One-way: the input root key is not recoverable
// from either output.
func kdfRoot(rk, dh []byte) (newRK, ck []byte) {
	r := hkdf.New(sha256.New, dh, rk, rootLabel)
	newRK = make([]byte, 32)
	ck = make([]byte, 32)
	_, _ = io.ReadFull(r, newRK)
	_, _ = io.ReadFull(r, ck)
	return
}

// kdfChain advances a symmetric chain one step, returning the next chain key
// and the message key for the current position. The input chain key is
// zeroed.
func kdfChain(ck []byte) (next, mk []byte) {
	r := hkdf.New(sha256.New, ck, nil, chainLabel)
	next = make([]byte, 32)
	mk = make([]byte, 32)
	_, _ = io.ReadFull(r, next)
	_, _ = io.ReadFull(r, mk)
	memzero.Zero(ck)
	return
}
