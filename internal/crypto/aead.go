package crypto

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize is the AEAD key length.
	KeySize = chacha20poly1305.KeySize
	// NonceSize is the AEAD nonce length.
	NonceSize = chacha20poly1305.NonceSize
)

var (
	// ErrDecryptFailed covers every authentication failure. It deliberately
	// carries no detail about whether the key, the ciphertext or the
	// associated data was wrong.
	ErrDecryptFailed = errors.New("aead: decryption failed")

	errBadKeySize = errors.New("aead: key must be 32 bytes")
)

// Seal encrypts plaintext under key with a fresh random nonce. The nonce is
// returned alongside the ciphertext and must accompany it to Open.
func Seal(key, plaintext []byte) (ciphertext, nonce []byte, err error) {
	return SealWithAD(key, plaintext, nil)
}

// SealWithAD encrypts plaintext under key, binding ad so that it cannot be
// swapped onto a different ciphertext undetected.
func SealWithAD(key, plaintext, ad []byte) (ciphertext, nonce []byte, err error) {
	if len(key) != KeySize {
		return nil, nil, errBadKeySize
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}
	return aead.Seal(nil, nonce, plaintext, ad), nonce, nil
}

// Open decrypts a ciphertext produced by Seal.
func Open(key, ciphertext, nonce []byte) ([]byte, error) {
	return OpenWithAD(key, ciphertext, nonce, nil)
}

// OpenWithAD decrypts a ciphertext produced by SealWithAD. The same ad bytes
// must be supplied or authentication fails.
func OpenWithAD(key, ciphertext, nonce, ad []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, errBadKeySize
	}
	if len(nonce) != NonceSize {
		return nil, ErrDecryptFailed
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return pt, nil
}
