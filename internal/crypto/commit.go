package crypto

import "golang.org/x/crypto/blake2b"

// Commitment returns a BLAKE2b-256 digest binding a ratchet header to its
// ciphertext. The proof-of-authenticity subsystem consumes these digests;
// they reveal nothing about the plaintext or the message key.
func Commitment(header, ciphertext []byte) []byte {
	h, _ := blake2b.New256(nil)
	h.Write(header)
	h.Write(ciphertext)
	return h.Sum(nil)
}
