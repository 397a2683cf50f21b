// Package crypto exposes the primitives the quietwire core is built from.
//
// Contents
//
//   - X25519 key generation, clamping and Diffie-Hellman (GenerateX25519, DH)
//   - Ed25519 key generation, signing and verification (GenerateEd25519,
//     SignEd25519, VerifyEd25519)
//   - AEAD with per-call random nonces (Seal, SealWithAD, Open, OpenWithAD)
//   - BLAKE2b message commitments for the proof subsystem (Commitment)
//   - Short public-key fingerprints for display (Fingerprint)
//
// # Notes
//
// All key material moves through fixed-size array types defined in
// internal/domain. Callers should treat returned secrets as sensitive and
// wipe them with memzero once they are no longer needed. Open and OpenWithAD
// report every failure as ErrDecryptFailed without distinguishing a wrong
// key from a corrupted ciphertext or a tampered header.
package crypto
