// Package x3dh implements the Extended Triple Diffie-Hellman key agreement
// that bootstraps a Double Ratchet session between two parties.
//
// # Overview
//
// X3DH lets an initiator derive a shared 32-byte secret with a responder who
// has published a key bundle. The bundle contains:
//   - Identity key (X25519) and its Ed25519 signing counterpart
//   - Signed prekey (X25519) and its Ed25519 signature
//   - Optionally one one-time prekey (X25519)
//
// # Flows
//
// Initiator:
//  1. Verify the signed prekey signature; never proceed on failure.
//  2. Generate an ephemeral X25519 key pair.
//  3. Compute DH values (IKa·SPKb, EKa·IKb, EKa·SPKb[, EKa·OPKb]).
//  4. HKDF over the concatenated transcript to produce the shared secret.
//
// Responder:
//  1. Receive the PreKeyMessage (initiator identity key, ephemeral key,
//     and the one-time prekey public used, if any).
//  2. Look up the matching secrets; a claimed-but-missing one-time secret
//     is fatal.
//  3. Compute the mirrored DH set in the same order and HKDF the same
//     transcript to the identical secret.
//
// The secret exists only to seed a ratchet session and must be wiped by the
// caller immediately afterwards.
//
// # Errors
//
// ErrBadPrekeySignature: the signed prekey signature failed verification.
// ErrMissingOneTimeSecret: the initiator used a one-time prekey whose secret
// is no longer available on the responder side.
package x3dh
