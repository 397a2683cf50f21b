// Package ratchet implements the Double Ratchet session protocol: a
// Diffie-Hellman ratchet interleaved with two symmetric KDF chains, deriving
// a fresh single-use key for every message.
//
// # Sessions
//
// A Session is seeded from an X3DH shared secret. The initiator calls
// NewInitiator with the peer's signed prekey and can send immediately; the
// responder calls NewResponder with its signed prekey pair and must receive
// the first message before it can send.
//
// RatchetSend and RatchetReceive are the only operations that mutate session
// state. They are serialized behind a per-session mutex: both can advance
// the root key, and unsynchronized interleaving would corrupt cryptographic
// state, not merely race. Distinct sessions are fully independent.
//
// # Conventions
//
// Message numbers start at 0: a header carries the pre-increment counter, so
// the first RatchetSend on a chain yields message number 0. The DH ratchet's
// sending half-step is deferred: observing a new remote ratchet key installs
// only the new receiving chain and invalidates the sending chain; the next
// RatchetSend generates a fresh ratchet pair and completes the step.
//
// # Out-of-order delivery
//
// Keys for messages that have not arrived yet are parked in a bounded,
// insertion-ordered cache and consumed at most once. When the cache
// overflows, the oldest entries are dropped; those messages are permanently
// undecryptable and attempts to read them report ErrSkippedKeyUnavailable
// rather than crashing or desynchronizing the chain.
package ratchet
