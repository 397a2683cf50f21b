// Package keystore owns the local key material: the long-term identity
// (X25519 + Ed25519), the current signed prekey, and a pool of one-time
// prekeys.
//
// The store is purely in memory; durable storage is the caller's concern via
// Export and Import. Consuming a one-time prekey removes it from the pool,
// so the same prekey can never be handed to two peers.
package keystore
