// Package store provides file-based persistence for quietwire's core data.
//
// It contains concrete implementations of the domain storage interfaces,
// serialising data as JSON on disk. Key store state is sealed under a
// passphrase-derived key before it touches disk. All methods are
// concurrency-safe via internal locking; files live under the configured
// home directory.
//
// The package includes stores for:
//   - Key store state: identity, signed prekey, one-time pool (KeyStoreFileStore)
//   - Secrets of one-time prekeys already issued in bundles (IssuedPreKeyFileStore)
//   - Per-peer ratchet conversation state (ConversationFileStore)
package store
