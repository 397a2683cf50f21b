// Package conversation glues the key store, the X3DH handshake and the
// Double Ratchet into peer-to-peer conversations.
//
// It owns no transport: bundles and envelopes are plain values the caller
// moves between peers however it likes. The service loads key and ratchet
// state from the injected stores, runs the pure cryptographic core, and
// persists the advanced state before handing results back.
package conversation
