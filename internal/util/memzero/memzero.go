// Package memzero zeroes sensitive byte buffers.
package memzero

import "runtime"

// Zero overwrites b with zeros. Best-effort: the noinline directive and the
// KeepAlive reduce the chance of the compiler eliding the writes.
//
//go:noinline
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}

// Zero32 overwrites a fixed-size key array with zeros.
func Zero32(k *[32]byte) {
	Zero(k[:])
}
