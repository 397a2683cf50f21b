package ratchet

import (
	"testing"

	"quietwire/internal/domain"
)

func pubN(b byte) domain.X25519Public {
	var p domain.X25519Public
	p[0] = b
	return p
}

func keyN(b byte) []byte {
	k := make([]byte, 32)
	k[0] = b
	return k
}

func TestSkippedCache_TakeConsumesOnce(t *testing.T) {
	c := newSkippedCache(4)
	c.put(pubN(1), 0, keyN(0xaa))

	mk, ok := c.take(pubN(1), 0)
	if !ok {
		t.Fatal("first take missed")
	}
	if mk[0] != 0xaa {
		t.Fatal("wrong key returned")
	}
	if _, ok := c.take(pubN(1), 0); ok {
		t.Fatal("second take returned a consumed key")
	}
	if c.len() != 0 {
		t.Fatalf("cache not empty after consume: %d", c.len())
	}
}

func TestSkippedCache_EvictsOldestFirst(t *testing.T) {
	c := newSkippedCache(3)
	for n := uint32(0); n < 3; n++ {
		c.put(pubN(1), n, keyN(byte(n)))
	}
	// Overflow: entry (1, 0) is the oldest and must go.
	c.put(pubN(2), 0, keyN(0xff))

	if c.len() != 3 {
		t.Fatalf("cache exceeded capacity: %d", c.len())
	}
	if _, ok := c.take(pubN(1), 0); ok {
		t.Fatal("oldest entry survived eviction")
	}
	for n := uint32(1); n < 3; n++ {
		if _, ok := c.take(pubN(1), n); !ok {
			t.Fatalf("entry (1, %d) evicted out of order", n)
		}
	}
	if _, ok := c.take(pubN(2), 0); !ok {
		t.Fatal("newest entry missing")
	}
}

func TestSkippedCache_EvictedKeyIsZeroed(t *testing.T) {
	c := newSkippedCache(1)
	old := keyN(0xaa)
	c.put(pubN(1), 0, old)
	c.put(pubN(1), 1, keyN(0xbb))

	for i, b := range old {
		if b != 0 {
			t.Fatalf("evicted key byte %d not zeroed", i)
		}
	}
}

func TestSkippedCache_ContainsTracksRatchetKey(t *testing.T) {
	c := newSkippedCache(4)
	c.put(pubN(1), 3, keyN(1))

	if !c.contains(pubN(1)) {
		t.Fatal("contains missed a cached ratchet key")
	}
	if c.contains(pubN(2)) {
		t.Fatal("contains matched an unknown ratchet key")
	}
	c.take(pubN(1), 3)
	if c.contains(pubN(1)) {
		t.Fatal("contains matched after the last entry was consumed")
	}
}

func TestSkippedCache_ExportRestoreRoundTrip(t *testing.T) {
	c := newSkippedCache(4)
	c.put(pubN(1), 0, keyN(1))
	c.put(pubN(1), 2, keyN(2))
	c.put(pubN(2), 0, keyN(3))

	exported := c.export()
	if len(exported) != 3 {
		t.Fatalf("exported %d entries, want 3", len(exported))
	}

	fresh := newSkippedCache(4)
	fresh.restore(exported)
	for _, e := range exported {
		mk, ok := fresh.take(e.RatchetKey, e.MessageNumber)
		if !ok {
			t.Fatalf("entry (%x, %d) lost in restore", e.RatchetKey[:2], e.MessageNumber)
		}
		if mk[0] != e.Key[0] {
			t.Fatal("restored key differs from exported key")
		}
	}
}
