package domain

import "testing"

func TestRatchetHeaderWireForm(t *testing.T) {
	h := RatchetHeader{PreviousChainLength: 7, MessageNumber: 300}
	h.RatchetKey[0] = 0xab

	b := h.Bytes()
	if len(b) != HeaderSize {
		t.Fatalf("wire length %d, want %d", len(b), HeaderSize)
	}
	got, ok := ParseRatchetHeader(b)
	if !ok {
		t.Fatal("parse of own output failed")
	}
	if got != h {
		t.Fatalf("round trip mismatch: %+v != %+v", got, h)
	}

	if _, ok := ParseRatchetHeader(b[:HeaderSize-1]); ok {
		t.Fatal("truncated header accepted")
	}
	if _, ok := ParseRatchetHeader(append(b, 0)); ok {
		t.Fatal("oversized header accepted")
	}
}

func TestKeyBundleWireForm(t *testing.T) {
	opk := X25519Public{9}
	b := KeyBundle{
		IdentityKey:           X25519Public{1},
		SigningKey:            Ed25519Public{2},
		SignedPreKey:          X25519Public{3},
		SignedPreKeySignature: make([]byte, 64),
		OneTimePreKey:         &opk,
	}

	wire, err := b.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	var got KeyBundle
	if err := got.UnmarshalBinary(wire); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if got.IdentityKey != b.IdentityKey || got.SignedPreKey != b.SignedPreKey {
		t.Fatal("key fields lost in round trip")
	}
	if got.OneTimePreKey == nil || *got.OneTimePreKey != opk {
		t.Fatal("one-time prekey lost in round trip")
	}

	b.OneTimePreKey = nil
	wire, err = b.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary (no opk): %v", err)
	}
	if err := got.UnmarshalBinary(wire); err != nil {
		t.Fatalf("UnmarshalBinary (no opk): %v", err)
	}
	if got.OneTimePreKey != nil {
		t.Fatal("phantom one-time prekey after round trip")
	}

	if err := got.UnmarshalBinary(wire[:10]); err == nil {
		t.Fatal("truncated bundle accepted")
	}
	// Flag says absent but trailing bytes follow.
	bad := append(append([]byte(nil), wire...), make([]byte, 32)...)
	if err := got.UnmarshalBinary(bad); err == nil {
		t.Fatal("flag/length mismatch accepted")
	}

	b.SignedPreKeySignature = []byte{1, 2}
	if _, err := b.MarshalBinary(); err == nil {
		t.Fatal("short signature accepted")
	}
}
