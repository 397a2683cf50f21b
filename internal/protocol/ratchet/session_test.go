package ratchet_test

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"testing"

	"quietwire/internal/crypto"
	"quietwire/internal/domain"
	"quietwire/internal/protocol/ratchet"
)

type envelope struct {
	header domain.RatchetHeader
	ct     []byte
	nonce  []byte
}

// newPair builds an initiator/responder session pair over a shared secret,
// the way the handshake would seed them.
func newPair(t *testing.T) (*ratchet.Session, *ratchet.Session) {
	t.Helper()
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		t.Fatalf("rand: %v", err)
	}
	spkPriv, spkPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	alice, err := ratchet.NewInitiator(secret, spkPub)
	if err != nil {
		t.Fatalf("NewInitiator: %v", err)
	}
	bob, err := ratchet.NewResponder(secret, spkPriv, spkPub)
	if err != nil {
		t.Fatalf("NewResponder: %v", err)
	}
	return alice, bob
}

func seal(t *testing.T, s *ratchet.Session, msg string) envelope {
	t.Helper()
	header, ct, nonce, err := s.Encrypt([]byte(msg), nil)
	if err != nil {
		t.Fatalf("Encrypt(%q): %v", msg, err)
	}
	return envelope{header: header, ct: ct, nonce: nonce}
}

func open(t *testing.T, s *ratchet.Session, e envelope, want string) {
	t.Helper()
	pt, err := s.Decrypt(e.header, e.ct, e.nonce, nil)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(pt) != want {
		t.Fatalf("got %q, want %q", pt, want)
	}
}

func TestPingPongExchange(t *testing.T) {
	alice, bob := newPair(t)

	for round := 0; round < 5; round++ {
		a := fmt.Sprintf("alice %d", round)
		open(t, bob, seal(t, alice, a), a)

		b := fmt.Sprintf("bob %d", round)
		open(t, alice, seal(t, bob, b), b)
	}
}

func TestResponderCannotSendFirst(t *testing.T) {
	_, bob := newPair(t)
	if _, _, _, err := bob.Encrypt([]byte("too soon"), nil); err != ratchet.ErrSendNotReady {
		t.Fatalf("want ErrSendNotReady, got %v", err)
	}
}

func TestMessageNumbersStartAtZero(t *testing.T) {
	alice, _ := newPair(t)
	for n := uint32(0); n < 3; n++ {
		e := seal(t, alice, "m")
		if e.header.MessageNumber != n {
			t.Fatalf("message %d carried number %d", n, e.header.MessageNumber)
		}
	}
}

func TestOutOfOrderDelivery(t *testing.T) {
	alice, bob := newPair(t)

	e0 := seal(t, alice, "zero")
	e1 := seal(t, alice, "one")
	e2 := seal(t, alice, "two")

	open(t, bob, e2, "two")
	open(t, bob, e0, "zero")
	open(t, bob, e1, "one")
}

func TestReplayIsRejected(t *testing.T) {
	alice, bob := newPair(t)

	e := seal(t, alice, "once")
	open(t, bob, e, "once")

	if _, err := bob.Decrypt(e.header, e.ct, e.nonce, nil); err != ratchet.ErrMessageReplayed {
		t.Fatalf("want ErrMessageReplayed, got %v", err)
	}
	// The session must survive a replay attempt.
	open(t, bob, seal(t, alice, "after"), "after")
}

func TestConsumedSkippedKeyAcrossChains(t *testing.T) {
	alice, bob := newPair(t)

	e0 := seal(t, alice, "zero")
	e1 := seal(t, alice, "one")
	open(t, bob, e1, "one") // caches the key for e0

	// Ratchet both sides forward so e0's chain is no longer active.
	open(t, alice, seal(t, bob, "step"), "step")
	open(t, bob, seal(t, alice, "step back"), "step back")

	open(t, bob, e0, "zero") // still cached

	if _, err := bob.Decrypt(e0.header, e0.ct, e0.nonce, nil); err != ratchet.ErrSkippedKeyUnavailable {
		t.Fatalf("want ErrSkippedKeyUnavailable, got %v", err)
	}
}

func TestDHStepOnlyOnNewRatchetKey(t *testing.T) {
	alice, bob := newPair(t)

	e0 := seal(t, alice, "a0")
	e1 := seal(t, alice, "a1")
	if e0.header.RatchetKey != e1.header.RatchetKey {
		t.Fatal("ratchet key changed without an intervening receive")
	}
	open(t, bob, e0, "a0")
	open(t, bob, e1, "a1")

	b0 := seal(t, bob, "b0")
	if b0.header.RatchetKey == e0.header.RatchetKey {
		t.Fatal("responder reused the initiator's ratchet key")
	}
	if b0.header.MessageNumber != 0 {
		t.Fatalf("new chain did not reset the counter: %d", b0.header.MessageNumber)
	}
	open(t, alice, b0, "b0")

	a2 := seal(t, alice, "a2")
	if a2.header.RatchetKey == e0.header.RatchetKey {
		t.Fatal("initiator did not rotate its ratchet key after receiving")
	}
	if a2.header.PreviousChainLength != 2 {
		t.Fatalf("previous chain length = %d, want 2", a2.header.PreviousChainLength)
	}
	if a2.header.MessageNumber != 0 {
		t.Fatalf("new chain did not reset the counter: %d", a2.header.MessageNumber)
	}
	open(t, bob, a2, "a2")
}

func TestSkippedAcrossDHStep(t *testing.T) {
	alice, bob := newPair(t)

	open(t, bob, seal(t, alice, "a0"), "a0")
	held := seal(t, alice, "a1") // withheld on the first chain

	open(t, alice, seal(t, bob, "b0"), "b0")
	next := seal(t, alice, "a2") // new chain, PN=2

	open(t, bob, next, "a2") // parks the key for the withheld message
	open(t, bob, held, "a1")
}

func TestSendKeysNeverRepeat(t *testing.T) {
	alice, bob := newPair(t)

	seen := map[string]bool{}
	record := func(s *ratchet.Session) {
		t.Helper()
		mk, _, err := s.RatchetSend()
		if err != nil {
			t.Fatalf("RatchetSend: %v", err)
		}
		if seen[string(mk.Key)] {
			t.Fatal("message key issued twice")
		}
		seen[string(mk.Key)] = true
	}

	for i := 0; i < 10; i++ {
		record(alice)
	}
	// Cross a DH step and keep checking.
	open(t, bob, seal(t, alice, "sync"), "sync")
	open(t, alice, seal(t, bob, "turn"), "turn")
	for i := 0; i < 10; i++ {
		record(alice)
	}
}

func TestUniqueCiphertextsPerMessage(t *testing.T) {
	alice, _ := newPair(t)

	e0 := seal(t, alice, "same plaintext")
	e1 := seal(t, alice, "same plaintext")
	if bytes.Equal(e0.ct, e1.ct) {
		t.Fatal("two messages produced identical ciphertexts")
	}
}

func TestTamperedCiphertextLeavesStateIntact(t *testing.T) {
	alice, bob := newPair(t)

	e := seal(t, alice, "intact")
	bad := append([]byte(nil), e.ct...)
	bad[0] ^= 0x01
	if _, err := bob.Decrypt(e.header, bad, e.nonce, nil); err == nil {
		t.Fatal("tampered ciphertext accepted")
	}
	// The genuine message must still decrypt: the failed attempt may not
	// advance the chain or consume anything.
	open(t, bob, e, "intact")
}

func TestTamperedHeaderIsRejected(t *testing.T) {
	alice, bob := newPair(t)

	e := seal(t, alice, "bound")

	tampered := e.header
	tampered.PreviousChainLength++
	if _, err := bob.Decrypt(tampered, e.ct, e.nonce, nil); err == nil {
		t.Fatal("header tampering went unnoticed")
	}
	open(t, bob, e, "bound")
}

func TestAssociatedDataBinds(t *testing.T) {
	alice, bob := newPair(t)

	header, ct, nonce, err := alice.Encrypt([]byte("hello"), []byte("alice->bob"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := bob.Decrypt(header, ct, nonce, []byte("mallory->bob")); err == nil {
		t.Fatal("wrong associated data accepted")
	}
	pt, err := bob.Decrypt(header, ct, nonce, []byte("alice->bob"))
	if err != nil {
		t.Fatalf("Decrypt with correct AD: %v", err)
	}
	if string(pt) != "hello" {
		t.Fatalf("got %q", pt)
	}
}

func TestSkipAheadLimit(t *testing.T) {
	alice, bob := newPair(t)
	open(t, bob, seal(t, alice, "seed"), "seed")

	e := seal(t, alice, "far")
	forged := e.header
	forged.MessageNumber = 100000
	if _, err := bob.Decrypt(forged, e.ct, e.nonce, nil); err != ratchet.ErrTooManySkipped {
		t.Fatalf("want ErrTooManySkipped, got %v", err)
	}
	// The rejected header must not have advanced anything.
	open(t, bob, e, "far")
}

func TestSnapshotResume(t *testing.T) {
	alice, bob := newPair(t)

	open(t, bob, seal(t, alice, "before"), "before")
	held := seal(t, alice, "held")
	open(t, bob, seal(t, alice, "skip past"), "skip past")

	resumed := ratchet.Resume(bob.Snapshot())
	bob.Wipe()

	// The resumed session carries the receiving chain and the skipped key.
	open(t, resumed, held, "held")
	open(t, alice, seal(t, resumed, "reply"), "reply")
}

func TestEchoedHandshakeKeyRejected(t *testing.T) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		t.Fatalf("rand: %v", err)
	}
	_, spkPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	alice, err := ratchet.NewInitiator(secret, spkPub)
	if err != nil {
		t.Fatalf("NewInitiator: %v", err)
	}

	// An attacker sends the handshake prekey back as a ratchet key before
	// any genuine reply has arrived.
	forged := domain.RatchetHeader{RatchetKey: spkPub}
	if _, err := alice.Decrypt(forged, []byte("junk"), make([]byte, 12), nil); err != ratchet.ErrEchoedRatchetKey {
		t.Fatalf("want ErrEchoedRatchetKey, got %v", err)
	}
}

func TestReflectedMessageRejected(t *testing.T) {
	alice, _ := newPair(t)

	// The initiator's own first message bounced straight back at it.
	e := seal(t, alice, "reflected")
	if _, err := alice.Decrypt(e.header, e.ct, e.nonce, nil); err == nil {
		t.Fatal("session accepted its own reflected message")
	}
}
