package domain

import "encoding/binary"

// RatchetHeader is attached to every outgoing ciphertext. It is immutable
// once constructed and is bound to the ciphertext as associated data.
type RatchetHeader struct {
	RatchetKey          X25519Public `json:"ratchet_key"`
	PreviousChainLength uint32       `json:"pn"`
	MessageNumber       uint32       `json:"n"`
}

// HeaderSize is the wire size of a RatchetHeader.
const HeaderSize = 32 + 4 + 4

// Bytes returns the 40-byte wire form:
// ratchet key (32) || previous chain length (u32 BE) || message number (u32 BE).
func (h RatchetHeader) Bytes() []byte {
	out := make([]byte, HeaderSize)
	copy(out, h.RatchetKey[:])
	binary.BigEndian.PutUint32(out[32:], h.PreviousChainLength)
	binary.BigEndian.PutUint32(out[36:], h.MessageNumber)
	return out
}

// ParseRatchetHeader decodes the wire form produced by Bytes.
func ParseRatchetHeader(data []byte) (RatchetHeader, bool) {
	var h RatchetHeader
	if len(data) != HeaderSize {
		return h, false
	}
	copy(h.RatchetKey[:], data[:32])
	h.PreviousChainLength = binary.BigEndian.Uint32(data[32:])
	h.MessageNumber = binary.BigEndian.Uint32(data[36:])
	return h, true
}

// MessageKey is a single-use 32-byte key together with the chain position it
// was derived at. Callers must wipe it once the AEAD operation is done.
type MessageKey struct {
	Key           []byte
	MessageNumber uint32
	RatchetKey    X25519Public
}

// SkippedKey is a cached message key for a message that has not arrived yet,
// indexed by the remote ratchet key and message number it belongs to.
type SkippedKey struct {
	RatchetKey    X25519Public `json:"ratchet_key"`
	MessageNumber uint32       `json:"n"`
	Key           []byte       `json:"key"`
}

// RatchetState is the exported form of a ratchet session, used by the
// persistence collaborator. Skipped preserves insertion order so that
// eviction order survives an export/import round trip.
type RatchetState struct {
	RootKey             []byte        `json:"root_key"`
	DHPriv              X25519Private `json:"dh_priv"`
	DHPub               X25519Public  `json:"dh_pub"`
	PeerDHPub           X25519Public  `json:"peer_dh_pub"`
	PrevPeerDHPub       X25519Public  `json:"prev_peer_dh_pub"`
	SendChainKey        []byte        `json:"send_ck,omitempty"`
	RecvChainKey        []byte        `json:"recv_ck,omitempty"`
	SendCount           uint32        `json:"ns"`
	RecvCount           uint32        `json:"nr"`
	PreviousChainLength uint32        `json:"pn"`
	Skipped             []SkippedKey  `json:"skipped,omitempty"`
}
