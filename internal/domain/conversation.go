package domain

// Envelope is the wire-format message exchanged between peers. The transport
// that carries it treats every field as an opaque blob.
type Envelope struct {
	From      string         `json:"from"`
	To        string         `json:"to"`
	Header    RatchetHeader  `json:"header"`
	Nonce     []byte         `json:"nonce"`
	Cipher    []byte         `json:"cipher"`
	Commit    []byte         `json:"commit,omitempty"`
	PreKey    *PreKeyMessage `json:"pre_key,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// Conversation persists the ratchet state for a peer, plus the handshake
// material that must ride along until the first message has been sent.
type Conversation struct {
	Peer            string         `json:"peer"`
	State           RatchetState   `json:"state"`
	PendingPreKey   *PreKeyMessage `json:"pending_pre_key,omitempty"`
	PeerIdentityKey X25519Public   `json:"peer_identity_key"`
	CreatedUTC      int64          `json:"created_utc"`
}

// KeyStoreState is the exported form of the in-memory key store, handed to
// the persistence collaborator.
type KeyStoreState struct {
	Identity     *Identity           `json:"identity,omitempty"`
	SignedPreKey *SignedPreKeyPair   `json:"signed_pre_key,omitempty"`
	OneTime      []OneTimePreKeyPair `json:"one_time,omitempty"`
}
