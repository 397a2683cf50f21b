package domain

// KeyStoreStore persists the exported key store state between runs.
type KeyStoreStore interface {
	SaveKeyStore(passphrase string, st KeyStoreState) error
	LoadKeyStore(passphrase string) (KeyStoreState, bool, error)
}

// IssuedPreKeyStore holds the secret halves of one-time prekeys that have
// been consumed into a published bundle but not yet used by a handshake.
// ConsumeIssued removes the secret as it returns it.
type IssuedPreKeyStore interface {
	SaveIssued(pub X25519Public, priv X25519Private) error
	ConsumeIssued(pub X25519Public) (X25519Private, bool, error)
}

// ConversationStore keeps per-peer ratchet state.
type ConversationStore interface {
	SaveConversation(peer string, conv Conversation) error
	LoadConversation(peer string) (Conversation, bool, error)
	DeleteConversation(peer string) error
}
