package domain

// Identity holds the long-term X25519 Diffie-Hellman keys and the Ed25519
// signing keys of the local account.
type Identity struct {
	XPub   X25519Public   `json:"xpub"`
	XPriv  X25519Private  `json:"xpriv"`
	EdPub  Ed25519Public  `json:"edpub"`
	EdPriv Ed25519Private `json:"edpriv"`
}
