// Package commands defines the quietwire CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - init           Create the local identity and prekeys
//   - fingerprint    Print the identity fingerprint
//   - prekeys        Top up the one-time prekey pool
//   - export-bundle  Write the public key bundle for peers to fetch
//   - start-session  Run the X3DH handshake against a peer's bundle
//   - seal           Encrypt a message into an envelope file
//   - open           Decrypt an envelope file
//   - end-session    Tear down the session with a peer
//
// # Implementation
//
// The root command builds the dependency graph (file stores, conversation
// service) in PersistentPreRunE, so handlers share one app context. There is
// no transport here: bundle and envelope files are moved between peers by
// whatever carrier the user has.
package commands
