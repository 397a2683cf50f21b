// Package domain defines the core data models and interfaces shared across
// quietwire. It contains plain types (key material, wire forms, ratchet
// state) and contracts (store interfaces) only.
package domain
