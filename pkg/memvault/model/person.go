package model

import "encoding/hex"

// PersonRef is a tagged variant identifying a principal: either a
// cryptographic identity (Principal) or an external/legacy reference
// (Opaque). Modeled as an interface with unexported marker methods so the
// compiler enforces exhaustiveness at call sites, the same closed-variant
// pattern used for cache.BlockRef and acl.ACE, rather than a struct with
// optional fields and runtime tag counting.
type PersonRef interface {
	isPersonRef()
	// Key returns a stable string usable as a map key for this ref.
	Key() string
}

// Principal is a cryptographic identity, carried as raw bytes (e.g. a
// public key hash).
type Principal struct {
	Bytes []byte
}

func (Principal) isPersonRef() {}

// Key renders the principal as a hex string.
func (p Principal) Key() string { return "principal:" + hex.EncodeToString(p.Bytes) }

// Opaque is an external or legacy reference that does not carry
// cryptographic material (e.g. a migrated user id).
type Opaque struct {
	Ref string
}

func (Opaque) isPersonRef() {}

// Key renders the opaque ref directly, namespaced to avoid collision with
// Principal keys.
func (o Opaque) Key() string { return "opaque:" + o.Ref }

// SamePersonRef reports whether two refs denote the same principal.
func SamePersonRef(a, b PersonRef) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Key() == b.Key()
}
