// Package ids defines the opaque identifier types used across the engine
// and the deterministic derivation rules for memory and blob keys.
package ids

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// CapsuleId identifies a capsule (catalog root).
type CapsuleId string

// MemoryId identifies a memory within a capsule. Deterministic from
// (capsule_id, idempotency_key) via MemoryID below.
type MemoryId string

// BlobId identifies an immutable blob in the blob store.
type BlobId uint64

// SessionId identifies an in-progress upload session.
type SessionId string

// GalleryId identifies a gallery grouping within a capsule.
type GalleryId string

// ShareId identifies a resource membership record.
type ShareId string

// MemoryID derives the deterministic memory id for (capsuleID, idem).
// Repeated calls with the same inputs always yield the same id.
func MemoryID(capsuleID CapsuleId, idem string) MemoryId {
	return MemoryId(fmt.Sprintf("mem:%s:%s", capsuleID, idem))
}

// BlobLocator formats a BlobId as the locator string stored on a BlobRef.
func BlobLocator(id BlobId) string {
	return fmt.Sprintf("blob_%d", uint64(id))
}

// PmidStem computes the deterministic stem used to derive a session's
// stable-offset key. Computed once at begin_upload and stored in session
// meta; never recomputed by readers.
func PmidStem(capsuleID CapsuleId, assetPath string) string {
	return fmt.Sprintf("%s#%s", capsuleID, assetPath)
}

// PmidSessionHash32 derives a 64-bit page index from (pmidStem, sessionID)
// by SHA-256 hashing their concatenation and taking the first 8 bytes,
// big-endian, as a uint64. The digest is never derived from uploaded
// content, so parallel uploads of the same asset under distinct session
// ids never collide.
func PmidSessionHash32(pmidStem string, sessionID SessionId) uint64 {
	h := sha256.Sum256([]byte(pmidStem + "#" + string(sessionID)))
	return binary.BigEndian.Uint64(h[:8])
}

// PmidSessionHash32Hex is PmidSessionHash32 rendered as a hex string, used
// for log lines and diagnostics.
func PmidSessionHash32Hex(pmidStem string, sessionID SessionId) string {
	h := sha256.Sum256([]byte(pmidStem + "#" + string(sessionID)))
	return hex.EncodeToString(h[:8])
}
