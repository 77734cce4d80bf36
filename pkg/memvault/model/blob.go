package model

import (
	"time"

	"github.com/memvault/memvault/pkg/memvault/ids"
)

// BlobRef identifies an internal blob by its stable-store locator, plus the
// length and optional content hash recorded at commit time. BlobRef values
// are identifiers, not references: cross-memory sharing of a blob is
// expressed by locator equality, never by a shared pointer.
type BlobRef struct {
	Locator string
	Hash    *string
	Len     uint64
}

// NewBlobRef builds the canonical BlobRef for a committed blob.
func NewBlobRef(id ids.BlobId, hash string, length uint64) BlobRef {
	h := hash
	return BlobRef{Locator: ids.BlobLocator(id), Hash: &h, Len: length}
}

// BlobMeta is the immutable record written to BLOB_META at commit time.
type BlobMeta struct {
	BlobID    ids.BlobId
	Len       uint64
	Checksum  string
	CreatedAt time.Time
}

// StorageEdgeBlobType is the closed set of external storage backends a
// BlobExternal asset may reference. These remain opaque endpoints recorded
// in metadata; the engine never reads or writes their bytes itself.
type StorageEdgeBlobType string

const (
	StorageEdgeBlobIcp        StorageEdgeBlobType = "icp"
	StorageEdgeBlobVercelBlob StorageEdgeBlobType = "vercel_blob"
	StorageEdgeBlobS3         StorageEdgeBlobType = "s3"
	StorageEdgeBlobArweave    StorageEdgeBlobType = "arweave"
	StorageEdgeBlobIpfs       StorageEdgeBlobType = "ipfs"
	StorageEdgeBlobNeon       StorageEdgeBlobType = "neon"
)

// MemoryAssetInline holds small content bytes directly in the catalog
// entry. Bytes must be <= INLINE_MAX (see pkg/upload/const.go).
type MemoryAssetInline struct {
	Bytes    []byte
	Metadata AssetMetadata
}

// MemoryAssetBlobInternal references a blob held in this engine's own
// stable blob store.
type MemoryAssetBlobInternal struct {
	BlobRef  BlobRef
	Metadata AssetMetadata
}

// MemoryAssetBlobExternal references bytes held by an external
// collaborator; the engine stores only the reference.
type MemoryAssetBlobExternal struct {
	Location   StorageEdgeBlobType
	StorageKey string
	URL        *string
	Metadata   AssetMetadata
}
