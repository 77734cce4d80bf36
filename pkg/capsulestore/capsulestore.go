// Package capsulestore defines CapsuleStore: the catalog of capsules and
// their memories. All reads and writes go through a Store implementation;
// it enforces ACL, invariants, idempotency, and cascade cleanup. Three
// backends are provided: memstore, badgerstore, and pgstore, following a
// pluggable metadata-store layering
// (pkg/metadata/store/{memory,badger,postgres}).
package capsulestore

import (
	"context"

	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/model"
)

// CapsuleHeader is the listing-shaped projection of a Capsule.
type CapsuleHeader struct {
	ID        ids.CapsuleId
	Subject   model.PersonRef
	NumMemories int
}

// BulkDeleteResult reports partial success for MemoriesDeleteBulk.
type BulkDeleteResult struct {
	Deleted []ids.MemoryId
	Failed  map[ids.MemoryId]error
}

// DeleteAllResult reports how many memories MemoriesDeleteAll removed.
type DeleteAllResult struct {
	Deleted int
}

// CleanupResult reports how many assets MemoriesCleanupAssetsAll stripped.
type CleanupResult struct {
	AssetsCleaned int
}

// ExtraReaders is consulted, in addition to capsule write access, when
// resolving whether caller may read a capsule/memory — the hook
// SharingCore's granted memberships plug into without capsulestore
// importing sharingcore (which would create an import cycle, since
// sharingcore consults capsulestore for ownership).
type ExtraReaders func(capsuleID ids.CapsuleId, caller model.PersonRef) bool

// BlobEraser is implemented by callers (typically pkg/upload, wiring a
// blobstore.Region) so CapsuleStore can erase a blob's bytes once cascade
// deletion determines no memory references it any longer, without
// CapsuleStore importing blobstore directly.
type BlobEraser interface {
	EraseBlob(ctx context.Context, locator string) error
}

// Store is the CapsuleStore contract. Every operation returns a
// *merrors.CoreError on ACL or invariant failure.
type Store interface {
	CapsulesCreate(ctx context.Context, caller model.PersonRef, subject model.PersonRef) (*model.Capsule, error)
	CapsulesReadBasic(ctx context.Context, caller model.PersonRef, id *ids.CapsuleId) (*model.Capsule, error)
	CapsulesList(ctx context.Context, caller model.PersonRef) ([]CapsuleHeader, error)
	CapsulesDelete(ctx context.Context, caller model.PersonRef, id ids.CapsuleId, eraser BlobEraser) error

	MemoriesCreate(ctx context.Context, caller model.PersonRef, capsuleID ids.CapsuleId, data model.AssetData, meta model.AssetMetadata, access model.MemoryAccess, idem string) (ids.MemoryId, error)
	MemoriesRead(ctx context.Context, caller model.PersonRef, id ids.MemoryId) (*model.Memory, error)
	MemoriesList(ctx context.Context, caller model.PersonRef, capsuleID ids.CapsuleId) ([]model.MemoryHeader, error)
	MemoriesUpdate(ctx context.Context, caller model.PersonRef, id ids.MemoryId, update model.MemoryUpdate) error
	MemoriesDelete(ctx context.Context, caller model.PersonRef, id ids.MemoryId, eraser BlobEraser) error
	MemoriesDeleteBulk(ctx context.Context, caller model.PersonRef, capsuleID ids.CapsuleId, memoryIDs []ids.MemoryId, eraser BlobEraser) (BulkDeleteResult, error)
	MemoriesDeleteAll(ctx context.Context, caller model.PersonRef, capsuleID ids.CapsuleId, eraser BlobEraser) (DeleteAllResult, error)

	MemoriesAddAsset(ctx context.Context, caller model.PersonRef, id ids.MemoryId, ref model.BlobRef, meta model.AssetMetadata) error
	MemoriesAddInlineAsset(ctx context.Context, caller model.PersonRef, id ids.MemoryId, bytes []byte, meta model.AssetMetadata) error
	MemoriesCleanupAssetsAll(ctx context.Context, caller model.PersonRef, id ids.MemoryId, eraser BlobEraser) (CleanupResult, error)

	AssetRemoveInline(ctx context.Context, caller model.PersonRef, id ids.MemoryId, idx int) error
	AssetRemoveInternal(ctx context.Context, caller model.PersonRef, id ids.MemoryId, blobLocator string, eraser BlobEraser) error
	AssetRemoveExternal(ctx context.Context, caller model.PersonRef, id ids.MemoryId, storageKey string) error
}
