package model

import (
	"time"

	"github.com/memvault/memvault/pkg/memvault/ids"
)

// MemoryType is the closed set of memory kinds.
type MemoryType string

const (
	MemoryTypeImage    MemoryType = "image"
	MemoryTypeVideo    MemoryType = "video"
	MemoryTypeAudio    MemoryType = "audio"
	MemoryTypeDocument MemoryType = "document"
	MemoryTypeNote     MemoryType = "note"
)

// StorageEdgeDatabaseType names a relational-mirror backend a memory's
// metadata may also have been written to. Recorded for bookkeeping only;
// the engine never calls out to these stores itself (see Non-goals).
type StorageEdgeDatabaseType string

const (
	StorageEdgeDatabaseNone    StorageEdgeDatabaseType = ""
	StorageEdgeDatabaseNeon    StorageEdgeDatabaseType = "neon"
	StorageEdgeDatabasePostgre StorageEdgeDatabaseType = "postgres"
)

// MemoryMetadata is the catalog-visible description of a memory, shared
// across all of its assets.
type MemoryMetadata struct {
	MemoryType  MemoryType
	Title       *string
	Description *string
	ContentType string

	CreatedAt  time.Time
	UpdatedAt  time.Time
	UploadedAt time.Time

	DateOfMemory   *time.Time
	FileCreatedAt  *time.Time
	ParentFolderID *string

	Tags      []string
	DeletedAt *time.Time

	PeopleInMemory []string
	Location       *string
	MemoryNotes    *string
	CreatedBy      *PersonRef

	DatabaseStorageEdges []StorageEdgeDatabaseType
}

// Memory is a named content record within a capsule. It holds at least one
// asset across its three disjoint asset vectors.
type Memory struct {
	ID       ids.MemoryId
	Metadata MemoryMetadata
	Access   MemoryAccess

	InlineAssets       []MemoryAssetInline
	BlobInternalAssets []MemoryAssetBlobInternal
	BlobExternalAssets []MemoryAssetBlobExternal
}

// AssetCount returns the total number of assets attached to the memory
// across all three vectors.
func (m *Memory) AssetCount() int {
	return len(m.InlineAssets) + len(m.BlobInternalAssets) + len(m.BlobExternalAssets)
}

// MemoryHeader is the listing-shaped projection of a Memory.
type MemoryHeader struct {
	ID         ids.MemoryId
	MemoryType MemoryType
	Title      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	AssetCount int
}

// Header projects m into its listing form.
func (m *Memory) Header() MemoryHeader {
	return MemoryHeader{
		ID:         m.ID,
		MemoryType: m.Metadata.MemoryType,
		Title:      m.Metadata.Title,
		CreatedAt:  m.Metadata.CreatedAt,
		UpdatedAt:  m.Metadata.UpdatedAt,
		AssetCount: m.AssetCount(),
	}
}

// MemoryUpdate carries a partial update merged into a Memory's metadata by
// CapsuleStore.MemoriesUpdate. Nil fields are left unchanged.
type MemoryUpdate struct {
	Title          *string
	Description    *string
	Tags           []string
	DateOfMemory   *time.Time
	ParentFolderID *string
	Location       *string
	MemoryNotes    *string
	Access         MemoryAccess
}
