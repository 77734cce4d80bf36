package model

// AssetData is the tagged union CapsuleStore.MemoriesCreate accepts,
// enforcing exactly-one-asset-type at the type level. This replaces the
// source's runtime "exactly one of N optional fields populated" validation
// entirely: a caller can only construct one concrete variant at a time.
type AssetData interface {
	isAssetData()
}

// AssetDataInline carries bytes to be stored directly in the catalog.
type AssetDataInline struct {
	Bytes []byte
}

func (AssetDataInline) isAssetData() {}

// AssetDataBlobRef carries a reference to an already-finalized internal
// blob (used by UploadService.uploads_finish after a chunked upload
// completes).
type AssetDataBlobRef struct {
	BlobRef BlobRef
}

func (AssetDataBlobRef) isAssetData() {}

// AssetDataExternal carries a reference to bytes held by an external
// storage collaborator.
type AssetDataExternal struct {
	Location StorageEdgeBlobType
	StorageKey string
	URL        *string
	Size       uint64
	Hash       *string
}

func (AssetDataExternal) isAssetData() {}
