package model

import "time"

// AssetType tags the role an asset plays within a memory.
type AssetType string

const (
	AssetTypeOriginal    AssetType = "original"
	AssetTypeDisplay     AssetType = "display"
	AssetTypeThumbnail   AssetType = "thumbnail"
	AssetTypePlaceholder AssetType = "placeholder"
	AssetTypeDerivative  AssetType = "derivative"
	AssetTypeMetadata    AssetType = "metadata"
)

// ProcessingStatus tags the state of any asynchronous derivative processing
// performed by an external collaborator (rendering is out of scope; the
// engine only records the status an external process reports).
type ProcessingStatus string

const (
	ProcessingStatusNone      ProcessingStatus = ""
	ProcessingStatusPending   ProcessingStatus = "pending"
	ProcessingStatusComplete  ProcessingStatus = "complete"
	ProcessingStatusFailed    ProcessingStatus = "failed"
)

// AssetLocation optionally qualifies where external asset_location context
// (e.g. a CDN zone) applies. Free-form by design; the engine does not
// interpret it.
type AssetLocation string

// AssetMetadataBase carries the fields common to every AssetMetadata
// variant.
type AssetMetadataBase struct {
	Name        string
	Description *string
	Tags        []string
	AssetType   AssetType
	Bytes       uint64
	MimeType    string
	SHA256      *string
	Width       *uint32
	Height      *uint32
	URL         *string
	StorageKey  *string
	Bucket      *string
	AssetLocation   *AssetLocation
	ProcessingStatus *ProcessingStatus
	ProcessingError  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// AssetMetadata is a tagged union over {Image, Video, Audio, Document,
// Note}, each wrapping an AssetMetadataBase plus type-specific extensions.
// Modeled as an interface with unexported marker methods so a switch over
// the concrete type is exhaustiveness-checked by the compiler, never by a
// runtime "exactly one of N populated fields" counter.
type AssetMetadata interface {
	isAssetMetadata()
	Base() AssetMetadataBase
	Kind() MemoryType
}

// ImageMetadata is the Image variant of AssetMetadata.
type ImageMetadata struct {
	AssetMetadataBase
}

func (ImageMetadata) isAssetMetadata()         {}
func (m ImageMetadata) Base() AssetMetadataBase { return m.AssetMetadataBase }
func (ImageMetadata) Kind() MemoryType          { return MemoryTypeImage }

// VideoMetadata is the Video variant of AssetMetadata.
type VideoMetadata struct {
	AssetMetadataBase
	DurationSeconds *float64
	FrameRate       *float64
}

func (VideoMetadata) isAssetMetadata()         {}
func (m VideoMetadata) Base() AssetMetadataBase { return m.AssetMetadataBase }
func (VideoMetadata) Kind() MemoryType          { return MemoryTypeVideo }

// AudioMetadata is the Audio variant of AssetMetadata.
type AudioMetadata struct {
	AssetMetadataBase
	DurationSeconds *float64
	Bitrate         *uint32
}

func (AudioMetadata) isAssetMetadata()         {}
func (m AudioMetadata) Base() AssetMetadataBase { return m.AssetMetadataBase }
func (AudioMetadata) Kind() MemoryType          { return MemoryTypeAudio }

// DocumentMetadata is the Document variant of AssetMetadata.
type DocumentMetadata struct {
	AssetMetadataBase
	PageCount *uint32
}

func (DocumentMetadata) isAssetMetadata()         {}
func (m DocumentMetadata) Base() AssetMetadataBase { return m.AssetMetadataBase }
func (DocumentMetadata) Kind() MemoryType          { return MemoryTypeDocument }

// NoteMetadata is the Note variant of AssetMetadata; notes have no binary
// extension fields beyond the common base.
type NoteMetadata struct {
	AssetMetadataBase
}

func (NoteMetadata) isAssetMetadata()         {}
func (m NoteMetadata) Base() AssetMetadataBase { return m.AssetMetadataBase }
func (NoteMetadata) Kind() MemoryType          { return MemoryTypeNote }
