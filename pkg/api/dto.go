package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/merrors"
	"github.com/memvault/memvault/pkg/memvault/model"
)

// assetDataWire is the API-layer {kind, data} envelope for model.AssetData.
// Unlike PersonRef/AssetMetadata/MemoryAccess, AssetData has no codec in
// pkg/memvault/model because CapsuleStore never persists it directly — it
// is consumed once by MemoriesCreate and turned into one of the three
// MemoryAsset* variants. The envelope lives here instead, scoped to the
// HTTP boundary that actually receives it from callers.
type assetDataWire struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type assetDataInlineWire struct {
	Bytes []byte `json:"bytes"`
}

type assetDataExternalWire struct {
	Location model.StorageEdgeBlobType `json:"location"`
	StorageKey string                  `json:"storage_key"`
	URL        *string                 `json:"url,omitempty"`
	Size       uint64                  `json:"size"`
	Hash       *string                 `json:"hash,omitempty"`
}

// assetDataAsInline and assetDataAsBlobRef narrow AssetData to the two
// variants MemoriesAddAsset/MemoriesAddInlineAsset accept; AssetDataExternal
// has no AddAsset-style entry point since external assets are recorded
// directly via AssetData passed to MemoriesCreate.
func assetDataAsInline(d model.AssetData) ([]byte, bool) {
	v, ok := d.(model.AssetDataInline)
	if !ok {
		return nil, false
	}
	return v.Bytes, true
}

func assetDataAsBlobRef(d model.AssetData) (model.BlobRef, bool) {
	v, ok := d.(model.AssetDataBlobRef)
	if !ok {
		return model.BlobRef{}, false
	}
	return v.BlobRef, true
}

func decodeAssetData(raw json.RawMessage) (model.AssetData, error) {
	var w assetDataWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, merrors.InvalidArgumentf("invalid asset data: %v", err)
	}
	switch w.Kind {
	case "inline":
		var v assetDataInlineWire
		if err := json.Unmarshal(w.Data, &v); err != nil {
			return nil, merrors.InvalidArgumentf("invalid inline asset data: %v", err)
		}
		return model.AssetDataInline{Bytes: v.Bytes}, nil
	case "external":
		var v assetDataExternalWire
		if err := json.Unmarshal(w.Data, &v); err != nil {
			return nil, merrors.InvalidArgumentf("invalid external asset data: %v", err)
		}
		return model.AssetDataExternal{
			Location:   v.Location,
			StorageKey: v.StorageKey,
			URL:        v.URL,
			Size:       v.Size,
			Hash:       v.Hash,
		}, nil
	default:
		return nil, merrors.InvalidArgumentf("unsupported asset data kind %q", w.Kind)
	}
}

// capsuleResponse is the listing/detail projection of model.Capsule
// returned to API callers. It deliberately omits the owner/controller/
// connection maps and per-memory payloads — those are reached through
// their own endpoints.
type capsuleResponse struct {
	ID              ids.CapsuleId `json:"id"`
	Subject         json.RawMessage `json:"subject"`
	NumMemories     int           `json:"num_memories"`
	InlineBytesUsed uint64        `json:"inline_bytes_used"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func newCapsuleResponse(c *model.Capsule) (*capsuleResponse, error) {
	subject, err := model.MarshalPersonRef(c.Subject)
	if err != nil {
		return nil, err
	}
	return &capsuleResponse{
		ID:              c.ID,
		Subject:         subject,
		NumMemories:     len(c.Memories),
		InlineBytesUsed: c.InlineBytesUsed,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}, nil
}

type capsuleHeaderResponse struct {
	ID          ids.CapsuleId   `json:"id"`
	Subject     json.RawMessage `json:"subject"`
	NumMemories int             `json:"num_memories"`
}

// memoryResponse is the API projection of a model.Memory, re-tagging each
// asset's metadata through model.MarshalAssetMetadata so callers see the
// same {kind, data} envelope CapsuleStore persists internally.
type memoryResponse struct {
	ID       ids.MemoryId    `json:"id"`
	Metadata json.RawMessage `json:"metadata"`
	Access   json.RawMessage `json:"access"`

	InlineAssets       []assetResponse `json:"inline_assets,omitempty"`
	BlobInternalAssets []assetResponse `json:"blob_internal_assets,omitempty"`
	BlobExternalAssets []assetResponse `json:"blob_external_assets,omitempty"`
}

type assetResponse struct {
	Bytes      []byte                    `json:"bytes,omitempty"`
	BlobRef    *model.BlobRef            `json:"blob_ref,omitempty"`
	Location   model.StorageEdgeBlobType `json:"location,omitempty"`
	StorageKey string                    `json:"storage_key,omitempty"`
	URL        *string                   `json:"url,omitempty"`
	Metadata   json.RawMessage           `json:"metadata"`
}

type memoryMetadataWire struct {
	MemoryType  model.MemoryType `json:"memory_type"`
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	ContentType string           `json:"content_type"`
	Tags        []string         `json:"tags,omitempty"`
}

func newMemoryResponse(m *model.Memory) (*memoryResponse, error) {
	metaBytes, err := json.Marshal(memoryMetadataWire{
		MemoryType:  m.Metadata.MemoryType,
		Title:       m.Metadata.Title,
		Description: m.Metadata.Description,
		ContentType: m.Metadata.ContentType,
		Tags:        m.Metadata.Tags,
	})
	if err != nil {
		return nil, err
	}
	access, err := model.MarshalMemoryAccess(m.Access)
	if err != nil {
		return nil, err
	}

	resp := &memoryResponse{ID: m.ID, Metadata: metaBytes, Access: access}

	for _, a := range m.InlineAssets {
		meta, err := model.MarshalAssetMetadata(a.Metadata)
		if err != nil {
			return nil, err
		}
		resp.InlineAssets = append(resp.InlineAssets, assetResponse{Bytes: a.Bytes, Metadata: meta})
	}
	for _, a := range m.BlobInternalAssets {
		meta, err := model.MarshalAssetMetadata(a.Metadata)
		if err != nil {
			return nil, err
		}
		ref := a.BlobRef
		resp.BlobInternalAssets = append(resp.BlobInternalAssets, assetResponse{BlobRef: &ref, Metadata: meta})
	}
	for _, a := range m.BlobExternalAssets {
		meta, err := model.MarshalAssetMetadata(a.Metadata)
		if err != nil {
			return nil, err
		}
		resp.BlobExternalAssets = append(resp.BlobExternalAssets, assetResponse{
			Location:   a.Location,
			StorageKey: a.StorageKey,
			URL:        a.URL,
			Metadata:   meta,
		})
	}
	return resp, nil
}

func newMemoryHeaderResponse(h model.MemoryHeader) memoryHeaderResponse {
	return memoryHeaderResponse{
		ID:         h.ID,
		MemoryType: h.MemoryType,
		Title:      h.Title,
		CreatedAt:  h.CreatedAt,
		UpdatedAt:  h.UpdatedAt,
		AssetCount: h.AssetCount,
	}
}

type memoryHeaderResponse struct {
	ID         ids.MemoryId     `json:"id"`
	MemoryType model.MemoryType `json:"memory_type"`
	Title      *string          `json:"title,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	AssetCount int              `json:"asset_count"`
}

// createMemoryRequest is the POST /v1/capsules/{id}/memories request body.
type createMemoryRequest struct {
	Data           json.RawMessage `json:"data"`
	MemoryMetadata memoryMetadataWire `json:"metadata"`
	Access         json.RawMessage `json:"access"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// metadataFromWire builds the AssetMetadata variant matching w.MemoryType.
// Shared by createMemoryRequest.decode and uploadsBegin, since a chunked
// upload's session metadata is the same shape as an inline memory's.
func metadataFromWire(w memoryMetadataWire) (model.AssetMetadata, error) {
	name := w.ContentType
	if w.Title != nil && *w.Title != "" {
		name = *w.Title
	}
	now := time.Now()
	base := model.AssetMetadataBase{
		Name:        name,
		MimeType:    w.ContentType,
		Tags:        w.Tags,
		Description: w.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	switch w.MemoryType {
	case model.MemoryTypeImage:
		return model.ImageMetadata{AssetMetadataBase: base}, nil
	case model.MemoryTypeVideo:
		return model.VideoMetadata{AssetMetadataBase: base}, nil
	case model.MemoryTypeAudio:
		return model.AudioMetadata{AssetMetadataBase: base}, nil
	case model.MemoryTypeDocument:
		return model.DocumentMetadata{AssetMetadataBase: base}, nil
	case model.MemoryTypeNote, "":
		return model.NoteMetadata{AssetMetadataBase: base}, nil
	default:
		return nil, merrors.InvalidArgumentf("unsupported memory_type %q", w.MemoryType)
	}
}

func (req createMemoryRequest) decode() (model.AssetData, model.AssetMetadata, model.MemoryAccess, error) {
	data, err := decodeAssetData(req.Data)
	if err != nil {
		return nil, nil, nil, err
	}

	meta, err := metadataFromWire(req.MemoryMetadata)
	if err != nil {
		return nil, nil, nil, err
	}

	var access model.MemoryAccess = model.AccessPrivate{}
	if len(req.Access) > 0 {
		access, err = model.UnmarshalMemoryAccess(req.Access)
		if err != nil {
			return nil, nil, nil, merrors.InvalidArgumentf("invalid access: %v", err)
		}
	}

	return data, meta, access, nil
}

type updateMemoryRequest struct {
	Title          *string         `json:"title,omitempty"`
	Description    *string         `json:"description,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	Location       *string         `json:"location,omitempty"`
	MemoryNotes    *string         `json:"memory_notes,omitempty"`
	Access         json.RawMessage `json:"access,omitempty"`
}

func (req updateMemoryRequest) toModel() (model.MemoryUpdate, error) {
	upd := model.MemoryUpdate{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Location:    req.Location,
		MemoryNotes: req.MemoryNotes,
	}
	if len(req.Access) > 0 {
		access, err := model.UnmarshalMemoryAccess(req.Access)
		if err != nil {
			return upd, fmt.Errorf("invalid access: %w", err)
		}
		upd.Access = access
	}
	return upd, nil
}
