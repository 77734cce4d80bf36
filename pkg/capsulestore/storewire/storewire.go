// Package storewire gives Capsule and Memory a JSON wire encoding, shared
// by the badgerstore and pgstore backends. Neither BadgerDB nor pgstore's
// data column can marshal an interface field on its own, so this package
// splits domain types from their on-disk encoding, generalized to memvault's
// tagged-union fields (PersonRef, AssetMetadata, MemoryAccess).
package storewire

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/model"
)

func encodePersonRef(p model.PersonRef) (json.RawMessage, error) {
	if p == nil {
		return nil, nil
	}
	return model.MarshalPersonRef(p)
}

func decodePersonRef(raw json.RawMessage) (model.PersonRef, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return model.UnmarshalPersonRef(raw)
}

type ownerEntryWire struct {
	Ref   json.RawMessage `json:"ref"`
	State model.OwnerState `json:"state"`
}

type controllerEntryWire struct {
	Ref   json.RawMessage      `json:"ref"`
	State model.ControllerState `json:"state"`
}

type connectionEntryWire struct {
	Ref   json.RawMessage    `json:"ref"`
	State model.Connection   `json:"state"`
}

// WireCapsule is the on-disk form of model.Capsule.
type WireCapsule struct {
	ID      ids.CapsuleId   `json:"id"`
	Subject json.RawMessage `json:"subject"`

	Owners      map[string]ownerEntryWire      `json:"owners"`
	Controllers map[string]controllerEntryWire `json:"controllers"`
	Connections map[string]connectionEntryWire `json:"connections"`

	Memories  map[ids.MemoryId]WireMemory `json:"memories"`
	Galleries map[ids.GalleryId]*model.Gallery `json:"galleries"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	InlineBytesUsed uint64 `json:"inline_bytes_used"`
	BoundToNeon     bool   `json:"bound_to_neon"`
}

// WireMemoryMetadata is the on-disk form of model.MemoryMetadata.
type WireMemoryMetadata struct {
	MemoryType  model.MemoryType `json:"memory_type"`
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	ContentType string           `json:"content_type"`

	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	UploadedAt time.Time `json:"uploaded_at"`

	DateOfMemory   *time.Time `json:"date_of_memory,omitempty"`
	FileCreatedAt  *time.Time `json:"file_created_at,omitempty"`
	ParentFolderID *string    `json:"parent_folder_id,omitempty"`

	Tags      []string   `json:"tags,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	PeopleInMemory []string        `json:"people_in_memory,omitempty"`
	Location       *string         `json:"location,omitempty"`
	MemoryNotes    *string         `json:"memory_notes,omitempty"`
	CreatedBy      json.RawMessage `json:"created_by,omitempty"`

	DatabaseStorageEdges []model.StorageEdgeDatabaseType `json:"database_storage_edges,omitempty"`
}

// WireAsset is the on-disk form shared by the three MemoryAsset* variants.
type WireAsset struct {
	Bytes      []byte                    `json:"bytes,omitempty"`
	BlobRef    *model.BlobRef            `json:"blob_ref,omitempty"`
	Location   model.StorageEdgeBlobType `json:"location,omitempty"`
	StorageKey string                    `json:"storage_key,omitempty"`
	URL        *string                   `json:"url,omitempty"`
	Metadata   json.RawMessage           `json:"metadata"`
}

// WireMemory is the on-disk form of model.Memory.
type WireMemory struct {
	ID       ids.MemoryId       `json:"id"`
	Metadata WireMemoryMetadata `json:"metadata"`
	Access   json.RawMessage    `json:"access"`

	InlineAssets       []WireAsset `json:"inline_assets,omitempty"`
	BlobInternalAssets []WireAsset `json:"blob_internal_assets,omitempty"`
	BlobExternalAssets []WireAsset `json:"blob_external_assets,omitempty"`
}

// EncodeCapsule converts a domain Capsule into its wire form.
func EncodeCapsule(c *model.Capsule) (*WireCapsule, error) {
	subject, err := encodePersonRef(c.Subject)
	if err != nil {
		return nil, err
	}

	w := &WireCapsule{
		ID:              c.ID,
		Subject:         subject,
		Owners:          map[string]ownerEntryWire{},
		Controllers:     map[string]controllerEntryWire{},
		Connections:     map[string]connectionEntryWire{},
		Memories:        map[ids.MemoryId]WireMemory{},
		Galleries:       c.Galleries,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		InlineBytesUsed: c.InlineBytesUsed,
		BoundToNeon:     c.BoundToNeon,
	}

	for k, ref := range c.OwnersRaw() {
		b, err := encodePersonRef(ref.Ref)
		if err != nil {
			return nil, err
		}
		w.Owners[k] = ownerEntryWire{Ref: b, State: ref.State}
	}
	for k, ref := range c.ControllersRaw() {
		b, err := encodePersonRef(ref.Ref)
		if err != nil {
			return nil, err
		}
		w.Controllers[k] = controllerEntryWire{Ref: b, State: ref.State}
	}
	for k, ref := range c.ConnectionsRaw() {
		b, err := encodePersonRef(ref.Ref)
		if err != nil {
			return nil, err
		}
		w.Connections[k] = connectionEntryWire{Ref: b, State: ref.State}
	}

	for id, m := range c.Memories {
		wm, err := EncodeMemory(m)
		if err != nil {
			return nil, err
		}
		w.Memories[id] = *wm
	}

	return w, nil
}

// DecodeCapsule converts a wire Capsule back into its domain form.
func DecodeCapsule(w *WireCapsule) (*model.Capsule, error) {
	subject, err := decodePersonRef(w.Subject)
	if err != nil {
		return nil, err
	}

	c := model.NewCapsuleEmpty(w.ID, subject, w.CreatedAt, w.UpdatedAt)
	c.InlineBytesUsed = w.InlineBytesUsed
	c.BoundToNeon = w.BoundToNeon
	c.Galleries = w.Galleries
	if c.Galleries == nil {
		c.Galleries = map[ids.GalleryId]*model.Gallery{}
	}

	for k, e := range w.Owners {
		ref, err := decodePersonRef(e.Ref)
		if err != nil {
			return nil, err
		}
		c.SetOwnerRaw(k, ref, e.State)
	}
	for k, e := range w.Controllers {
		ref, err := decodePersonRef(e.Ref)
		if err != nil {
			return nil, err
		}
		c.SetControllerRaw(k, ref, e.State)
	}
	for k, e := range w.Connections {
		ref, err := decodePersonRef(e.Ref)
		if err != nil {
			return nil, err
		}
		c.SetConnectionRaw(k, ref, e.State)
	}

	c.Memories = map[ids.MemoryId]*model.Memory{}
	for id, wm := range w.Memories {
		wmCopy := wm
		m, err := DecodeMemory(&wmCopy)
		if err != nil {
			return nil, err
		}
		c.Memories[id] = m
	}

	return c, nil
}

// EncodeMemory converts a domain Memory into its wire form.
func EncodeMemory(m *model.Memory) (*WireMemory, error) {
	access, err := model.MarshalMemoryAccess(m.Access)
	if err != nil {
		return nil, err
	}

	var createdBy json.RawMessage
	if m.Metadata.CreatedBy != nil {
		createdBy, err = encodePersonRef(*m.Metadata.CreatedBy)
		if err != nil {
			return nil, err
		}
	}

	w := &WireMemory{
		ID: m.ID,
		Metadata: WireMemoryMetadata{
			MemoryType:           m.Metadata.MemoryType,
			Title:                m.Metadata.Title,
			Description:          m.Metadata.Description,
			ContentType:          m.Metadata.ContentType,
			CreatedAt:            m.Metadata.CreatedAt,
			UpdatedAt:            m.Metadata.UpdatedAt,
			UploadedAt:           m.Metadata.UploadedAt,
			DateOfMemory:         m.Metadata.DateOfMemory,
			FileCreatedAt:        m.Metadata.FileCreatedAt,
			ParentFolderID:       m.Metadata.ParentFolderID,
			Tags:                 m.Metadata.Tags,
			DeletedAt:            m.Metadata.DeletedAt,
			PeopleInMemory:       m.Metadata.PeopleInMemory,
			Location:             m.Metadata.Location,
			MemoryNotes:          m.Metadata.MemoryNotes,
			CreatedBy:            createdBy,
			DatabaseStorageEdges: m.Metadata.DatabaseStorageEdges,
		},
		Access: access,
	}

	for _, a := range m.InlineAssets {
		meta, err := model.MarshalAssetMetadata(a.Metadata)
		if err != nil {
			return nil, err
		}
		w.InlineAssets = append(w.InlineAssets, WireAsset{Bytes: a.Bytes, Metadata: meta})
	}
	for _, a := range m.BlobInternalAssets {
		meta, err := model.MarshalAssetMetadata(a.Metadata)
		if err != nil {
			return nil, err
		}
		ref := a.BlobRef
		w.BlobInternalAssets = append(w.BlobInternalAssets, WireAsset{BlobRef: &ref, Metadata: meta})
	}
	for _, a := range m.BlobExternalAssets {
		meta, err := model.MarshalAssetMetadata(a.Metadata)
		if err != nil {
			return nil, err
		}
		w.BlobExternalAssets = append(w.BlobExternalAssets, WireAsset{
			Location:   a.Location,
			StorageKey: a.StorageKey,
			URL:        a.URL,
			Metadata:   meta,
		})
	}

	return w, nil
}

// DecodeMemory converts a wire Memory back into its domain form.
func DecodeMemory(w *WireMemory) (*model.Memory, error) {
	access, err := model.UnmarshalMemoryAccess(w.Access)
	if err != nil {
		return nil, err
	}

	var createdBy *model.PersonRef
	if len(w.Metadata.CreatedBy) > 0 {
		ref, err := decodePersonRef(w.Metadata.CreatedBy)
		if err != nil {
			return nil, err
		}
		createdBy = &ref
	}

	m := &model.Memory{
		ID: w.ID,
		Metadata: model.MemoryMetadata{
			MemoryType:           w.Metadata.MemoryType,
			Title:                w.Metadata.Title,
			Description:          w.Metadata.Description,
			ContentType:          w.Metadata.ContentType,
			CreatedAt:            w.Metadata.CreatedAt,
			UpdatedAt:            w.Metadata.UpdatedAt,
			UploadedAt:           w.Metadata.UploadedAt,
			DateOfMemory:         w.Metadata.DateOfMemory,
			FileCreatedAt:        w.Metadata.FileCreatedAt,
			ParentFolderID:       w.Metadata.ParentFolderID,
			Tags:                 w.Metadata.Tags,
			DeletedAt:            w.Metadata.DeletedAt,
			PeopleInMemory:       w.Metadata.PeopleInMemory,
			Location:             w.Metadata.Location,
			MemoryNotes:          w.Metadata.MemoryNotes,
			CreatedBy:            createdBy,
			DatabaseStorageEdges: w.Metadata.DatabaseStorageEdges,
		},
		Access: access,
	}

	for _, a := range w.InlineAssets {
		meta, err := model.UnmarshalAssetMetadata(a.Metadata)
		if err != nil {
			return nil, err
		}
		m.InlineAssets = append(m.InlineAssets, model.MemoryAssetInline{Bytes: a.Bytes, Metadata: meta})
	}
	for _, a := range w.BlobInternalAssets {
		meta, err := model.UnmarshalAssetMetadata(a.Metadata)
		if err != nil {
			return nil, err
		}
		if a.BlobRef == nil {
			return nil, fmt.Errorf("storewire: blob internal asset missing blob_ref")
		}
		m.BlobInternalAssets = append(m.BlobInternalAssets, model.MemoryAssetBlobInternal{BlobRef: *a.BlobRef, Metadata: meta})
	}
	for _, a := range w.BlobExternalAssets {
		meta, err := model.UnmarshalAssetMetadata(a.Metadata)
		if err != nil {
			return nil, err
		}
		m.BlobExternalAssets = append(m.BlobExternalAssets, model.MemoryAssetBlobExternal{
			Location:   a.Location,
			StorageKey: a.StorageKey,
			URL:        a.URL,
			Metadata:   meta,
		})
	}

	return m, nil
}
