package storewire

import (
	"strings"
	"testing"
	"time"

	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/model"
)

func strPtr(s string) *string { return &s }

func sampleMemory(id ids.MemoryId) *model.Memory {
	now := time.Now().UTC().Truncate(time.Second)
	createdBy := model.PersonRef(model.Opaque{Ref: "creator-1"})

	return &model.Memory{
		ID: id,
		Metadata: model.MemoryMetadata{
			MemoryType:  model.MemoryTypeImage,
			Title:       strPtr("Beach day"),
			ContentType: "image/jpeg",
			CreatedAt:   now,
			UpdatedAt:   now,
			UploadedAt:  now,
			Tags:        []string{"summer", "family"},
			CreatedBy:   &createdBy,
		},
		Access: model.AccessPrivate{OwnerSecureCode: "secret-code"},
		InlineAssets: []model.MemoryAssetInline{
			{
				Bytes: []byte("thumb-bytes"),
				Metadata: model.NoteMetadata{
					AssetMetadataBase: model.AssetMetadataBase{
						Name:      "thumb.txt",
						AssetType: model.AssetTypeThumbnail,
						Bytes:     11,
						MimeType:  "text/plain",
					},
				},
			},
		},
		BlobInternalAssets: []model.MemoryAssetBlobInternal{
			{
				BlobRef: model.NewBlobRef(ids.BlobId(1), "deadbeef", 4096),
				Metadata: model.ImageMetadata{
					AssetMetadataBase: model.AssetMetadataBase{
						Name:      "photo.jpg",
						AssetType: model.AssetTypeOriginal,
						Bytes:     4096,
						MimeType:  "image/jpeg",
					},
				},
			},
		},
		BlobExternalAssets: []model.MemoryAssetBlobExternal{
			{
				Location:   model.StorageEdgeBlobS3,
				StorageKey: "bucket/key",
				URL:        strPtr("https://example.com/key"),
				Metadata: model.DocumentMetadata{
					AssetMetadataBase: model.AssetMetadataBase{
						Name:      "manual.pdf",
						AssetType: model.AssetTypeOriginal,
						Bytes:     2048,
						MimeType:  "application/pdf",
					},
				},
			},
		},
	}
}

func TestEncodeDecodeMemoryRoundTrips(t *testing.T) {
	orig := sampleMemory(ids.MemoryId("mem-1"))

	wire, err := EncodeMemory(orig)
	if err != nil {
		t.Fatalf("EncodeMemory() error = %v", err)
	}

	got, err := DecodeMemory(wire)
	if err != nil {
		t.Fatalf("DecodeMemory() error = %v", err)
	}

	if got.ID != orig.ID {
		t.Errorf("ID = %v, want %v", got.ID, orig.ID)
	}
	if *got.Metadata.Title != *orig.Metadata.Title {
		t.Errorf("Title = %v, want %v", *got.Metadata.Title, *orig.Metadata.Title)
	}
	if got.Metadata.CreatedBy == nil || !model.SamePersonRef(*got.Metadata.CreatedBy, *orig.Metadata.CreatedBy) {
		t.Errorf("CreatedBy round trip mismatch: got %v, want %v", got.Metadata.CreatedBy, orig.Metadata.CreatedBy)
	}

	if _, ok := got.Access.(model.AccessPrivate); !ok {
		t.Errorf("Access = %T, want model.AccessPrivate", got.Access)
	}
	if got.Access.SecureCode() != orig.Access.SecureCode() {
		t.Errorf("Access.SecureCode() = %q, want %q", got.Access.SecureCode(), orig.Access.SecureCode())
	}

	if len(got.InlineAssets) != 1 || string(got.InlineAssets[0].Bytes) != "thumb-bytes" {
		t.Errorf("InlineAssets round trip mismatch: %+v", got.InlineAssets)
	}
	if _, ok := got.InlineAssets[0].Metadata.(model.NoteMetadata); !ok {
		t.Errorf("InlineAssets[0].Metadata = %T, want model.NoteMetadata", got.InlineAssets[0].Metadata)
	}

	if len(got.BlobInternalAssets) != 1 || got.BlobInternalAssets[0].BlobRef.Locator != orig.BlobInternalAssets[0].BlobRef.Locator {
		t.Errorf("BlobInternalAssets round trip mismatch: %+v", got.BlobInternalAssets)
	}
	if _, ok := got.BlobInternalAssets[0].Metadata.(model.ImageMetadata); !ok {
		t.Errorf("BlobInternalAssets[0].Metadata = %T, want model.ImageMetadata", got.BlobInternalAssets[0].Metadata)
	}

	if len(got.BlobExternalAssets) != 1 || got.BlobExternalAssets[0].StorageKey != "bucket/key" {
		t.Errorf("BlobExternalAssets round trip mismatch: %+v", got.BlobExternalAssets)
	}
	if got.BlobExternalAssets[0].Location != model.StorageEdgeBlobS3 {
		t.Errorf("BlobExternalAssets[0].Location = %v, want %v", got.BlobExternalAssets[0].Location, model.StorageEdgeBlobS3)
	}
}

func TestDecodeMemoryRejectsMissingBlobRef(t *testing.T) {
	wire := &WireMemory{
		ID:     ids.MemoryId("mem-2"),
		Access: mustMarshalAccess(t, model.AccessPrivate{OwnerSecureCode: "x"}),
		BlobInternalAssets: []WireAsset{
			{
				BlobRef:  nil,
				Metadata: mustMarshalMetadata(t, model.NoteMetadata{}),
			},
		},
	}

	_, err := DecodeMemory(wire)
	if err == nil || !strings.Contains(err.Error(), "blob_ref") {
		t.Fatalf("DecodeMemory() error = %v, want error mentioning blob_ref", err)
	}
}

func TestEncodeDecodeMemoryNilCreatedBy(t *testing.T) {
	orig := sampleMemory(ids.MemoryId("mem-3"))
	orig.Metadata.CreatedBy = nil

	wire, err := EncodeMemory(orig)
	if err != nil {
		t.Fatalf("EncodeMemory() error = %v", err)
	}
	if len(wire.Metadata.CreatedBy) != 0 {
		t.Errorf("wire CreatedBy = %q, want empty", wire.Metadata.CreatedBy)
	}

	got, err := DecodeMemory(wire)
	if err != nil {
		t.Fatalf("DecodeMemory() error = %v", err)
	}
	if got.Metadata.CreatedBy != nil {
		t.Errorf("CreatedBy = %v, want nil", got.Metadata.CreatedBy)
	}
}

func TestEncodeDecodeCapsuleRoundTrips(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	subject := model.PersonRef(model.Opaque{Ref: "subject-1"})
	owner := model.PersonRef(model.Opaque{Ref: "owner-1"})
	controller := model.PersonRef(model.Principal{Bytes: []byte{0x01, 0x02, 0x03}})
	connection := model.PersonRef(model.Opaque{Ref: "friend-1"})

	c := model.NewCapsule(ids.CapsuleId("cap-1"), subject, owner, now)
	c.SetControllerRaw(controller.Key(), controller, model.ControllerState{GrantedAt: now})
	c.SetConnectionRaw(connection.Key(), connection, model.Connection{GrantedAt: now, Note: "old friend"})
	c.Galleries[ids.GalleryId("gal-1")] = &model.Gallery{
		ID:        ids.GalleryId("gal-1"),
		Name:      "Summer",
		MemoryIDs: []ids.MemoryId{"mem-1"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	mem := sampleMemory(ids.MemoryId("mem-1"))
	c.Memories[mem.ID] = mem

	wire, err := EncodeCapsule(c)
	if err != nil {
		t.Fatalf("EncodeCapsule() error = %v", err)
	}

	got, err := DecodeCapsule(wire)
	if err != nil {
		t.Fatalf("DecodeCapsule() error = %v", err)
	}

	if got.ID != c.ID {
		t.Errorf("ID = %v, want %v", got.ID, c.ID)
	}
	if !model.SamePersonRef(got.Subject, c.Subject) {
		t.Errorf("Subject = %v, want %v", got.Subject, c.Subject)
	}
	if !got.IsOwner(owner) {
		t.Errorf("IsOwner(owner) = false, want true")
	}
	if !got.IsController(controller) {
		t.Errorf("IsController(controller) = false, want true")
	}
	if _, ok := got.ConnectionsRaw()[connection.Key()]; !ok {
		t.Errorf("Connections missing entry for %v", connection.Key())
	}
	if gal, ok := got.Galleries[ids.GalleryId("gal-1")]; !ok || gal.Name != "Summer" {
		t.Errorf("Galleries round trip mismatch: %+v", got.Galleries)
	}
	if len(got.Memories) != 1 {
		t.Fatalf("Memories len = %d, want 1", len(got.Memories))
	}
	if gotMem := got.Memories[ids.MemoryId("mem-1")]; gotMem == nil || *gotMem.Metadata.Title != "Beach day" {
		t.Errorf("nested memory round trip mismatch: %+v", gotMem)
	}
}

func TestDecodeCapsuleDefaultsNilGalleries(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	wire := &WireCapsule{
		ID:          ids.CapsuleId("cap-2"),
		Owners:      map[string]ownerEntryWire{},
		Controllers: map[string]controllerEntryWire{},
		Connections: map[string]connectionEntryWire{},
		Memories:    map[ids.MemoryId]WireMemory{},
		Galleries:   nil,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	got, err := DecodeCapsule(wire)
	if err != nil {
		t.Fatalf("DecodeCapsule() error = %v", err)
	}
	if got.Galleries == nil {
		t.Errorf("Galleries = nil, want non-nil empty map")
	}
}

func mustMarshalAccess(t *testing.T, a model.MemoryAccess) []byte {
	t.Helper()
	b, err := model.MarshalMemoryAccess(a)
	if err != nil {
		t.Fatalf("MarshalMemoryAccess() error = %v", err)
	}
	return b
}

func mustMarshalMetadata(t *testing.T, m model.AssetMetadata) []byte {
	t.Helper()
	b, err := model.MarshalAssetMetadata(m)
	if err != nil {
		t.Fatalf("MarshalAssetMetadata() error = %v", err)
	}
	return b
}
