//go:build integration

package badgerstore

import (
	"context"
	"path/filepath"
	"testing"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/memvault/memvault/pkg/memvault/merrors"
	"github.com/memvault/memvault/pkg/memvault/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "badgerstore.db")
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("badger.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, 1<<20)
}

func noteMetadata(name string, size int) model.AssetMetadata {
	return model.NoteMetadata{AssetMetadataBase: model.AssetMetadataBase{
		Name:      name,
		AssetType: model.AssetTypeOriginal,
		Bytes:     uint64(size),
		MimeType:  "text/plain",
	}}
}

func TestCapsulesCreateIsIdempotentBySubject(t *testing.T) {
	s := openTestStore(t)
	owner := model.Opaque{Ref: "alice"}

	c1, err := s.CapsulesCreate(context.Background(), owner, owner)
	if err != nil {
		t.Fatalf("CapsulesCreate() error = %v", err)
	}
	c2, err := s.CapsulesCreate(context.Background(), owner, owner)
	if err != nil {
		t.Fatalf("CapsulesCreate() second call error = %v", err)
	}
	if c1.ID != c2.ID {
		t.Errorf("CapsulesCreate() returned different ids for the same subject: %v != %v", c1.ID, c2.ID)
	}
}

func TestCapsulesReadBasicDeniesNonWriterNonMember(t *testing.T) {
	s := openTestStore(t)
	owner := model.Opaque{Ref: "alice"}
	stranger := model.Opaque{Ref: "mallory"}

	c, err := s.CapsulesCreate(context.Background(), owner, owner)
	if err != nil {
		t.Fatalf("CapsulesCreate() error = %v", err)
	}

	if _, err := s.CapsulesReadBasic(context.Background(), stranger, &c.ID); !merrors.Is(err, merrors.KindNotFound) {
		t.Errorf("CapsulesReadBasic() error = %v, want NotFound", err)
	}
}

func TestCapsulesDeleteRequiresOwnership(t *testing.T) {
	s := openTestStore(t)
	owner := model.Opaque{Ref: "alice"}
	stranger := model.Opaque{Ref: "mallory"}

	c, err := s.CapsulesCreate(context.Background(), owner, owner)
	if err != nil {
		t.Fatalf("CapsulesCreate() error = %v", err)
	}

	if err := s.CapsulesDelete(context.Background(), stranger, c.ID, nil); !merrors.Is(err, merrors.KindUnauthorized) {
		t.Errorf("CapsulesDelete() by stranger error = %v, want Unauthorized", err)
	}
	if err := s.CapsulesDelete(context.Background(), owner, c.ID, nil); err != nil {
		t.Fatalf("CapsulesDelete() by owner error = %v", err)
	}
	if _, err := s.CapsulesReadBasic(context.Background(), owner, &c.ID); !merrors.Is(err, merrors.KindNotFound) {
		t.Errorf("capsule still readable after delete, error = %v", err)
	}
}

func TestMemoriesCreateInlineIsIdempotentByKey(t *testing.T) {
	s := openTestStore(t)
	owner := model.Opaque{Ref: "alice"}
	c, err := s.CapsulesCreate(context.Background(), owner, owner)
	if err != nil {
		t.Fatalf("CapsulesCreate() error = %v", err)
	}

	data := model.AssetDataInline{Bytes: []byte("hello")}
	meta := noteMetadata("note", 5)
	access := model.AccessPrivate{OwnerSecureCode: "code"}

	id1, err := s.MemoriesCreate(context.Background(), owner, c.ID, data, meta, access, "idem-1")
	if err != nil {
		t.Fatalf("MemoriesCreate() error = %v", err)
	}
	id2, err := s.MemoriesCreate(context.Background(), owner, c.ID, data, meta, access, "idem-1")
	if err != nil {
		t.Fatalf("MemoriesCreate() repeated call error = %v", err)
	}
	if id1 != id2 {
		t.Errorf("MemoriesCreate() with the same idempotency key returned different ids: %v != %v", id1, id2)
	}

	headers, err := s.MemoriesList(context.Background(), owner, c.ID)
	if err != nil {
		t.Fatalf("MemoriesList() error = %v", err)
	}
	if len(headers) != 1 {
		t.Fatalf("MemoriesList() returned %d memories, want 1", len(headers))
	}
}

func TestMemoriesReadWriteRoundTripsThroughStorewire(t *testing.T) {
	s := openTestStore(t)
	owner := model.Opaque{Ref: "alice"}
	c, err := s.CapsulesCreate(context.Background(), owner, owner)
	if err != nil {
		t.Fatalf("CapsulesCreate() error = %v", err)
	}

	data := model.AssetDataInline{Bytes: []byte("hello")}
	meta := noteMetadata("note", 5)
	access := model.AccessPrivate{OwnerSecureCode: "code"}

	memID, err := s.MemoriesCreate(context.Background(), owner, c.ID, data, meta, access, "idem-1")
	if err != nil {
		t.Fatalf("MemoriesCreate() error = %v", err)
	}

	m, err := s.MemoriesRead(context.Background(), owner, memID)
	if err != nil {
		t.Fatalf("MemoriesRead() error = %v", err)
	}
	if len(m.InlineAssets) != 1 || string(m.InlineAssets[0].Bytes) != "hello" {
		t.Errorf("MemoriesRead() after a JSON-through-BadgerDB round trip = %+v, want inline asset %q", m.InlineAssets, "hello")
	}
}

func TestMemoriesUpdateAppliesOnlyNonNilFields(t *testing.T) {
	s := openTestStore(t)
	owner := model.Opaque{Ref: "alice"}
	c, err := s.CapsulesCreate(context.Background(), owner, owner)
	if err != nil {
		t.Fatalf("CapsulesCreate() error = %v", err)
	}

	data := model.AssetDataInline{Bytes: []byte("x")}
	meta := noteMetadata("original-title", 1)
	access := model.AccessPrivate{}

	memID, err := s.MemoriesCreate(context.Background(), owner, c.ID, data, meta, access, "idem-1")
	if err != nil {
		t.Fatalf("MemoriesCreate() error = %v", err)
	}

	newTitle := "updated-title"
	if err := s.MemoriesUpdate(context.Background(), owner, memID, model.MemoryUpdate{Title: &newTitle}); err != nil {
		t.Fatalf("MemoriesUpdate() error = %v", err)
	}

	m, err := s.MemoriesRead(context.Background(), owner, memID)
	if err != nil {
		t.Fatalf("MemoriesRead() error = %v", err)
	}
	if m.Metadata.Title == nil || *m.Metadata.Title != newTitle {
		t.Errorf("Title = %v, want %q", m.Metadata.Title, newTitle)
	}
}

func TestCapsulesDeleteCascadesBlobErasure(t *testing.T) {
	s := openTestStore(t)
	owner := model.Opaque{Ref: "alice"}
	c, err := s.CapsulesCreate(context.Background(), owner, owner)
	if err != nil {
		t.Fatalf("CapsulesCreate() error = %v", err)
	}

	blobRef := model.NewBlobRef(1, "deadbeef", 10)
	meta := model.ImageMetadata{AssetMetadataBase: model.AssetMetadataBase{
		Name: "photo.jpg", AssetType: model.AssetTypeOriginal, Bytes: 10, MimeType: "image/jpeg",
	}}
	access := model.AccessPrivate{}

	if _, err := s.MemoriesCreate(context.Background(), owner, c.ID, model.AssetDataBlobRef{BlobRef: blobRef}, meta, access, "idem-1"); err != nil {
		t.Fatalf("MemoriesCreate() error = %v", err)
	}

	erased := &fakeEraser{}
	if err := s.CapsulesDelete(context.Background(), owner, c.ID, erased); err != nil {
		t.Fatalf("CapsulesDelete() error = %v", err)
	}
	if len(erased.locators) != 1 || erased.locators[0] != blobRef.Locator {
		t.Errorf("erased locators = %v, want [%v]", erased.locators, blobRef.Locator)
	}
}

type fakeEraser struct {
	locators []string
}

func (f *fakeEraser) EraseBlob(ctx context.Context, locator string) error {
	f.locators = append(f.locators, locator)
	return nil
}
