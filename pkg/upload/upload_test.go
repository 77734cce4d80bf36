package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	blobmemstore "github.com/memvault/memvault/pkg/blobstore/memstore"
	capsulememstore "github.com/memvault/memvault/pkg/capsulestore/memstore"
	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/merrors"
	"github.com/memvault/memvault/pkg/memvault/model"
	"github.com/memvault/memvault/pkg/metrics"
	"github.com/memvault/memvault/pkg/session"
)

func newTestService(t *testing.T) (*Service, *capsulememstore.Store) {
	t.Helper()
	store := capsulememstore.New()
	sessions := session.NewService(MaxActivePerPrincipal)
	region := blobmemstore.NewRegion(0)
	return NewService(sessions, region, store), store
}

func noteMeta(name string, size int) model.AssetMetadata {
	return model.NoteMetadata{AssetMetadataBase: model.AssetMetadataBase{
		Name:      name,
		AssetType: model.AssetTypeOriginal,
		Bytes:     uint64(size),
		MimeType:  "text/plain",
	}}
}

func TestUploadEndToEndSingleChunk(t *testing.T) {
	svc, store := newTestService(t)
	owner := model.Opaque{Ref: "alice"}

	capsule, err := store.CapsulesCreate(context.Background(), owner, nil)
	if err != nil {
		t.Fatalf("CapsulesCreate() error = %v", err)
	}

	data := []byte("hello, world")
	meta := noteMeta("note.txt", len(data))

	sid, existingMemID, err := svc.BeginUpload(context.Background(), owner, capsule.ID, meta, 1, uint64(len(data)), "idem-1")
	if err != nil {
		t.Fatalf("BeginUpload() error = %v", err)
	}
	if existingMemID != nil {
		t.Fatalf("BeginUpload() returned an existing memory id on a fresh upload")
	}

	if err := svc.UploadsPutChunk(context.Background(), owner, sid, 0, data); err != nil {
		t.Fatalf("UploadsPutChunk() error = %v", err)
	}

	sum := sha256.Sum256(data)
	memID, err := svc.UploadsFinish(context.Background(), owner, sid, hex.EncodeToString(sum[:]), uint64(len(data)))
	if err != nil {
		t.Fatalf("UploadsFinish() error = %v", err)
	}

	mem, err := store.MemoriesRead(context.Background(), owner, memID)
	if err != nil {
		t.Fatalf("MemoriesRead() after finish error = %v", err)
	}
	if mem.Metadata.Title == nil || *mem.Metadata.Title != "note.txt" {
		t.Errorf("memory title = %v, want %q", mem.Metadata.Title, "note.txt")
	}
}

func TestBeginUploadRejectsNonWriter(t *testing.T) {
	svc, store := newTestService(t)
	owner := model.Opaque{Ref: "alice"}
	stranger := model.Opaque{Ref: "mallory"}

	capsule, err := store.CapsulesCreate(context.Background(), owner, nil)
	if err != nil {
		t.Fatalf("CapsulesCreate() error = %v", err)
	}

	meta := noteMeta("note.txt", 4)
	if _, _, err := svc.BeginUpload(context.Background(), stranger, capsule.ID, meta, 1, 4, "idem-1"); !merrors.Is(err, merrors.KindUnauthorized) {
		t.Errorf("BeginUpload() by non-writer error = %v, want Unauthorized", err)
	}
}

func TestBeginUploadRejectsOutOfRangeExpectedChunks(t *testing.T) {
	svc, store := newTestService(t)
	owner := model.Opaque{Ref: "alice"}

	capsule, err := store.CapsulesCreate(context.Background(), owner, nil)
	if err != nil {
		t.Fatalf("CapsulesCreate() error = %v", err)
	}

	meta := noteMeta("note.txt", 4)
	if _, _, err := svc.BeginUpload(context.Background(), owner, capsule.ID, meta, 0, 4, "idem-1"); !merrors.Is(err, merrors.KindInvalidArgument) {
		t.Errorf("BeginUpload() with 0 expected_chunks error = %v, want InvalidArgument", err)
	}
	if _, _, err := svc.BeginUpload(context.Background(), owner, capsule.ID, meta, MaxChunks+1, 4, "idem-2"); !merrors.Is(err, merrors.KindInvalidArgument) {
		t.Errorf("BeginUpload() over MaxChunks error = %v, want InvalidArgument", err)
	}
}

func TestBeginUploadIsIdempotentAfterCommit(t *testing.T) {
	svc, store := newTestService(t)
	owner := model.Opaque{Ref: "alice"}

	capsule, err := store.CapsulesCreate(context.Background(), owner, nil)
	if err != nil {
		t.Fatalf("CapsulesCreate() error = %v", err)
	}

	data := []byte("abcd")
	meta := noteMeta("note.txt", len(data))

	sid, _, err := svc.BeginUpload(context.Background(), owner, capsule.ID, meta, 1, uint64(len(data)), "idem-1")
	if err != nil {
		t.Fatalf("BeginUpload() error = %v", err)
	}
	if err := svc.UploadsPutChunk(context.Background(), owner, sid, 0, data); err != nil {
		t.Fatalf("UploadsPutChunk() error = %v", err)
	}
	sum := sha256.Sum256(data)
	memID, err := svc.UploadsFinish(context.Background(), owner, sid, hex.EncodeToString(sum[:]), uint64(len(data)))
	if err != nil {
		t.Fatalf("UploadsFinish() error = %v", err)
	}

	_, existingMemID, err := svc.BeginUpload(context.Background(), owner, capsule.ID, meta, 1, uint64(len(data)), "idem-1")
	if err != nil {
		t.Fatalf("BeginUpload() retry error = %v", err)
	}
	if existingMemID == nil || *existingMemID != memID {
		t.Errorf("BeginUpload() retry existingMemID = %v, want %v", existingMemID, memID)
	}
}

func TestUploadsFinishRejectsHashMismatch(t *testing.T) {
	svc, store := newTestService(t)
	owner := model.Opaque{Ref: "alice"}

	capsule, err := store.CapsulesCreate(context.Background(), owner, nil)
	if err != nil {
		t.Fatalf("CapsulesCreate() error = %v", err)
	}

	data := []byte("abcd")
	meta := noteMeta("note.txt", len(data))

	sid, _, err := svc.BeginUpload(context.Background(), owner, capsule.ID, meta, 1, uint64(len(data)), "idem-1")
	if err != nil {
		t.Fatalf("BeginUpload() error = %v", err)
	}
	if err := svc.UploadsPutChunk(context.Background(), owner, sid, 0, data); err != nil {
		t.Fatalf("UploadsPutChunk() error = %v", err)
	}

	if _, err := svc.UploadsFinish(context.Background(), owner, sid, "deadbeef", uint64(len(data))); !merrors.Is(err, merrors.KindIntegrityMismatch) {
		t.Errorf("UploadsFinish() with wrong hash error = %v, want IntegrityMismatch", err)
	}
}

func TestUploadsAbortIsIdempotent(t *testing.T) {
	svc, store := newTestService(t)
	owner := model.Opaque{Ref: "alice"}

	capsule, err := store.CapsulesCreate(context.Background(), owner, nil)
	if err != nil {
		t.Fatalf("CapsulesCreate() error = %v", err)
	}

	meta := noteMeta("note.txt", 4)
	sid, _, err := svc.BeginUpload(context.Background(), owner, capsule.ID, meta, 1, 4, "idem-1")
	if err != nil {
		t.Fatalf("BeginUpload() error = %v", err)
	}

	if err := svc.UploadsAbort(context.Background(), owner, sid); err != nil {
		t.Fatalf("UploadsAbort() first call error = %v", err)
	}

	// The first abort deletes all session bookkeeping, so a second call
	// against the same id reports the session as gone rather than erroring
	// on a double-abort of live state.
	if err := svc.UploadsAbort(context.Background(), owner, sid); !merrors.Is(err, merrors.KindNotFound) {
		t.Errorf("UploadsAbort() second call error = %v, want NotFound", err)
	}
}

func TestTickTTLErasesChunksFreesSlotAndAllowsRetry(t *testing.T) {
	svc, store := newTestService(t)
	owner := model.Opaque{Ref: "alice"}

	capsule, err := store.CapsulesCreate(context.Background(), owner, nil)
	if err != nil {
		t.Fatalf("CapsulesCreate() error = %v", err)
	}

	start := time.Now()
	svc.now = func() time.Time { return start }

	data := []byte("abcd")
	meta := noteMeta("note.txt", len(data))

	sid, _, err := svc.BeginUpload(context.Background(), owner, capsule.ID, meta, 1, uint64(len(data)), "idem-1")
	if err != nil {
		t.Fatalf("BeginUpload() error = %v", err)
	}
	if err := svc.UploadsPutChunk(context.Background(), owner, sid, 0, data); err != nil {
		t.Fatalf("UploadsPutChunk() error = %v", err)
	}

	sink := svc.region.ForSession(ids.PmidStem(capsule.ID, "idem-1"), sid, ChunkSize)
	if _, err := sink.ReadRange(context.Background(), 0, uint64(len(data))); err != nil {
		t.Fatalf("chunk bytes missing before TickTTL(): %v", err)
	}

	svc.now = func() time.Time { return start.Add(time.Hour) }
	if n := svc.TickTTL(context.Background(), start.Add(time.Hour), time.Minute); n != 1 {
		t.Fatalf("TickTTL() expired = %d, want 1", n)
	}

	if _, err := sink.ReadRange(context.Background(), 0, uint64(len(data))); !merrors.Is(err, merrors.KindNotFound) {
		t.Errorf("chunk bytes not erased after TickTTL(), error = %v", err)
	}
	if _, err := svc.state(sid); !merrors.Is(err, merrors.KindNotFound) {
		t.Errorf("upload state not dropped after TickTTL(), error = %v", err)
	}

	// The owner's active-session slot must be freed and the deterministic
	// session id reusable, or a client retry after TTL expiry would hit a
	// permanent Conflict.
	if _, _, err := svc.BeginUpload(context.Background(), owner, capsule.ID, meta, 1, uint64(len(data)), "idem-1"); err != nil {
		t.Errorf("BeginUpload() retry after TickTTL() error = %v, want nil", err)
	}
}

func TestUploadMetricsRecordBeginChunkAndCommit(t *testing.T) {
	svc, store := newTestService(t)
	m := metrics.NewUploadMetrics(nil)
	svc.SetMetrics(m)

	owner := model.Opaque{Ref: "alice"}
	capsule, err := store.CapsulesCreate(context.Background(), owner, nil)
	if err != nil {
		t.Fatalf("CapsulesCreate() error = %v", err)
	}

	data := []byte("hello, world")
	meta := noteMeta("note.txt", len(data))

	sid, _, err := svc.BeginUpload(context.Background(), owner, capsule.ID, meta, 1, uint64(len(data)), "idem-1")
	if err != nil {
		t.Fatalf("BeginUpload() error = %v", err)
	}
	if got := testutil.ToFloat64(m.SessionsStarted); got != 1 {
		t.Errorf("SessionsStarted = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SessionsActive); got != 1 {
		t.Errorf("SessionsActive after begin = %v, want 1", got)
	}

	if err := svc.UploadsPutChunk(context.Background(), owner, sid, 0, data); err != nil {
		t.Fatalf("UploadsPutChunk() error = %v", err)
	}
	if got := histogramSampleCount(t, m.ChunkBytesWritten); got != 1 {
		t.Errorf("ChunkBytesWritten observation count = %v, want 1", got)
	}

	sum := sha256.Sum256(data)
	if _, err := svc.UploadsFinish(context.Background(), owner, sid, hex.EncodeToString(sum[:]), uint64(len(data))); err != nil {
		t.Fatalf("UploadsFinish() error = %v", err)
	}
	if got := testutil.ToFloat64(m.SessionsCommitted); got != 1 {
		t.Errorf("SessionsCommitted = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SessionsActive); got != 0 {
		t.Errorf("SessionsActive after commit = %v, want 0", got)
	}
}

func TestUploadMetricsRecordAbort(t *testing.T) {
	svc, store := newTestService(t)
	m := metrics.NewUploadMetrics(nil)
	svc.SetMetrics(m)

	owner := model.Opaque{Ref: "alice"}
	capsule, err := store.CapsulesCreate(context.Background(), owner, nil)
	if err != nil {
		t.Fatalf("CapsulesCreate() error = %v", err)
	}

	meta := noteMeta("note.txt", 4)
	sid, _, err := svc.BeginUpload(context.Background(), owner, capsule.ID, meta, 1, 4, "idem-1")
	if err != nil {
		t.Fatalf("BeginUpload() error = %v", err)
	}

	if err := svc.UploadsAbort(context.Background(), owner, sid); err != nil {
		t.Fatalf("UploadsAbort() error = %v", err)
	}
	if got := testutil.ToFloat64(m.SessionsAborted.WithLabelValues("client_request")); got != 1 {
		t.Errorf("SessionsAborted{client_request} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SessionsActive); got != 0 {
		t.Errorf("SessionsActive after abort = %v, want 0", got)
	}
}

// histogramSampleCount reads a histogram's observation count directly off
// its collected dto.Metric, since testutil.ToFloat64 only understands
// gauges, counters, and untyped metrics.
func histogramSampleCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}
