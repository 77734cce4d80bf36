package session

import (
	"context"
	"testing"
	"time"

	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/merrors"
	"github.com/memvault/memvault/pkg/memvault/model"
)

type fakeSink struct {
	written map[uint32][]byte
	full    bool
}

func newFakeSink() *fakeSink {
	return &fakeSink{written: map[uint32][]byte{}}
}

func (f *fakeSink) WriteChunk(ctx context.Context, chunkIdx uint32, chunk []byte) error {
	if f.full {
		return merrors.ResourceExhausted("blob region exhausted", "OutOfSpace")
	}
	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	f.written[chunkIdx] = cp
	return nil
}

func (f *fakeSink) ReadRange(ctx context.Context, offset, length uint64) ([]byte, error) {
	return nil, merrors.NotFound("not implemented in fake")
}

func (f *fakeSink) Erase(ctx context.Context) error { return nil }

func TestBeginRejectsZeroBytesExpected(t *testing.T) {
	svc := NewService(10)
	owner := model.Opaque{Ref: "alice"}

	err := svc.Begin(context.Background(), ids.SessionId("s1"), owner, Spec{ChunkSize: 4, BytesExpected: 0, ExpectedChunks: 1}, time.Now())
	if !merrors.Is(err, merrors.KindInvalidArgument) {
		t.Errorf("Begin() with zero bytes_expected error = %v, want InvalidArgument", err)
	}
}

func TestBeginEnforcesActiveSessionCap(t *testing.T) {
	svc := NewService(1)
	owner := model.Opaque{Ref: "alice"}
	now := time.Now()

	if err := svc.Begin(context.Background(), ids.SessionId("s1"), owner, Spec{ChunkSize: 4, BytesExpected: 8, ExpectedChunks: 2}, now); err != nil {
		t.Fatalf("Begin() first session error = %v", err)
	}

	err := svc.Begin(context.Background(), ids.SessionId("s2"), owner, Spec{ChunkSize: 4, BytesExpected: 8, ExpectedChunks: 2}, now)
	if !merrors.Is(err, merrors.KindResourceExhausted) {
		t.Errorf("Begin() over cap error = %v, want ResourceExhausted", err)
	}
}

func TestFindPendingSupportsIdempotentRetry(t *testing.T) {
	svc := NewService(10)
	owner := model.Opaque{Ref: "alice"}
	now := time.Now()

	if err := svc.Begin(context.Background(), ids.SessionId("s1"), owner, Spec{ChunkSize: 4, BytesExpected: 8, ExpectedChunks: 2, Idem: "idem-1"}, now); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	sid, ok := svc.FindPending(owner, "idem-1")
	if !ok || sid != ids.SessionId("s1") {
		t.Errorf("FindPending() = (%v, %v), want (s1, true)", sid, ok)
	}

	if _, ok := svc.FindPending(owner, "no-such-idem"); ok {
		t.Errorf("FindPending() for unknown idem returned ok=true")
	}
}

func TestPutChunkEnforcesInOrderDelivery(t *testing.T) {
	svc := NewService(10)
	owner := model.Opaque{Ref: "alice"}
	sid := ids.SessionId("s1")
	now := time.Now()

	if err := svc.Begin(context.Background(), sid, owner, Spec{ChunkSize: 4, BytesExpected: 8, ExpectedChunks: 2}, now); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	sink := newFakeSink()
	if err := svc.PutChunk(context.Background(), sid, owner, 1, []byte("abcd"), sink, now); !merrors.Is(err, merrors.KindInvalidArgument) {
		t.Errorf("PutChunk() out of order error = %v, want InvalidArgument", err)
	}

	if err := svc.PutChunk(context.Background(), sid, owner, 0, []byte("abcd"), sink, now); err != nil {
		t.Errorf("PutChunk() in order error = %v, want nil", err)
	}
}

func TestPutChunkRejectsWrongOwner(t *testing.T) {
	svc := NewService(10)
	owner := model.Opaque{Ref: "alice"}
	stranger := model.Opaque{Ref: "mallory"}
	sid := ids.SessionId("s1")
	now := time.Now()

	if err := svc.Begin(context.Background(), sid, owner, Spec{ChunkSize: 4, BytesExpected: 4, ExpectedChunks: 1}, now); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	sink := newFakeSink()
	if err := svc.PutChunk(context.Background(), sid, stranger, 0, []byte("abcd"), sink, now); !merrors.Is(err, merrors.KindUnauthorized) {
		t.Errorf("PutChunk() by non-owner error = %v, want Unauthorized", err)
	}
}

func TestPutChunkRejectsOversizedChunk(t *testing.T) {
	svc := NewService(10)
	owner := model.Opaque{Ref: "alice"}
	sid := ids.SessionId("s1")
	now := time.Now()

	if err := svc.Begin(context.Background(), sid, owner, Spec{ChunkSize: 4, BytesExpected: 4, ExpectedChunks: 1}, now); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	sink := newFakeSink()
	if err := svc.PutChunk(context.Background(), sid, owner, 0, []byte("too-long"), sink, now); !merrors.Is(err, merrors.KindInvalidArgument) {
		t.Errorf("PutChunk() oversized error = %v, want InvalidArgument", err)
	}
}

func TestFinishRequiresCompleteSession(t *testing.T) {
	svc := NewService(10)
	owner := model.Opaque{Ref: "alice"}
	sid := ids.SessionId("s1")
	now := time.Now()

	if err := svc.Begin(context.Background(), sid, owner, Spec{ChunkSize: 4, BytesExpected: 8, ExpectedChunks: 2}, now); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if _, err := svc.Finish(sid); !merrors.Is(err, merrors.KindInvalidArgument) {
		t.Errorf("Finish() on incomplete session error = %v, want InvalidArgument", err)
	}

	sink := newFakeSink()
	if err := svc.PutChunk(context.Background(), sid, owner, 0, []byte("abcd"), sink, now); err != nil {
		t.Fatalf("PutChunk() chunk 0 error = %v", err)
	}
	if err := svc.PutChunk(context.Background(), sid, owner, 1, []byte("efgh"), sink, now); err != nil {
		t.Fatalf("PutChunk() chunk 1 error = %v", err)
	}

	summary, err := svc.Finish(sid)
	if err != nil {
		t.Fatalf("Finish() on complete session error = %v", err)
	}
	if summary.BytesReceived != 8 || summary.ChunksReceivedCount != 2 {
		t.Errorf("Finish() summary = %+v, want {8 2}", summary)
	}
}

func TestAbortIsIdempotentOnTerminalSessions(t *testing.T) {
	svc := NewService(10)
	owner := model.Opaque{Ref: "alice"}
	sid := ids.SessionId("s1")
	now := time.Now()

	if err := svc.Begin(context.Background(), sid, owner, Spec{ChunkSize: 4, BytesExpected: 4, ExpectedChunks: 1}, now); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if err := svc.Abort(sid); err != nil {
		t.Fatalf("Abort() first call error = %v", err)
	}
	if err := svc.Abort(sid); err != nil {
		t.Errorf("Abort() second call on already-terminal session error = %v, want nil", err)
	}
}

func TestDeleteRemovesOwnerAndIdemBookkeeping(t *testing.T) {
	svc := NewService(1)
	owner := model.Opaque{Ref: "alice"}
	sid := ids.SessionId("s1")
	now := time.Now()

	if err := svc.Begin(context.Background(), sid, owner, Spec{ChunkSize: 4, BytesExpected: 4, ExpectedChunks: 1, Idem: "idem-1"}, now); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	svc.Delete(sid)

	if _, err := svc.Get(sid); !merrors.Is(err, merrors.KindNotFound) {
		t.Errorf("Get() after Delete() error = %v, want NotFound", err)
	}
	if _, ok := svc.FindPending(owner, "idem-1"); ok {
		t.Errorf("FindPending() after Delete() returned ok=true")
	}

	sid2 := ids.SessionId("s2")
	if err := svc.Begin(context.Background(), sid2, owner, Spec{ChunkSize: 4, BytesExpected: 4, ExpectedChunks: 1}, now); err != nil {
		t.Errorf("Begin() after Delete() freed the owner slot, error = %v, want nil", err)
	}
}

func TestTickTTLExpiresIdleSessions(t *testing.T) {
	svc := NewService(10)
	owner := model.Opaque{Ref: "alice"}
	sid := ids.SessionId("s1")
	start := time.Now()

	if err := svc.Begin(context.Background(), sid, owner, Spec{ChunkSize: 4, BytesExpected: 4, ExpectedChunks: 1}, start); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	expired := svc.TickTTL(context.Background(), start.Add(time.Hour), time.Minute)
	if len(expired) != 1 || expired[0] != sid {
		t.Errorf("TickTTL() expired = %v, want [%v]", expired, sid)
	}

	if _, err := svc.Get(sid); !merrors.Is(err, merrors.KindNotFound) {
		t.Errorf("Get() after TickTTL() error = %v, want NotFound (evicted)", err)
	}
}

func TestTickTTLFreesOwnerSlotForRetry(t *testing.T) {
	svc := NewService(1)
	owner := model.Opaque{Ref: "alice"}
	sid := ids.SessionId("s1")
	start := time.Now()

	if err := svc.Begin(context.Background(), sid, owner, Spec{ChunkSize: 4, BytesExpected: 4, ExpectedChunks: 1, Idem: "idem-1"}, start); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if expired := svc.TickTTL(context.Background(), start.Add(time.Hour), time.Minute); len(expired) != 1 {
		t.Fatalf("TickTTL() expired = %v, want 1 entry", expired)
	}

	// The same deterministic session id, derived from (capsule_id, idem)
	// by UploadService, must be re-usable once TickTTL evicts the expired
	// entry -- otherwise a retried begin after TTL expiry would hit a
	// permanent Conflict.
	if err := svc.Begin(context.Background(), sid, owner, Spec{ChunkSize: 4, BytesExpected: 4, ExpectedChunks: 1, Idem: "idem-1"}, start.Add(time.Hour)); err != nil {
		t.Errorf("Begin() retry after TickTTL() error = %v, want nil", err)
	}
}
