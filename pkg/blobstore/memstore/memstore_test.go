package memstore

import (
	"bytes"
	"context"
	"testing"

	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/merrors"
)

func TestWriteChunkThenReadRangeRoundTrips(t *testing.T) {
	r := NewRegion(0)
	sink := r.ForSession("pmid", ids.SessionId("sess-1"), 8)

	if err := sink.WriteChunk(context.Background(), 0, []byte("hello!!!")); err != nil {
		t.Fatalf("WriteChunk() error = %v", err)
	}

	got, err := sink.ReadRange(context.Background(), 0, 5)
	if err != nil {
		t.Fatalf("ReadRange() error = %v", err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Errorf("ReadRange() = %q, want %q", got, "hello")
	}
}

func TestWriteChunkRejectsOversizedChunk(t *testing.T) {
	r := NewRegion(0)
	sink := r.ForSession("pmid", ids.SessionId("sess-1"), 4)

	if err := sink.WriteChunk(context.Background(), 0, []byte("too-long")); !merrors.Is(err, merrors.KindInvalidArgument) {
		t.Errorf("WriteChunk() oversized error = %v, want InvalidArgument", err)
	}
}

func TestWriteChunkEnforcesMaxBytes(t *testing.T) {
	r := NewRegion(8)
	sink := r.ForSession("pmid", ids.SessionId("sess-1"), 8)

	if err := sink.WriteChunk(context.Background(), 0, []byte("12345678")); err != nil {
		t.Fatalf("WriteChunk() first chunk error = %v", err)
	}

	sink2 := r.ForSession("pmid", ids.SessionId("sess-2"), 8)
	if err := sink2.WriteChunk(context.Background(), 0, []byte("12345678")); !merrors.Is(err, merrors.KindResourceExhausted) {
		t.Errorf("WriteChunk() over budget error = %v, want ResourceExhausted", err)
	}
}

func TestWriteChunkIsIdempotent(t *testing.T) {
	r := NewRegion(8)
	sink := r.ForSession("pmid", ids.SessionId("sess-1"), 8)

	if err := sink.WriteChunk(context.Background(), 0, []byte("12345678")); err != nil {
		t.Fatalf("WriteChunk() first write error = %v", err)
	}
	if err := sink.WriteChunk(context.Background(), 0, []byte("12345678")); err != nil {
		t.Fatalf("WriteChunk() re-write of the same chunk error = %v", err)
	}
}

func TestReadRangeMissingChunk(t *testing.T) {
	r := NewRegion(0)
	sink := r.ForSession("pmid", ids.SessionId("sess-1"), 8)

	if _, err := sink.ReadRange(context.Background(), 0, 4); !merrors.Is(err, merrors.KindNotFound) {
		t.Errorf("ReadRange() on missing chunk error = %v, want NotFound", err)
	}
}

func TestEraseRemovesOnlyTheSessionsChunks(t *testing.T) {
	r := NewRegion(0)
	sinkA := r.ForSession("pmid", ids.SessionId("sess-a"), 8)
	sinkB := r.ForSession("pmid", ids.SessionId("sess-b"), 8)

	if err := sinkA.WriteChunk(context.Background(), 0, []byte("aaaaaaaa")); err != nil {
		t.Fatalf("WriteChunk() sinkA error = %v", err)
	}
	if err := sinkB.WriteChunk(context.Background(), 0, []byte("bbbbbbbb")); err != nil {
		t.Fatalf("WriteChunk() sinkB error = %v", err)
	}

	if err := sinkA.Erase(context.Background()); err != nil {
		t.Fatalf("Erase() error = %v", err)
	}

	if _, err := sinkA.ReadRange(context.Background(), 0, 4); !merrors.Is(err, merrors.KindNotFound) {
		t.Errorf("ReadRange() on erased session error = %v, want NotFound", err)
	}
	if _, err := sinkB.ReadRange(context.Background(), 0, 4); err != nil {
		t.Errorf("ReadRange() on untouched session error = %v, want nil", err)
	}
}
