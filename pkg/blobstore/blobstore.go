// Package blobstore implements StableBlobSink: a write-through,
// offset-addressable byte sink over a persistent byte store, with
// deterministic, collision-free keying across concurrent sessions. Three
// backends are provided (memstore, fsstore, s3store), matching a
// pkg/payload/store/{memory,fs,s3} layering.
package blobstore

import (
	"context"

	"github.com/memvault/memvault/pkg/memvault/ids"
)

// Sink is a write-through byte sink bound to one upload session. All
// offsets are relative to the session's own base offset, derived once from
// PmidSessionHash32 at construction.
type Sink interface {
	// WriteChunk writes bytes at base + chunkIdx*chunk_size. Re-writing the
	// same (chunkIdx, bytes) is idempotent. Returns a merrors InvalidArgument
	// for UnalignedOffset/OversizedChunk, ResourceExhausted for OutOfSpace.
	WriteChunk(ctx context.Context, chunkIdx uint32, chunk []byte) error

	// ReadRange reads length bytes starting at offset, used only during
	// optional finalize verification; the default finish path never calls
	// this (the rolling hash avoids a readback).
	ReadRange(ctx context.Context, offset, length uint64) ([]byte, error)

	// Erase releases every chunk written by this sink, used by abort
	// salvage and by blob deletion once no memory references the blob.
	Erase(ctx context.Context) error
}

// Region constructs session-scoped Sinks over one stable storage backend.
type Region interface {
	// ForSession constructs a Sink whose base offset is
	// ids.PmidSessionHash32(pmidStem, sessionID) within this region,
	// page-aligned to chunkSize.
	ForSession(pmidStem string, sessionID ids.SessionId, chunkSize uint32) Sink
}

// BaseOffset computes the page-aligned base offset for a session within a
// region of the given capacity (in bytes). fsstore is its caller;
// memstore and s3store key by string rather than by byte offset and do
// not call it. Capacity of 0 is treated as unbounded: the page index is
// scaled by chunkSize without wrapping.
func BaseOffset(pmidStem string, sessionID ids.SessionId, chunkSize uint32, capacity uint64) uint64 {
	pageIndex := ids.PmidSessionHash32(pmidStem, sessionID)
	if capacity == 0 || chunkSize == 0 {
		return pageIndex * uint64(chunkSize)
	}
	numPages := capacity / uint64(chunkSize)
	if numPages == 0 {
		numPages = 1
	}
	return (pageIndex % numPages) * uint64(chunkSize)
}
