// Package fsstore is a file-backed blobstore.Region: a single
// pre-allocated file per region, with chunks written at page-aligned
// offsets: a stable memory region over a local filesystem, managing a
// fixed-size backing file
// addressed by computed offsets rather than a path-per-object layout.
package fsstore

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/memvault/memvault/pkg/blobstore"
	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/merrors"
)

// Region is a file-backed blobstore.Region.
type Region struct {
	mu   sync.Mutex
	file *os.File
	size int64

	// extents tracks, per session key, the highest chunk_idx written plus
	// its chunk size, so Erase can zero exactly the bytes this session
	// wrote without scanning the whole file.
	extents map[string]extent
}

type extent struct {
	base      uint64
	chunkSize uint32
	highest   int64 // highest chunk_idx written, -1 if none
}

// Open creates or reuses the backing file at path, pre-allocated to
// regionSize bytes.
func Open(path string, regionSize int64) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("fsstore: open %s: %w", path, err)
	}
	if err := f.Truncate(regionSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("fsstore: truncate %s: %w", path, err)
	}
	return &Region{file: f, size: regionSize, extents: map[string]extent{}}, nil
}

// Close releases the backing file handle.
func (r *Region) Close() error {
	return r.file.Close()
}

func sessionKey(pmidStem string, sessionID ids.SessionId) string {
	return pmidStem + "/" + string(sessionID)
}

// ForSession implements blobstore.Region.
func (r *Region) ForSession(pmidStem string, sessionID ids.SessionId, chunkSize uint32) blobstore.Sink {
	return &sink{
		region:    r,
		key:       sessionKey(pmidStem, sessionID),
		base:      blobstore.BaseOffset(pmidStem, sessionID, chunkSize, uint64(r.size)),
		chunkSize: chunkSize,
	}
}

type sink struct {
	region    *Region
	key       string
	base      uint64
	chunkSize uint32
}

func (s *sink) WriteChunk(ctx context.Context, chunkIdx uint32, chunk []byte) error {
	if uint32(len(chunk)) > s.chunkSize {
		return merrors.InvalidArgument("oversized chunk")
	}
	offset := s.base + uint64(chunkIdx)*uint64(s.chunkSize)
	if offset%uint64(s.chunkSize) != 0 {
		return merrors.InvalidArgument("unaligned offset")
	}

	r := s.region
	r.mu.Lock()
	defer r.mu.Unlock()

	if int64(offset)+int64(len(chunk)) > r.size {
		return merrors.ResourceExhausted("blob region exhausted", "OutOfSpace")
	}

	if _, err := r.file.WriteAt(chunk, int64(offset)); err != nil {
		return merrors.Internalf("fsstore write failed: %v", err)
	}

	e := r.extents[s.key]
	e.base = s.base
	e.chunkSize = s.chunkSize
	if int64(chunkIdx) > e.highest {
		e.highest = int64(chunkIdx)
	}
	r.extents[s.key] = e
	return nil
}

func (s *sink) ReadRange(ctx context.Context, offset, length uint64) ([]byte, error) {
	r := s.region
	r.mu.Lock()
	defer r.mu.Unlock()

	buf := make([]byte, length)
	if _, err := r.file.ReadAt(buf, int64(s.base+offset)); err != nil {
		return nil, merrors.Internalf("fsstore read failed: %v", err)
	}
	return buf, nil
}

func (s *sink) Erase(ctx context.Context) error {
	r := s.region
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.extents[s.key]
	if !ok || e.highest < 0 {
		return nil
	}

	zeros := make([]byte, e.chunkSize)
	for idx := int64(0); idx <= e.highest; idx++ {
		off := int64(e.base) + idx*int64(e.chunkSize)
		if _, err := r.file.WriteAt(zeros, off); err != nil {
			return merrors.Internalf("fsstore erase failed: %v", err)
		}
	}
	delete(r.extents, s.key)
	return nil
}
