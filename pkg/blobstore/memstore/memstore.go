// Package memstore is the in-process Region implementation: a
// mutex-guarded map from chunk key to a defensive copy of its bytes.
// Every read and write copies rather than aliasing caller-owned slices.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/memvault/memvault/pkg/blobstore"
	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/merrors"
)

// Region is an in-memory blobstore.Region, intended for tests and the
// default development mode.
type Region struct {
	mu     sync.RWMutex
	chunks map[string][]byte

	maxBytes uint64
	used     uint64
}

// NewRegion constructs an empty Region. maxBytes of 0 means unbounded.
func NewRegion(maxBytes uint64) *Region {
	return &Region{chunks: map[string][]byte{}, maxBytes: maxBytes}
}

func sessionPrefix(pmidStem string, sessionID ids.SessionId) string {
	return fmt.Sprintf("%s/%s", pmidStem, sessionID)
}

func chunkKey(pmidStem string, sessionID ids.SessionId, chunkIdx uint32) string {
	return fmt.Sprintf("%s/%d", sessionPrefix(pmidStem, sessionID), chunkIdx)
}

// ForSession implements blobstore.Region.
func (r *Region) ForSession(pmidStem string, sessionID ids.SessionId, chunkSize uint32) blobstore.Sink {
	return &sink{region: r, pmidStem: pmidStem, sessionID: sessionID, chunkSize: chunkSize}
}

type sink struct {
	region    *Region
	pmidStem  string
	sessionID ids.SessionId
	chunkSize uint32
}

func (s *sink) WriteChunk(ctx context.Context, chunkIdx uint32, chunk []byte) error {
	if uint32(len(chunk)) > s.chunkSize {
		return merrors.InvalidArgument("oversized chunk")
	}

	r := s.region
	r.mu.Lock()
	defer r.mu.Unlock()

	key := chunkKey(s.pmidStem, s.sessionID, chunkIdx)
	prev, existed := r.chunks[key]

	if r.maxBytes > 0 {
		delta := uint64(len(chunk))
		if existed {
			delta -= uint64(len(prev))
		}
		if r.used+delta > r.maxBytes {
			return merrors.ResourceExhausted("blob region exhausted", "OutOfSpace")
		}
		r.used += delta
	}

	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	r.chunks[key] = cp
	return nil
}

func (s *sink) ReadRange(ctx context.Context, offset, length uint64) ([]byte, error) {
	r := s.region
	r.mu.RLock()
	defer r.mu.RUnlock()

	chunkIdx := uint32(offset / uint64(s.chunkSize))
	inner := offset % uint64(s.chunkSize)

	key := chunkKey(s.pmidStem, s.sessionID, chunkIdx)
	data, ok := r.chunks[key]
	if !ok || inner+length > uint64(len(data)) {
		return nil, merrors.NotFound("chunk range not present")
	}
	out := make([]byte, length)
	copy(out, data[inner:inner+length])
	return out, nil
}

func (s *sink) Erase(ctx context.Context) error {
	r := s.region
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := sessionPrefix(s.pmidStem, s.sessionID) + "/"
	for k, v := range r.chunks {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			if r.maxBytes > 0 {
				r.used -= uint64(len(v))
			}
			delete(r.chunks, k)
		}
	}
	return nil
}
