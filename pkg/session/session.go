// Package session implements a domain-agnostic chunked-transfer engine.
// It tracks session lifecycle, chunk-receipt bitmaps, byte counters, TTL,
// and per-owner quotas, and orchestrates a caller-supplied byte sink. It
// has no notion of capsules, memories, or content hashing — that binding
// lives in pkg/upload.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/memvault/memvault/internal/logger"
	"github.com/memvault/memvault/pkg/blobstore"
	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/merrors"
	"github.com/memvault/memvault/pkg/memvault/model"
)

// Status is the session lifecycle state.
type Status int

const (
	StatusPending Status = iota
	StatusActive
	StatusCommitted
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusCommitted:
		return "committed"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Spec describes the parameters of a new session.
type Spec struct {
	ChunkSize     uint32
	BytesExpected uint64
	ExpectedChunks uint32
	Idem          string
}

// Session is the generic chunked-transfer record managed by Service.
// Mutations are serialized by Service's per-session lock; the single
// global-lock critical section of the source's single-threaded runtime is
// re-expressed here as one sync.Mutex per session plus a service-level
// registry lock.
type Session struct {
	ID             ids.SessionId
	Owner          model.PersonRef
	ChunkSize      uint32
	BytesExpected  uint64
	ExpectedChunks uint32
	Idem           string

	BytesReceived  uint64
	ChunksReceived []bool
	Status         Status

	CreatedAt time.Time
	LastSeen  time.Time

	mu sync.Mutex
}

// nextExpectedChunk returns the index the strict in-order policy requires
// next, derived from bytes_received / chunk_size.
func (s *Session) nextExpectedChunk() uint32 {
	return uint32(s.BytesReceived / uint64(s.ChunkSize))
}

// Complete implements the completion predicate: status==Active ∧
// bytes_received == bytes_expected ∧ popcount(chunks_received) ==
// expected_chunks.
func (s *Session) Complete() bool {
	if s.Status != StatusActive {
		return false
	}
	if s.BytesReceived != s.BytesExpected {
		return false
	}
	count := 0
	for _, v := range s.ChunksReceived {
		if v {
			count++
		}
	}
	return count == int(s.ExpectedChunks)
}

// Summary is returned by Finish.
type Summary struct {
	BytesReceived       uint64
	ChunksReceivedCount uint32
}

// Service is the chunked-transfer engine. One Service instance serves all
// sessions for a process; callers key everything off the returned
// SessionId.
type Service struct {
	maxActivePerPrincipal int

	mu       sync.RWMutex
	sessions map[ids.SessionId]*Session
	byOwner  map[string]map[ids.SessionId]struct{}
	byIdem   map[string]ids.SessionId // key = owner.Key()+"/"+idem, for Pending/Active only
}

// NewService constructs a Service with the given per-principal active
// session cap (MAX_ACTIVE_PER_PRINCIPAL).
func NewService(maxActivePerPrincipal int) *Service {
	return &Service{
		maxActivePerPrincipal: maxActivePerPrincipal,
		sessions:              map[ids.SessionId]*Session{},
		byOwner:               map[string]map[ids.SessionId]struct{}{},
		byIdem:                map[string]ids.SessionId{},
	}
}

func idemKey(owner model.PersonRef, idem string) string {
	return owner.Key() + "/" + idem
}

func (svc *Service) activeCount(ownerKey string) int {
	return len(svc.byOwner[ownerKey])
}

// Begin creates a fresh Pending session and returns its id. Returns
// InvalidArgument if bytes_expected is zero, ResourceExhausted if the
// owner is already at the active-session cap.
func (svc *Service) Begin(ctx context.Context, sid ids.SessionId, owner model.PersonRef, spec Spec, now time.Time) error {
	if spec.BytesExpected == 0 {
		return merrors.InvalidArgument("bytes_expected must be > 0")
	}
	if spec.ChunkSize == 0 {
		return merrors.InvalidArgument("chunk_size must be > 0")
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if existing, ok := svc.sessions[sid]; ok {
		_ = existing
		return merrors.Conflictf("session %s already exists", sid)
	}

	ownerKey := owner.Key()
	if svc.activeCount(ownerKey) >= svc.maxActivePerPrincipal {
		return merrors.ResourceExhausted("active session limit", "MAX_ACTIVE_PER_PRINCIPAL")
	}

	s := &Session{
		ID:             sid,
		Owner:          owner,
		ChunkSize:      spec.ChunkSize,
		BytesExpected:  spec.BytesExpected,
		ExpectedChunks: spec.ExpectedChunks,
		Idem:           spec.Idem,
		ChunksReceived: make([]bool, spec.ExpectedChunks),
		Status:         StatusPending,
		CreatedAt:      now,
		LastSeen:       now,
	}
	svc.sessions[sid] = s
	if svc.byOwner[ownerKey] == nil {
		svc.byOwner[ownerKey] = map[ids.SessionId]struct{}{}
	}
	svc.byOwner[ownerKey][sid] = struct{}{}
	if spec.Idem != "" {
		svc.byIdem[idemKey(owner, spec.Idem)] = sid
	}
	return nil
}

// FindPending supports idempotent begin retries: returns the SessionId of
// a still Pending/Active session for (owner, idem), if any.
func (svc *Service) FindPending(owner model.PersonRef, idem string) (ids.SessionId, bool) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	sid, ok := svc.byIdem[idemKey(owner, idem)]
	if !ok {
		return "", false
	}
	s, ok := svc.sessions[sid]
	if !ok || (s.Status != StatusPending && s.Status != StatusActive) {
		return "", false
	}
	return sid, true
}

func (svc *Service) get(sid ids.SessionId) (*Session, error) {
	svc.mu.RLock()
	s, ok := svc.sessions[sid]
	svc.mu.RUnlock()
	if !ok {
		return nil, merrors.NotFound("session not found")
	}
	return s, nil
}

// Get returns the session record, for read-only inspection by UploadService
// (e.g. to fetch pmid_stem-adjacent fields it tracks itself).
func (svc *Service) Get(sid ids.SessionId) (*Session, error) {
	return svc.get(sid)
}

// PutChunk validates ordering/bounds, delegates the bytes to sink, and
// updates the chunk-receipt bitmap and byte counters. caller must equal
// the session owner.
func (svc *Service) PutChunk(ctx context.Context, sid ids.SessionId, caller model.PersonRef, chunkIdx uint32, chunk []byte, sink blobstore.Sink, now time.Time) error {
	s, err := svc.get(sid)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !model.SamePersonRef(s.Owner, caller) {
		return merrors.Unauthorized()
	}
	if s.Status != StatusPending && s.Status != StatusActive {
		return merrors.InvalidArgument("session is not in a writable state")
	}
	if chunkIdx >= s.ExpectedChunks {
		return merrors.InvalidArgument("chunk_idx out of range")
	}
	if uint32(len(chunk)) > s.ChunkSize {
		return merrors.InvalidArgument("oversized chunk")
	}
	if chunkIdx != s.nextExpectedChunk() {
		return merrors.InvalidArgument("chunk received out of order")
	}

	if err := sink.WriteChunk(ctx, chunkIdx, chunk); err != nil {
		if merrors.Is(err, merrors.KindResourceExhausted) {
			return err
		}
		return merrors.Internalf("blob sink write failed: %v", err)
	}

	s.ChunksReceived[chunkIdx] = true
	s.BytesReceived += uint64(len(chunk))
	s.LastSeen = now
	if s.Status == StatusPending {
		s.Status = StatusActive
	}
	return nil
}

// Finish marks a complete session Committed and returns its summary. The
// caller is responsible for deleting session state after post-commit work;
// finish does not itself remove the session.
func (svc *Service) Finish(sid ids.SessionId) (Summary, error) {
	s, err := svc.get(sid)
	if err != nil {
		return Summary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Complete() {
		return Summary{}, merrors.InvalidArgument("session is not complete")
	}

	s.Status = StatusCommitted
	count := uint32(0)
	for _, v := range s.ChunksReceived {
		if v {
			count++
		}
	}
	return Summary{BytesReceived: s.BytesReceived, ChunksReceivedCount: count}, nil
}

// Abort marks the session Aborted. Idempotent on already-terminal sessions.
func (svc *Service) Abort(sid ids.SessionId) error {
	s, err := svc.get(sid)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Status == StatusCommitted || s.Status == StatusAborted {
		return nil
	}
	s.Status = StatusAborted
	return nil
}

// Delete removes session bookkeeping entirely. Called by UploadService
// after Finish/Abort side effects (blob commit or chunk erasure) complete.
func (svc *Service) Delete(sid ids.SessionId) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.deleteLocked(sid)
}

// deleteLocked removes session bookkeeping; callers must hold svc.mu for
// writing.
func (svc *Service) deleteLocked(sid ids.SessionId) {
	s, ok := svc.sessions[sid]
	if !ok {
		return
	}
	delete(svc.sessions, sid)
	ownerKey := s.Owner.Key()
	if m, ok := svc.byOwner[ownerKey]; ok {
		delete(m, sid)
		if len(m) == 0 {
			delete(svc.byOwner, ownerKey)
		}
	}
	if s.Idem != "" {
		if cur, ok := svc.byIdem[idemKey(s.Owner, s.Idem)]; ok && cur == sid {
			delete(svc.byIdem, idemKey(s.Owner, s.Idem))
		}
	}
}

// TickTTL sweeps sessions idle longer than ttl, marks them Aborted, logs
// SESSION_EXPIRED, and evicts them from the registry so the owner's active
// slot is freed and a retried begin with the same deterministic session id
// doesn't hit a stale Conflict. Returns the ids of the sessions expired;
// the caller (UploadService) is responsible for erasing whatever chunk
// bytes those sessions already wrote.
func (svc *Service) TickTTL(ctx context.Context, now time.Time, ttl time.Duration) []ids.SessionId {
	svc.mu.RLock()
	candidates := make([]*Session, 0, len(svc.sessions))
	for _, s := range svc.sessions {
		candidates = append(candidates, s)
	}
	svc.mu.RUnlock()

	var expired []ids.SessionId
	for _, s := range candidates {
		s.mu.Lock()
		if (s.Status == StatusPending || s.Status == StatusActive) && now.Sub(s.LastSeen) > ttl {
			s.Status = StatusAborted
			expired = append(expired, s.ID)
			logger.Info("SESSION_EXPIRED", "sid", s.ID)
		}
		s.mu.Unlock()
	}

	if len(expired) > 0 {
		svc.mu.Lock()
		for _, sid := range expired {
			svc.deleteLocked(sid)
		}
		svc.mu.Unlock()
	}
	return expired
}
