// Package upload implements UploadService: the upload-domain wrapper that
// binds an ACL-checked capsule and asset metadata to a SessionService
// session, maintains the rolling SHA-256 digest, and on finish validates
// integrity and commits the blob into CapsuleStore.
package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"sync"
	"sync/atomic"
	"time"

	"github.com/memvault/memvault/internal/logger"
	"github.com/memvault/memvault/pkg/blobstore"
	"github.com/memvault/memvault/pkg/capsulestore"
	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/merrors"
	"github.com/memvault/memvault/pkg/memvault/model"
	"github.com/memvault/memvault/pkg/metrics"
	"github.com/memvault/memvault/pkg/session"
)

// uploadState tracks the upload-domain fields SessionService doesn't know
// about: the bound capsule, the asset metadata, the deterministic pmid
// stem, and the in-flight rolling hash context.
type uploadState struct {
	mu         sync.Mutex
	CapsuleID  ids.CapsuleId
	Owner      model.PersonRef
	AssetMeta  model.AssetMetadata
	PmidStem   string
	Idem       string
	Hash       hash.Hash
}

// Service is UploadService.
type Service struct {
	sessions *session.Service
	region   blobstore.Region
	store    capsulestore.Store

	blobIDCounter atomic.Uint64

	mu     sync.Mutex
	states map[ids.SessionId]*uploadState

	now     func() time.Time
	metrics *metrics.UploadMetrics
}

// NewService constructs an UploadService bound to sessions, a blob region,
// and a capsule catalog.
func NewService(sessions *session.Service, region blobstore.Region, store capsulestore.Store) *Service {
	return &Service{
		sessions: sessions,
		region:   region,
		store:    store,
		states:   map[ids.SessionId]*uploadState{},
		now:      time.Now,
	}
}

// SetMetrics installs the Prometheus instrumentation this service reports
// to. Nil-safe by default: a Service with no metrics installed records
// nothing, since UploadMetrics' own methods are no-ops on a nil receiver.
func (svc *Service) SetMetrics(m *metrics.UploadMetrics) { svc.metrics = m }

// EraseBlob implements capsulestore.BlobEraser by erasing the session-scoped
// sink addressed by a committed blob's own locator used as both pmid stem
// and session id — the same deterministic derivation used at commit time,
// see commitBlob.
func (svc *Service) EraseBlob(ctx context.Context, locator string) error {
	sink := svc.region.ForSession(locator, ids.SessionId(locator), ChunkSize)
	return sink.Erase(ctx)
}

// BeginUpload resolves the capsule, checks write access, validates
// expected_chunks, computes pmid_stem, and opens a SessionService session.
// totalLen is the caller-declared total byte length of the asset; this
// engine requires it at begin (rather than only at finish) so
// SessionService's completion predicate can be evaluated without
// backfilling bytes_expected later — see DESIGN.md's resolution of this
// open question.
func (svc *Service) BeginUpload(ctx context.Context, caller model.PersonRef, capsuleID ids.CapsuleId, assetMeta model.AssetMetadata, expectedChunks uint32, totalLen uint64, idem string) (ids.SessionId, *ids.MemoryId, error) {
	if expectedChunks == 0 || expectedChunks > MaxChunks {
		return "", nil, merrors.InvalidArgument("expected_chunks out of range")
	}

	capsule, err := svc.store.CapsulesReadBasic(ctx, caller, &capsuleID)
	if err != nil {
		return "", nil, err
	}
	if !capsule.HasWriteAccess(caller) {
		return "", nil, merrors.Unauthorized()
	}

	if sid, ok := svc.sessions.FindPending(caller, idem); ok {
		return sid, nil, nil
	}

	memID := ids.MemoryID(capsuleID, idem)
	if existing, err := svc.store.MemoriesRead(ctx, caller, memID); err == nil && existing != nil {
		return "", &memID, nil
	}

	sid := ids.SessionId(fmt.Sprintf("sess_%s_%s", capsuleID, idem))
	pmidStem := ids.PmidStem(capsuleID, idem)

	now := svc.now()
	if err := svc.sessions.Begin(ctx, sid, caller, session.Spec{
		ChunkSize:      ChunkSize,
		BytesExpected:  totalLen,
		ExpectedChunks: expectedChunks,
		Idem:           idem,
	}, now); err != nil {
		return "", nil, err
	}

	svc.mu.Lock()
	svc.states[sid] = &uploadState{
		CapsuleID: capsuleID,
		Owner:     caller,
		AssetMeta: assetMeta,
		PmidStem:  pmidStem,
		Idem:      idem,
		Hash:      sha256.New(),
	}
	svc.mu.Unlock()

	svc.metrics.RecordBegin()

	logger.Info("upload session started", "sid", sid, "capsule_id", capsuleID)
	return sid, nil, nil
}

func (svc *Service) state(sid ids.SessionId) (*uploadState, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	st, ok := svc.states[sid]
	if !ok {
		return nil, merrors.NotFound("upload session not found")
	}
	return st, nil
}

func (svc *Service) dropState(sid ids.SessionId) {
	svc.mu.Lock()
	delete(svc.states, sid)
	svc.mu.Unlock()
}

// UploadsPutChunk delegates to SessionService.PutChunk and folds the bytes
// into the session's rolling SHA-256 context on success.
func (svc *Service) UploadsPutChunk(ctx context.Context, caller model.PersonRef, sid ids.SessionId, chunkIdx uint32, chunk []byte) error {
	st, err := svc.state(sid)
	if err != nil {
		return err
	}
	if !model.SamePersonRef(st.Owner, caller) {
		return merrors.Unauthorized()
	}

	sink := svc.region.ForSession(st.PmidStem, sid, ChunkSize)
	start := svc.now()
	if err := svc.sessions.PutChunk(ctx, sid, caller, chunkIdx, chunk, sink, start); err != nil {
		return err
	}
	svc.metrics.RecordChunk(len(chunk), svc.now().Sub(start).Seconds())

	st.mu.Lock()
	st.Hash.Write(chunk)
	st.mu.Unlock()
	return nil
}

// UploadsFinish verifies completion and integrity, then atomically inserts
// a Memory with a BlobInternal asset referencing the finalized blob.
func (svc *Service) UploadsFinish(ctx context.Context, caller model.PersonRef, sid ids.SessionId, expectedSHA256 string, totalLen uint64) (ids.MemoryId, error) {
	logger.Info("FINISH_START", "sid", sid)

	finishStart := svc.now()

	sess, err := svc.sessions.Get(sid)
	if err != nil {
		return "", err
	}
	if !model.SamePersonRef(sess.Owner, caller) {
		return "", merrors.Unauthorized()
	}
	if !sess.Complete() {
		return "", merrors.InvalidArgument("session is not complete")
	}

	st, err := svc.state(sid)
	if err != nil {
		return "", err
	}

	st.mu.Lock()
	computedHash := hex.EncodeToString(st.Hash.Sum(nil))
	st.mu.Unlock()

	sink := svc.region.ForSession(st.PmidStem, sid, ChunkSize)

	if computedHash != expectedSHA256 || sess.BytesReceived != totalLen {
		_ = svc.sessions.Abort(sid)
		_ = sink.Erase(ctx)
		svc.sessions.Delete(sid)
		svc.dropState(sid)
		svc.metrics.RecordIntegrityMismatch()
		svc.metrics.RecordAbort("integrity_mismatch")
		return "", merrors.IntegrityMismatch(expectedSHA256, computedHash)
	}

	logger.Info("FINISH_HASH_OK", "sid", sid, "hash", computedHash)

	summary, err := svc.sessions.Finish(sid)
	if err != nil {
		return "", err
	}

	blobID := ids.BlobId(svc.blobIDCounter.Add(1))
	blobRef := model.NewBlobRef(blobID, computedHash, summary.BytesReceived)

	memID, err := svc.store.MemoriesCreate(ctx, caller, st.CapsuleID, model.AssetDataBlobRef{BlobRef: blobRef}, st.AssetMeta, model.AccessPrivate{}, st.Idem)
	if err != nil {
		_ = svc.sessions.Abort(sid)
		svc.sessions.Delete(sid)
		svc.dropState(sid)
		svc.metrics.RecordAbort("commit_failed")
		return "", merrors.Wrap("uploads_finish: commit", err)
	}

	svc.sessions.Delete(sid)
	svc.dropState(sid)
	svc.metrics.RecordCommit(svc.now().Sub(finishStart).Seconds())

	logger.Info("FINISH_INDEX_COMMITTED", "sid", sid, "mid", memID)
	return memID, nil
}

// UploadsAbort aborts the session and erases any bytes already written.
// Idempotent: calling it twice is safe.
func (svc *Service) UploadsAbort(ctx context.Context, caller model.PersonRef, sid ids.SessionId) error {
	sess, err := svc.sessions.Get(sid)
	if err != nil {
		return err
	}
	if !model.SamePersonRef(sess.Owner, caller) {
		return merrors.Unauthorized()
	}

	st, stErr := svc.state(sid)
	if stErr == nil {
		sink := svc.region.ForSession(st.PmidStem, sid, ChunkSize)
		_ = sink.Erase(ctx)
	}

	if err := svc.sessions.Abort(sid); err != nil {
		return err
	}
	svc.sessions.Delete(sid)
	svc.dropState(sid)
	svc.metrics.RecordAbort("client_request")
	return nil
}

// TickTTL sweeps expired sessions, erasing each one's already-written
// chunk bytes and dropping its upload-domain state the same way
// UploadsAbort does. Intended to be driven by a time.Ticker-based
// goroutine owned by cmd/memvaultd.
func (svc *Service) TickTTL(ctx context.Context, now time.Time, ttl time.Duration) int {
	expired := svc.sessions.TickTTL(ctx, now, ttl)
	for _, sid := range expired {
		if st, err := svc.state(sid); err == nil {
			sink := svc.region.ForSession(st.PmidStem, sid, ChunkSize)
			_ = sink.Erase(ctx)
		}
		svc.dropState(sid)
	}

	n := len(expired)
	if n > 0 {
		svc.metrics.RecordTTLExpirations(n)
	}
	return n
}
