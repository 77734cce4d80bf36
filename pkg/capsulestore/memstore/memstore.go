// Package memstore is the in-memory capsulestore.Store implementation: a
// map of capsules guarded by a single RWMutex. Reads return the stored
// *model.Capsule and *model.Memory values themselves, not copies.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/memvault/memvault/pkg/capsulestore"
	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/merrors"
	"github.com/memvault/memvault/pkg/memvault/model"
)

// defaultInlineBudget bounds aggregate inline bytes per capsule
// (CAPSULE_INLINE_BUDGET).
const defaultInlineBudget = 10 * 1024 * 1024

// Store is the in-memory CapsuleStore, safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	capsules    map[ids.CapsuleId]*model.Capsule
	memoryIndex map[ids.MemoryId]ids.CapsuleId
	blobRefs    map[string]int // blob locator -> reference count across all memories
	selfCapsule map[string]ids.CapsuleId

	inlineBudget uint64
	extraReaders capsulestore.ExtraReaders

	now func() time.Time
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		capsules:     map[ids.CapsuleId]*model.Capsule{},
		memoryIndex:  map[ids.MemoryId]ids.CapsuleId{},
		blobRefs:     map[string]int{},
		selfCapsule:  map[string]ids.CapsuleId{},
		inlineBudget: defaultInlineBudget,
		now:          time.Now,
	}
}

// SetExtraReaders installs the membership-resolution hook.
func (s *Store) SetExtraReaders(fn capsulestore.ExtraReaders) { s.extraReaders = fn }

func (s *Store) canRead(c *model.Capsule, caller model.PersonRef) bool {
	if c.HasWriteAccess(caller) {
		return true
	}
	if s.extraReaders != nil && s.extraReaders(c.ID, caller) {
		return true
	}
	return false
}

// CapsulesCreate implements capsulestore.Store.
func (s *Store) CapsulesCreate(ctx context.Context, caller model.PersonRef, subject model.PersonRef) (*model.Capsule, error) {
	if subject == nil {
		subject = caller
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.selfCapsule[subject.Key()]; ok {
		return s.capsules[existingID], nil
	}

	id := ids.CapsuleId(uuid.NewString())
	now := s.now()
	c := model.NewCapsule(id, subject, caller, now)
	s.capsules[id] = c
	s.selfCapsule[subject.Key()] = id
	return c, nil
}

// CapsulesReadBasic implements capsulestore.Store.
func (s *Store) CapsulesReadBasic(ctx context.Context, caller model.PersonRef, id *ids.CapsuleId) (*model.Capsule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var capsuleID ids.CapsuleId
	if id == nil {
		self, ok := s.selfCapsule[caller.Key()]
		if !ok {
			return nil, merrors.NotFound("no self-capsule for caller")
		}
		capsuleID = self
	} else {
		capsuleID = *id
	}

	c, ok := s.capsules[capsuleID]
	if !ok || !s.canRead(c, caller) {
		return nil, merrors.NotFound("capsule not found")
	}
	return c, nil
}

// CapsulesList implements capsulestore.Store.
func (s *Store) CapsulesList(ctx context.Context, caller model.PersonRef) ([]capsulestore.CapsuleHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]capsulestore.CapsuleHeader, 0)
	for _, c := range s.capsules {
		if !s.canRead(c, caller) {
			continue
		}
		out = append(out, capsulestore.CapsuleHeader{
			ID:          c.ID,
			Subject:     c.Subject,
			NumMemories: len(c.Memories),
		})
	}
	return out, nil
}

// CapsulesDelete implements capsulestore.Store.
func (s *Store) CapsulesDelete(ctx context.Context, caller model.PersonRef, id ids.CapsuleId, eraser capsulestore.BlobEraser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.capsules[id]
	if !ok {
		return merrors.NotFound("capsule not found")
	}
	if !c.IsOwner(caller) {
		return merrors.Unauthorized()
	}

	for mid, m := range c.Memories {
		s.cascadeDeleteMemoryLocked(m, eraser, ctx)
		delete(s.memoryIndex, mid)
	}
	delete(s.capsules, id)
	if self, ok := s.selfCapsule[c.Subject.Key()]; ok && self == id {
		delete(s.selfCapsule, c.Subject.Key())
	}
	return nil
}

// MemoriesCreate implements capsulestore.Store. Memory id is deterministic
// from (capsule_id, idem); repeated creation with the same idem is a no-op
// returning the existing id.
func (s *Store) MemoriesCreate(ctx context.Context, caller model.PersonRef, capsuleID ids.CapsuleId, data model.AssetData, meta model.AssetMetadata, access model.MemoryAccess, idem string) (ids.MemoryId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.capsules[capsuleID]
	if !ok {
		return "", merrors.NotFound("capsule not found")
	}
	if !c.HasWriteAccess(caller) {
		return "", merrors.Unauthorized()
	}

	memID := ids.MemoryID(capsuleID, idem)
	if _, exists := c.Memories[memID]; exists {
		return memID, nil
	}

	now := s.now()
	mem := &model.Memory{ID: memID, Access: access}
	mem.Metadata = metadataFromAsset(meta, now)

	switch d := data.(type) {
	case model.AssetDataInline:
		if meta.Base().Bytes != uint64(len(d.Bytes)) {
			return "", merrors.InvalidArgument("inline asset bytes length mismatch")
		}
		if c.InlineBytesUsed+uint64(len(d.Bytes)) > s.inlineBudget {
			return "", merrors.ResourceExhausted("capsule inline budget exceeded", "CAPSULE_INLINE_BUDGET")
		}
		mem.InlineAssets = append(mem.InlineAssets, model.MemoryAssetInline{Bytes: append([]byte(nil), d.Bytes...), Metadata: meta})
		c.InlineBytesUsed += uint64(len(d.Bytes))

	case model.AssetDataBlobRef:
		if meta.Base().Bytes != d.BlobRef.Len {
			return "", merrors.InvalidArgument("blob asset bytes length mismatch")
		}
		mem.BlobInternalAssets = append(mem.BlobInternalAssets, model.MemoryAssetBlobInternal{BlobRef: d.BlobRef, Metadata: meta})
		s.blobRefs[d.BlobRef.Locator]++

	case model.AssetDataExternal:
		if d.StorageKey == "" {
			return "", merrors.InvalidArgument("external asset requires storage_key")
		}
		if meta.Base().Bytes != 0 && d.Size != 0 && meta.Base().Bytes != d.Size {
			return "", merrors.InvalidArgument("external asset size mismatch")
		}
		if meta.Base().SHA256 != nil && d.Hash != nil && *meta.Base().SHA256 != *d.Hash {
			return "", merrors.InvalidArgument("external asset hash mismatch")
		}
		mem.BlobExternalAssets = append(mem.BlobExternalAssets, model.MemoryAssetBlobExternal{
			Location: d.Location, StorageKey: d.StorageKey, URL: d.URL, Metadata: meta,
		})

	default:
		return "", merrors.InvalidArgument("unknown asset data variant")
	}

	c.Memories[memID] = mem
	s.memoryIndex[memID] = capsuleID
	c.UpdatedAt = now

	// Post-write readback guard: assert the memory is reachable the way a
	// reader would find it.
	if _, ok := c.Memories[memID]; !ok {
		return "", merrors.Internal("post-write readback failed")
	}
	return memID, nil
}

func metadataFromAsset(meta model.AssetMetadata, now time.Time) model.MemoryMetadata {
	base := meta.Base()
	return model.MemoryMetadata{
		MemoryType:  meta.Kind(),
		Title:       stringPtr(base.Name),
		ContentType: base.MimeType,
		CreatedAt:   now,
		UpdatedAt:   now,
		UploadedAt:  now,
		Tags:        base.Tags,
	}
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// MemoriesRead implements capsulestore.Store.
func (s *Store) MemoriesRead(ctx context.Context, caller model.PersonRef, id ids.MemoryId) (*model.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	capsuleID, ok := s.memoryIndex[id]
	if !ok {
		return nil, merrors.NotFound("memory not found")
	}
	c, ok := s.capsules[capsuleID]
	if !ok || !s.canRead(c, caller) {
		return nil, merrors.NotFound("memory not found")
	}
	m, ok := c.Memories[id]
	if !ok {
		return nil, merrors.NotFound("memory not found")
	}
	return m, nil
}

// MemoriesList implements capsulestore.Store. Uses the same access
// predicate as MemoriesRead and CapsulesList.
func (s *Store) MemoriesList(ctx context.Context, caller model.PersonRef, capsuleID ids.CapsuleId) ([]model.MemoryHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.capsules[capsuleID]
	if !ok {
		return nil, merrors.NotFound("capsule not found")
	}
	if !s.canRead(c, caller) {
		return nil, merrors.Unauthorized()
	}

	out := make([]model.MemoryHeader, 0, len(c.Memories))
	for _, m := range c.Memories {
		out = append(out, m.Header())
	}
	return out, nil
}

func (s *Store) writableMemory(caller model.PersonRef, id ids.MemoryId) (*model.Capsule, *model.Memory, error) {
	capsuleID, ok := s.memoryIndex[id]
	if !ok {
		return nil, nil, merrors.NotFound("memory not found")
	}
	c, ok := s.capsules[capsuleID]
	if !ok {
		return nil, nil, merrors.NotFound("memory not found")
	}
	if !c.HasWriteAccess(caller) {
		return nil, nil, merrors.Unauthorized()
	}
	m, ok := c.Memories[id]
	if !ok {
		return nil, nil, merrors.NotFound("memory not found")
	}
	return c, m, nil
}

// MemoriesUpdate implements capsulestore.Store.
func (s *Store) MemoriesUpdate(ctx context.Context, caller model.PersonRef, id ids.MemoryId, update model.MemoryUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, m, err := s.writableMemory(caller, id)
	if err != nil {
		return err
	}

	if update.Title != nil {
		m.Metadata.Title = update.Title
	}
	if update.Description != nil {
		m.Metadata.Description = update.Description
	}
	if update.Tags != nil {
		m.Metadata.Tags = update.Tags
	}
	if update.DateOfMemory != nil {
		m.Metadata.DateOfMemory = update.DateOfMemory
	}
	if update.ParentFolderID != nil {
		m.Metadata.ParentFolderID = update.ParentFolderID
	}
	if update.Location != nil {
		m.Metadata.Location = update.Location
	}
	if update.MemoryNotes != nil {
		m.Metadata.MemoryNotes = update.MemoryNotes
	}
	if update.Access != nil {
		m.Access = update.Access
	}
	m.Metadata.UpdatedAt = s.now()
	c.UpdatedAt = m.Metadata.UpdatedAt
	return nil
}

// cascadeDeleteMemoryLocked drops a memory's blob references and erases
// any internal blob no longer referenced by another memory. It does not
// touch InlineBytesUsed; callers that need to release the inline budget
// do so themselves. Caller must hold s.mu.
func (s *Store) cascadeDeleteMemoryLocked(m *model.Memory, eraser capsulestore.BlobEraser, ctx context.Context) {
	for _, a := range m.InlineAssets {
		_ = a // inline bytes accounted at the capsule level by caller
	}
	for _, a := range m.BlobInternalAssets {
		s.blobRefs[a.BlobRef.Locator]--
		if s.blobRefs[a.BlobRef.Locator] <= 0 {
			delete(s.blobRefs, a.BlobRef.Locator)
			if eraser != nil {
				_ = eraser.EraseBlob(ctx, a.BlobRef.Locator)
			}
		}
	}
}

// MemoriesDelete implements capsulestore.Store.
func (s *Store) MemoriesDelete(ctx context.Context, caller model.PersonRef, id ids.MemoryId, eraser capsulestore.BlobEraser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, m, err := s.writableMemory(caller, id)
	if err != nil {
		return err
	}

	var inlineBytes uint64
	for _, a := range m.InlineAssets {
		inlineBytes += uint64(len(a.Bytes))
	}
	c.InlineBytesUsed -= inlineBytes

	s.cascadeDeleteMemoryLocked(m, eraser, ctx)
	delete(c.Memories, id)
	delete(s.memoryIndex, id)
	c.UpdatedAt = s.now()
	return nil
}

// MemoriesDeleteBulk implements capsulestore.Store.
func (s *Store) MemoriesDeleteBulk(ctx context.Context, caller model.PersonRef, capsuleID ids.CapsuleId, memoryIDs []ids.MemoryId, eraser capsulestore.BlobEraser) (capsulestore.BulkDeleteResult, error) {
	result := capsulestore.BulkDeleteResult{Failed: map[ids.MemoryId]error{}}
	for _, mid := range memoryIDs {
		if err := s.MemoriesDelete(ctx, caller, mid, eraser); err != nil {
			result.Failed[mid] = err
			continue
		}
		result.Deleted = append(result.Deleted, mid)
	}
	return result, nil
}

// MemoriesDeleteAll implements capsulestore.Store.
func (s *Store) MemoriesDeleteAll(ctx context.Context, caller model.PersonRef, capsuleID ids.CapsuleId, eraser capsulestore.BlobEraser) (capsulestore.DeleteAllResult, error) {
	s.mu.Lock()
	c, ok := s.capsules[capsuleID]
	if !ok {
		s.mu.Unlock()
		return capsulestore.DeleteAllResult{}, merrors.NotFound("capsule not found")
	}
	if !c.HasWriteAccess(caller) {
		s.mu.Unlock()
		return capsulestore.DeleteAllResult{}, merrors.Unauthorized()
	}
	memIDs := make([]ids.MemoryId, 0, len(c.Memories))
	for mid := range c.Memories {
		memIDs = append(memIDs, mid)
	}
	s.mu.Unlock()

	deleted := 0
	for _, mid := range memIDs {
		if err := s.MemoriesDelete(ctx, caller, mid, eraser); err == nil {
			deleted++
		}
	}
	return capsulestore.DeleteAllResult{Deleted: deleted}, nil
}

// MemoriesAddAsset implements capsulestore.Store.
func (s *Store) MemoriesAddAsset(ctx context.Context, caller model.PersonRef, id ids.MemoryId, ref model.BlobRef, meta model.AssetMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, m, err := s.writableMemory(caller, id)
	if err != nil {
		return err
	}
	if meta.Base().Bytes != ref.Len {
		return merrors.InvalidArgument("blob asset bytes length mismatch")
	}
	m.BlobInternalAssets = append(m.BlobInternalAssets, model.MemoryAssetBlobInternal{BlobRef: ref, Metadata: meta})
	s.blobRefs[ref.Locator]++
	m.Metadata.UpdatedAt = s.now()
	c.UpdatedAt = m.Metadata.UpdatedAt
	return nil
}

// MemoriesAddInlineAsset implements capsulestore.Store.
func (s *Store) MemoriesAddInlineAsset(ctx context.Context, caller model.PersonRef, id ids.MemoryId, bytes []byte, meta model.AssetMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, m, err := s.writableMemory(caller, id)
	if err != nil {
		return err
	}
	if meta.Base().Bytes != uint64(len(bytes)) {
		return merrors.InvalidArgument("inline asset bytes length mismatch")
	}
	if c.InlineBytesUsed+uint64(len(bytes)) > s.inlineBudget {
		return merrors.ResourceExhausted("capsule inline budget exceeded", "CAPSULE_INLINE_BUDGET")
	}
	m.InlineAssets = append(m.InlineAssets, model.MemoryAssetInline{Bytes: append([]byte(nil), bytes...), Metadata: meta})
	c.InlineBytesUsed += uint64(len(bytes))
	m.Metadata.UpdatedAt = s.now()
	c.UpdatedAt = m.Metadata.UpdatedAt
	return nil
}

// MemoriesCleanupAssetsAll implements capsulestore.Store.
func (s *Store) MemoriesCleanupAssetsAll(ctx context.Context, caller model.PersonRef, id ids.MemoryId, eraser capsulestore.BlobEraser) (capsulestore.CleanupResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, m, err := s.writableMemory(caller, id)
	if err != nil {
		return capsulestore.CleanupResult{}, err
	}

	cleaned := m.AssetCount()
	var inlineBytes uint64
	for _, a := range m.InlineAssets {
		inlineBytes += uint64(len(a.Bytes))
	}
	c.InlineBytesUsed -= inlineBytes

	s.cascadeDeleteMemoryLocked(m, eraser, ctx)
	m.InlineAssets = nil
	m.BlobInternalAssets = nil
	m.BlobExternalAssets = nil
	m.Metadata.UpdatedAt = s.now()
	c.UpdatedAt = m.Metadata.UpdatedAt

	return capsulestore.CleanupResult{AssetsCleaned: cleaned}, nil
}

// AssetRemoveInline implements capsulestore.Store.
func (s *Store) AssetRemoveInline(ctx context.Context, caller model.PersonRef, id ids.MemoryId, idx int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, m, err := s.writableMemory(caller, id)
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(m.InlineAssets) {
		return merrors.InvalidArgument("inline asset index out of range")
	}
	c.InlineBytesUsed -= uint64(len(m.InlineAssets[idx].Bytes))
	m.InlineAssets = append(m.InlineAssets[:idx], m.InlineAssets[idx+1:]...)
	m.Metadata.UpdatedAt = s.now()
	c.UpdatedAt = m.Metadata.UpdatedAt
	return nil
}

// AssetRemoveInternal implements capsulestore.Store.
func (s *Store) AssetRemoveInternal(ctx context.Context, caller model.PersonRef, id ids.MemoryId, blobLocator string, eraser capsulestore.BlobEraser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, m, err := s.writableMemory(caller, id)
	if err != nil {
		return err
	}
	idx := -1
	for i, a := range m.BlobInternalAssets {
		if a.BlobRef.Locator == blobLocator {
			idx = i
			break
		}
	}
	if idx < 0 {
		return merrors.NotFound("asset not found")
	}
	m.BlobInternalAssets = append(m.BlobInternalAssets[:idx], m.BlobInternalAssets[idx+1:]...)
	s.blobRefs[blobLocator]--
	if s.blobRefs[blobLocator] <= 0 {
		delete(s.blobRefs, blobLocator)
		if eraser != nil {
			_ = eraser.EraseBlob(ctx, blobLocator)
		}
	}
	m.Metadata.UpdatedAt = s.now()
	return nil
}

// AssetRemoveExternal implements capsulestore.Store.
func (s *Store) AssetRemoveExternal(ctx context.Context, caller model.PersonRef, id ids.MemoryId, storageKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, m, err := s.writableMemory(caller, id)
	if err != nil {
		return err
	}
	idx := -1
	for i, a := range m.BlobExternalAssets {
		if a.StorageKey == storageKey {
			idx = i
			break
		}
	}
	if idx < 0 {
		return merrors.NotFound("asset not found")
	}
	m.BlobExternalAssets = append(m.BlobExternalAssets[:idx], m.BlobExternalAssets[idx+1:]...)
	m.Metadata.UpdatedAt = s.now()
	return nil
}
