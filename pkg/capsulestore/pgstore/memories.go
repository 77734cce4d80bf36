package pgstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/memvault/memvault/pkg/capsulestore"
	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/merrors"
	"github.com/memvault/memvault/pkg/memvault/model"
)

// MemoriesCreate inserts a new memory with exactly one populated asset
// vector, matched to data's concrete variant. Deterministic and idempotent
// per (capsuleID, idem).
func (s *Store) MemoriesCreate(ctx context.Context, caller model.PersonRef, capsuleID ids.CapsuleId, data model.AssetData, meta model.AssetMetadata, access model.MemoryAccess, idem string) (ids.MemoryId, error) {
	memID := ids.MemoryID(capsuleID, idem)

	var result ids.MemoryId
	err := s.db.Transaction(func(tx *gorm.DB) error {
		c, err := s.getCapsuleTx(tx, capsuleID)
		if err != nil {
			return err
		}
		if !c.HasWriteAccess(caller) {
			return merrors.Unauthorized()
		}

		if _, ok := c.Memories[memID]; ok {
			result = memID
			return nil
		}

		now := pgNow()
		m := &model.Memory{
			ID: memID,
			Metadata: model.MemoryMetadata{
				MemoryType:  meta.Kind(),
				ContentType: meta.Base().MimeType,
				CreatedAt:   now,
				UpdatedAt:   now,
				UploadedAt:  now,
			},
			Access: access,
		}

		switch v := data.(type) {
		case model.AssetDataInline:
			if meta.Base().Bytes != uint64(len(v.Bytes)) {
				return merrors.InvalidArgument("inline asset bytes length mismatch")
			}
			m.InlineAssets = append(m.InlineAssets, model.MemoryAssetInline{Bytes: v.Bytes, Metadata: meta})
			c.InlineBytesUsed += uint64(len(v.Bytes))
		case model.AssetDataBlobRef:
			if meta.Base().Bytes != v.BlobRef.Len {
				return merrors.InvalidArgument("blob asset bytes length mismatch")
			}
			m.BlobInternalAssets = append(m.BlobInternalAssets, model.MemoryAssetBlobInternal{BlobRef: v.BlobRef, Metadata: meta})
			if refErr := s.incrementBlobRefTx(tx, v.BlobRef.Locator); refErr != nil {
				return refErr
			}
		case model.AssetDataExternal:
			if v.StorageKey == "" {
				return merrors.InvalidArgument("external asset requires storage_key")
			}
			if meta.Base().Bytes != v.Size {
				return merrors.InvalidArgument("external asset size mismatch")
			}
			m.BlobExternalAssets = append(m.BlobExternalAssets, model.MemoryAssetBlobExternal{
				Location: v.Location, StorageKey: v.StorageKey, URL: v.URL, Metadata: meta,
			})
		default:
			return merrors.InvalidArgumentf("unknown asset data variant %T", data)
		}

		c.Memories[memID] = m
		c.UpdatedAt = now
		if putErr := s.putCapsuleTx(tx, c); putErr != nil {
			return putErr
		}
		idxRow := memoryIndexRow{MemoryID: string(memID), CapsuleID: string(capsuleID)}
		if setErr := tx.Create(&idxRow).Error; setErr != nil {
			return merrors.Internalf("pgstore set memory index: %v", setErr)
		}

		readback, err := s.getCapsuleTx(tx, capsuleID)
		if err != nil || readback.Memories[memID] == nil {
			return merrors.Internal("post-write readback failed")
		}

		result = memID
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

func (s *Store) resolveMemoryCapsuleTx(tx *gorm.DB, id ids.MemoryId) (*model.Capsule, *model.Memory, error) {
	var idxRow memoryIndexRow
	err := tx.Where("memory_id = ?", string(id)).First(&idxRow).Error
	if isRecordNotFound(err) {
		return nil, nil, merrors.NotFound("memory not found")
	}
	if err != nil {
		return nil, nil, merrors.Internalf("pgstore get memory index: %v", err)
	}
	c, err := s.getCapsuleTx(tx, ids.CapsuleId(idxRow.CapsuleID))
	if err != nil {
		return nil, nil, err
	}
	m, ok := c.Memories[id]
	if !ok {
		return nil, nil, merrors.NotFound("memory not found")
	}
	return c, m, nil
}

// MemoriesRead returns a memory readable by caller.
func (s *Store) MemoriesRead(ctx context.Context, caller model.PersonRef, id ids.MemoryId) (*model.Memory, error) {
	var out *model.Memory
	err := s.db.Transaction(func(tx *gorm.DB) error {
		c, m, err := s.resolveMemoryCapsuleTx(tx, id)
		if err != nil {
			return err
		}
		if !s.canRead(c, caller) {
			return merrors.NotFound("memory not found")
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MemoriesList lists memory headers within a capsule, using the same
// read-access predicate as MemoriesRead/CapsulesList.
func (s *Store) MemoriesList(ctx context.Context, caller model.PersonRef, capsuleID ids.CapsuleId) ([]model.MemoryHeader, error) {
	var out []model.MemoryHeader
	err := s.db.Transaction(func(tx *gorm.DB) error {
		c, err := s.getCapsuleTx(tx, capsuleID)
		if err != nil {
			return err
		}
		if !s.canRead(c, caller) {
			return merrors.NotFound("capsule not found")
		}
		out = make([]model.MemoryHeader, 0, len(c.Memories))
		for _, m := range c.Memories {
			out = append(out, m.Header())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func writablePgMemory(tx *gorm.DB, s *Store, caller model.PersonRef, id ids.MemoryId) (*model.Capsule, *model.Memory, error) {
	c, m, err := s.resolveMemoryCapsuleTx(tx, id)
	if err != nil {
		return nil, nil, err
	}
	if !c.HasWriteAccess(caller) {
		return nil, nil, merrors.Unauthorized()
	}
	return c, m, nil
}

// MemoriesUpdate merges non-nil fields of update into the memory's metadata.
func (s *Store) MemoriesUpdate(ctx context.Context, caller model.PersonRef, id ids.MemoryId, update model.MemoryUpdate) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		c, m, err := writablePgMemory(tx, s, caller, id)
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
		m.Metadata.UpdatedAt = pgNow()
		return s.putCapsuleTx(tx, c)
	})
}

func (s *Store) cascadeDeleteMemoryTx(ctx context.Context, tx *gorm.DB, m *model.Memory, eraser capsulestore.BlobEraser) error {
	for _, a := range m.BlobInternalAssets {
		if err := s.decrementBlobRefTx(ctx, tx, a.BlobRef.Locator, eraser); err != nil {
			return err
		}
	}
	return nil
}

// MemoriesDelete removes a memory and cascades to its unreferenced blobs.
func (s *Store) MemoriesDelete(ctx context.Context, caller model.PersonRef, id ids.MemoryId, eraser capsulestore.BlobEraser) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		c, m, err := writablePgMemory(tx, s, caller, id)
		if err != nil {
			return err
		}
		if err := s.cascadeDeleteMemoryTx(ctx, tx, m, eraser); err != nil {
			return err
		}
		for _, a := range m.InlineAssets {
			c.InlineBytesUsed -= uint64(len(a.Bytes))
		}
		delete(c.Memories, id)
		if err := tx.Where("memory_id = ?", string(id)).Delete(&memoryIndexRow{}).Error; err != nil {
			return merrors.Internalf("pgstore delete memory index: %v", err)
		}
		return s.putCapsuleTx(tx, c)
	})
}

// MemoriesDeleteBulk deletes a set of memories with partial success.
func (s *Store) MemoriesDeleteBulk(ctx context.Context, caller model.PersonRef, capsuleID ids.CapsuleId, memoryIDs []ids.MemoryId, eraser capsulestore.BlobEraser) (capsulestore.BulkDeleteResult, error) {
	result := capsulestore.BulkDeleteResult{Failed: map[ids.MemoryId]error{}}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		c, err := s.getCapsuleTx(tx, capsuleID)
		if err != nil {
			return err
		}
		if !c.HasWriteAccess(caller) {
			return merrors.Unauthorized()
		}
		for _, mid := range memoryIDs {
			m, ok := c.Memories[mid]
			if !ok {
				result.Failed[mid] = merrors.NotFound("memory not found")
				continue
			}
			if err := s.cascadeDeleteMemoryTx(ctx, tx, m, eraser); err != nil {
				result.Failed[mid] = err
				continue
			}
			for _, a := range m.InlineAssets {
				c.InlineBytesUsed -= uint64(len(a.Bytes))
			}
			delete(c.Memories, mid)
			if delErr := tx.Where("memory_id = ?", string(mid)).Delete(&memoryIndexRow{}).Error; delErr != nil {
				return merrors.Internalf("pgstore delete memory index: %v", delErr)
			}
			result.Deleted = append(result.Deleted, mid)
		}
		return s.putCapsuleTx(tx, c)
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

// MemoriesDeleteAll removes every memory from a capsule, preserving the
// capsule itself.
func (s *Store) MemoriesDeleteAll(ctx context.Context, caller model.PersonRef, capsuleID ids.CapsuleId, eraser capsulestore.BlobEraser) (capsulestore.DeleteAllResult, error) {
	deleted := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		c, err := s.getCapsuleTx(tx, capsuleID)
		if err != nil {
			return err
		}
		if !c.HasWriteAccess(caller) {
			return merrors.Unauthorized()
		}
		memIDs := make([]ids.MemoryId, 0, len(c.Memories))
		for mid := range c.Memories {
			memIDs = append(memIDs, mid)
		}
		for _, mid := range memIDs {
			m := c.Memories[mid]
			if err := s.cascadeDeleteMemoryTx(ctx, tx, m, eraser); err != nil {
				return err
			}
			for _, a := range m.InlineAssets {
				c.InlineBytesUsed -= uint64(len(a.Bytes))
			}
			delete(c.Memories, mid)
			if delErr := tx.Where("memory_id = ?", string(mid)).Delete(&memoryIndexRow{}).Error; delErr != nil {
				return merrors.Internalf("pgstore delete memory index: %v", delErr)
			}
			deleted++
		}
		return s.putCapsuleTx(tx, c)
	})
	if err != nil {
		return capsulestore.DeleteAllResult{}, err
	}
	return capsulestore.DeleteAllResult{Deleted: deleted}, nil
}

// MemoriesAddAsset attaches an internal-blob asset to an existing memory.
func (s *Store) MemoriesAddAsset(ctx context.Context, caller model.PersonRef, id ids.MemoryId, ref model.BlobRef, meta model.AssetMetadata) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		c, m, err := writablePgMemory(tx, s, caller, id)
		if err != nil {
			return err
		}
		if meta.Base().Bytes != ref.Len {
			return merrors.InvalidArgument("asset metadata bytes does not match blob length")
		}
		m.BlobInternalAssets = append(m.BlobInternalAssets, model.MemoryAssetBlobInternal{BlobRef: ref, Metadata: meta})
		if err := s.incrementBlobRefTx(tx, ref.Locator); err != nil {
			return err
		}
		m.Metadata.UpdatedAt = pgNow()
		return s.putCapsuleTx(tx, c)
	})
}

// MemoriesAddInlineAsset attaches an inline asset, enforcing the per-capsule
// inline budget.
func (s *Store) MemoriesAddInlineAsset(ctx context.Context, caller model.PersonRef, id ids.MemoryId, bytes []byte, meta model.AssetMetadata) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		c, m, err := writablePgMemory(tx, s, caller, id)
		if err != nil {
			return err
		}
		if meta.Base().Bytes != uint64(len(bytes)) {
			return merrors.InvalidArgument("asset metadata bytes does not match payload length")
		}
		if c.InlineBytesUsed+uint64(len(bytes)) > s.inlineBudget {
			return merrors.ResourceExhausted("capsule inline budget exceeded", "CAPSULE_INLINE_BUDGET")
		}
		m.InlineAssets = append(m.InlineAssets, model.MemoryAssetInline{Bytes: bytes, Metadata: meta})
		c.InlineBytesUsed += uint64(len(bytes))
		m.Metadata.UpdatedAt = pgNow()
		return s.putCapsuleTx(tx, c)
	})
}

// MemoriesCleanupAssetsAll strips every asset from a memory, preserving the
// memory shell.
func (s *Store) MemoriesCleanupAssetsAll(ctx context.Context, caller model.PersonRef, id ids.MemoryId, eraser capsulestore.BlobEraser) (capsulestore.CleanupResult, error) {
	cleaned := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		c, m, err := writablePgMemory(tx, s, caller, id)
		if err != nil {
			return err
		}
		cleaned = len(m.InlineAssets) + len(m.BlobInternalAssets) + len(m.BlobExternalAssets)
		for _, a := range m.InlineAssets {
			c.InlineBytesUsed -= uint64(len(a.Bytes))
		}
		for _, a := range m.BlobInternalAssets {
			if refErr := s.decrementBlobRefTx(ctx, tx, a.BlobRef.Locator, eraser); refErr != nil {
				return refErr
			}
		}
		m.InlineAssets = nil
		m.BlobInternalAssets = nil
		m.BlobExternalAssets = nil
		m.Metadata.UpdatedAt = pgNow()
		return s.putCapsuleTx(tx, c)
	})
	if err != nil {
		return capsulestore.CleanupResult{}, err
	}
	return capsulestore.CleanupResult{AssetsCleaned: cleaned}, nil
}

// AssetRemoveInline removes one inline asset by index.
func (s *Store) AssetRemoveInline(ctx context.Context, caller model.PersonRef, id ids.MemoryId, idx int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		c, m, err := writablePgMemory(tx, s, caller, id)
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(m.InlineAssets) {
			return merrors.InvalidArgument("inline asset index out of range")
		}
		c.InlineBytesUsed -= uint64(len(m.InlineAssets[idx].Bytes))
		m.InlineAssets = append(m.InlineAssets[:idx], m.InlineAssets[idx+1:]...)
		m.Metadata.UpdatedAt = pgNow()
		return s.putCapsuleTx(tx, c)
	})
}

// AssetRemoveInternal removes one internal-blob asset by locator, cascading
// to the blob if this was the last reference.
func (s *Store) AssetRemoveInternal(ctx context.Context, caller model.PersonRef, id ids.MemoryId, blobLocator string, eraser capsulestore.BlobEraser) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		c, m, err := writablePgMemory(tx, s, caller, id)
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
		if err := s.decrementBlobRefTx(ctx, tx, blobLocator, eraser); err != nil {
			return err
		}
		m.BlobInternalAssets = append(m.BlobInternalAssets[:idx], m.BlobInternalAssets[idx+1:]...)
		m.Metadata.UpdatedAt = pgNow()
		return s.putCapsuleTx(tx, c)
	})
}

// AssetRemoveExternal removes one external asset by storage key.
func (s *Store) AssetRemoveExternal(ctx context.Context, caller model.PersonRef, id ids.MemoryId, storageKey string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		c, m, err := writablePgMemory(tx, s, caller, id)
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
		m.Metadata.UpdatedAt = pgNow()
		return s.putCapsuleTx(tx, c)
	})
}
