package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/memvault/memvault/pkg/capsulestore"
	"github.com/memvault/memvault/pkg/capsulestore/storewire"
	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/merrors"
	"github.com/memvault/memvault/pkg/memvault/model"
)

func pgNow() time.Time { return time.Now() }

func (s *Store) canRead(c *model.Capsule, caller model.PersonRef) bool {
	if c.HasWriteAccess(caller) {
		return true
	}
	if s.extraReaders != nil {
		return s.extraReaders(c.ID, caller)
	}
	return false
}

func (s *Store) getCapsuleTx(tx *gorm.DB, id ids.CapsuleId) (*model.Capsule, error) {
	var row capsuleRow
	err := tx.Where("capsule_id = ?", string(id)).First(&row).Error
	if isRecordNotFound(err) {
		return nil, merrors.NotFound("capsule not found")
	}
	if err != nil {
		return nil, merrors.Internalf("pgstore get capsule: %v", err)
	}
	var w storewire.WireCapsule
	if err := json.Unmarshal(row.Data, &w); err != nil {
		return nil, merrors.Internalf("pgstore decode capsule: %v", err)
	}
	return storewire.DecodeCapsule(&w)
}

func (s *Store) putCapsuleTx(tx *gorm.DB, c *model.Capsule) error {
	w, err := storewire.EncodeCapsule(c)
	if err != nil {
		return merrors.Internalf("pgstore encode capsule: %v", err)
	}
	data, err := json.Marshal(w)
	if err != nil {
		return merrors.Internalf("pgstore marshal capsule: %v", err)
	}
	row := capsuleRow{
		CapsuleID:  string(c.ID),
		SubjectKey: c.Subject.Key(),
		Data:       data,
		UpdatedAt:  c.UpdatedAt,
	}
	err = tx.Model(&capsuleRow{}).
		Where("capsule_id = ?", row.CapsuleID).
		Updates(map[string]any{"data": row.Data, "updated_at": row.UpdatedAt}).Error
	if err != nil {
		return merrors.Internalf("pgstore put capsule: %v", err)
	}
	return nil
}

// CapsulesCreate creates a new capsule owned by caller for subject, or
// returns the caller's existing self-capsule for subject if one already
// exists.
func (s *Store) CapsulesCreate(ctx context.Context, caller model.PersonRef, subject model.PersonRef) (*model.Capsule, error) {
	var out *model.Capsule
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing capsuleRow
		err := tx.Where("subject_key = ?", subject.Key()).First(&existing).Error
		if err == nil {
			c, getErr := s.getCapsuleTx(tx, ids.CapsuleId(existing.CapsuleID))
			if getErr != nil {
				return getErr
			}
			out = c
			return nil
		}
		if !isRecordNotFound(err) {
			return merrors.Internalf("pgstore lookup self capsule: %v", err)
		}

		id := ids.CapsuleId(fmt.Sprintf("cap_%s", subject.Key()))
		c := model.NewCapsule(id, subject, caller, pgNow())
		w, encErr := storewire.EncodeCapsule(c)
		if encErr != nil {
			return merrors.Internalf("pgstore encode capsule: %v", encErr)
		}
		data, marshalErr := json.Marshal(w)
		if marshalErr != nil {
			return merrors.Internalf("pgstore marshal capsule: %v", marshalErr)
		}
		row := capsuleRow{
			CapsuleID:  string(id),
			SubjectKey: subject.Key(),
			Data:       data,
			CreatedAt:  c.CreatedAt,
			UpdatedAt:  c.UpdatedAt,
		}
		if createErr := tx.Create(&row).Error; createErr != nil {
			if isUniqueConstraintError(createErr) {
				return merrors.Conflictf("capsule already exists for subject %s", subject.Key())
			}
			return merrors.Internalf("pgstore create capsule: %v", createErr)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CapsulesReadBasic returns the caller's self-capsule (id == nil) or a
// specific capsule by id, requiring read access.
func (s *Store) CapsulesReadBasic(ctx context.Context, caller model.PersonRef, id *ids.CapsuleId) (*model.Capsule, error) {
	var out *model.Capsule
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var capsuleID ids.CapsuleId
		if id == nil {
			var row capsuleRow
			err := tx.Where("subject_key = ?", caller.Key()).First(&row).Error
			if isRecordNotFound(err) {
				return merrors.NotFound("no self-capsule for caller")
			}
			if err != nil {
				return merrors.Internalf("pgstore lookup self capsule: %v", err)
			}
			capsuleID = ids.CapsuleId(row.CapsuleID)
		} else {
			capsuleID = *id
		}

		c, err := s.getCapsuleTx(tx, capsuleID)
		if err != nil {
			return err
		}
		if !s.canRead(c, caller) {
			return merrors.NotFound("capsule not found")
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CapsulesList lists every capsule readable by caller.
func (s *Store) CapsulesList(ctx context.Context, caller model.PersonRef) ([]capsulestore.CapsuleHeader, error) {
	var rows []capsuleRow
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, merrors.Internalf("pgstore list capsules: %v", err)
	}
	out := make([]capsulestore.CapsuleHeader, 0, len(rows))
	for _, row := range rows {
		var w storewire.WireCapsule
		if err := json.Unmarshal(row.Data, &w); err != nil {
			return nil, merrors.Internalf("pgstore decode capsule: %v", err)
		}
		c, err := storewire.DecodeCapsule(&w)
		if err != nil {
			return nil, err
		}
		if s.canRead(c, caller) {
			out = append(out, capsulestore.CapsuleHeader{ID: c.ID, Subject: c.Subject, NumMemories: len(c.Memories)})
		}
	}
	return out, nil
}

// CapsulesDelete removes a capsule, cascading to its memories' blobs.
func (s *Store) CapsulesDelete(ctx context.Context, caller model.PersonRef, id ids.CapsuleId, eraser capsulestore.BlobEraser) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		c, err := s.getCapsuleTx(tx, id)
		if err != nil {
			return err
		}
		if !c.IsOwner(caller) {
			return merrors.Unauthorized()
		}

		for _, m := range c.Memories {
			for _, a := range m.BlobInternalAssets {
				if refErr := s.decrementBlobRefTx(ctx, tx, a.BlobRef.Locator, eraser); refErr != nil {
					return refErr
				}
			}
		}

		if err := tx.Where("capsule_id = ?", string(id)).Delete(&capsuleRow{}).Error; err != nil {
			return merrors.Internalf("pgstore delete capsule: %v", err)
		}
		for mid := range c.Memories {
			if err := tx.Where("memory_id = ?", string(mid)).Delete(&memoryIndexRow{}).Error; err != nil {
				return merrors.Internalf("pgstore delete memory index: %v", err)
			}
		}
		s.metrics.RecordCascadeDelete("capsule")
		s.metrics.RecordAssetsCleaned(len(c.Memories))
		return nil
	})
}

func (s *Store) decrementBlobRefTx(ctx context.Context, tx *gorm.DB, locator string, eraser capsulestore.BlobEraser) error {
	var row blobRefRow
	err := tx.Where("locator = ?", locator).First(&row).Error
	exists := true
	if isRecordNotFound(err) {
		exists = false
	} else if err != nil {
		return merrors.Internalf("pgstore get blobref: %v", err)
	}
	count := row.Count - 1
	if count <= 0 {
		if exists {
			if err := tx.Where("locator = ?", locator).Delete(&blobRefRow{}).Error; err != nil {
				return merrors.Internalf("pgstore delete blobref: %v", err)
			}
		}
		if eraser != nil {
			if eraseErr := eraser.EraseBlob(ctx, locator); eraseErr != nil {
				return merrors.Internalf("pgstore erase blob: %v", eraseErr)
			}
		}
		s.metrics.RecordBlobErased()
		return nil
	}
	if exists {
		return tx.Model(&blobRefRow{}).Where("locator = ?", locator).Update("count", count).Error
	}
	return tx.Create(&blobRefRow{Locator: locator, Count: count}).Error
}

func (s *Store) incrementBlobRefTx(tx *gorm.DB, locator string) error {
	var row blobRefRow
	err := tx.Where("locator = ?", locator).First(&row).Error
	if isRecordNotFound(err) {
		return tx.Create(&blobRefRow{Locator: locator, Count: 1}).Error
	}
	if err != nil {
		return merrors.Internalf("pgstore get blobref: %v", err)
	}
	return tx.Model(&blobRefRow{}).Where("locator = ?", locator).Update("count", row.Count+1).Error
}

var _ capsulestore.Store = (*Store)(nil)
