// Package badgerstore is a BadgerDB-backed capsulestore.Store: prefixed
// keys, db.View for reads and db.Update for writes, values JSON-encoded via
// storewire.WireCapsule rather than gob, since the domain model carries
// tagged-union interface fields gob cannot handle without registration.
package badgerstore

import (
	"context"
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/memvault/memvault/pkg/capsulestore"
	"github.com/memvault/memvault/pkg/capsulestore/storewire"
	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/merrors"
	"github.com/memvault/memvault/pkg/memvault/model"
	"github.com/memvault/memvault/pkg/metrics"
)

const (
	prefixCapsule     = "c:"
	prefixSelfCapsule = "s:"
	prefixMemIndex    = "m:"
	prefixBlobRef     = "b:"
)

func keyCapsule(id ids.CapsuleId) []byte { return []byte(prefixCapsule + string(id)) }
func keySelfCapsule(subjectKey string) []byte {
	return []byte(prefixSelfCapsule + subjectKey)
}
func keyMemIndex(id ids.MemoryId) []byte { return []byte(prefixMemIndex + string(id)) }
func keyBlobRef(locator string) []byte   { return []byte(prefixBlobRef + locator) }

// Store is a BadgerDB-backed CapsuleStore.
type Store struct {
	db           *badger.DB
	inlineBudget uint64
	extraReaders capsulestore.ExtraReaders
	metrics      *metrics.CapsuleStoreMetrics
}

// New opens a badgerstore.Store over an already-opened BadgerDB handle.
// Callers own the handle's lifecycle (open/close).
func New(db *badger.DB, inlineBudget uint64) *Store {
	return &Store{db: db, inlineBudget: inlineBudget}
}

// SetExtraReaders installs SharingCore's membership check as an extra
// read-access predicate, so CapsulesList/MemoriesRead/MemoriesList honor
// granted shares alongside ownership.
func (s *Store) SetExtraReaders(fn capsulestore.ExtraReaders) { s.extraReaders = fn }

// SetMetrics installs the Prometheus instrumentation this store reports to.
func (s *Store) SetMetrics(m *metrics.CapsuleStoreMetrics) { s.metrics = m }

func (s *Store) canRead(c *model.Capsule, caller model.PersonRef) bool {
	if c.HasWriteAccess(caller) {
		return true
	}
	if s.extraReaders != nil {
		return s.extraReaders(c.ID, caller)
	}
	return false
}

func (s *Store) getCapsule(txn *badger.Txn, id ids.CapsuleId) (*model.Capsule, error) {
	item, err := txn.Get(keyCapsule(id))
	if err == badger.ErrKeyNotFound {
		return nil, merrors.NotFound("capsule not found")
	}
	if err != nil {
		return nil, merrors.Internalf("badgerstore get capsule: %v", err)
	}

	var c *model.Capsule
	err = item.Value(func(val []byte) error {
		var w storewire.WireCapsule
		if jsonErr := json.Unmarshal(val, &w); jsonErr != nil {
			return jsonErr
		}
		decoded, decErr := storewire.DecodeCapsule(&w)
		if decErr != nil {
			return decErr
		}
		c = decoded
		return nil
	})
	if err != nil {
		return nil, merrors.Internalf("badgerstore decode capsule: %v", err)
	}
	return c, nil
}

func (s *Store) putCapsule(txn *badger.Txn, c *model.Capsule) error {
	w, err := storewire.EncodeCapsule(c)
	if err != nil {
		return merrors.Internalf("badgerstore encode capsule: %v", err)
	}
	data, err := json.Marshal(w)
	if err != nil {
		return merrors.Internalf("badgerstore marshal capsule: %v", err)
	}
	if err := txn.Set(keyCapsule(c.ID), data); err != nil {
		return merrors.Internalf("badgerstore put capsule: %v", err)
	}
	return nil
}

// CapsulesCreate creates a new capsule owned by caller for subject, or
// returns the caller's existing self-capsule for subject if one already
// exists.
func (s *Store) CapsulesCreate(ctx context.Context, caller model.PersonRef, subject model.PersonRef) (*model.Capsule, error) {
	var out *model.Capsule
	err := s.db.Update(func(txn *badger.Txn) error {
		selfKey := keySelfCapsule(subject.Key())
		item, err := txn.Get(selfKey)
		if err == nil {
			var existingID ids.CapsuleId
			if valErr := item.Value(func(val []byte) error {
				existingID = ids.CapsuleId(val)
				return nil
			}); valErr != nil {
				return valErr
			}
			c, getErr := s.getCapsule(txn, existingID)
			if getErr != nil {
				return getErr
			}
			out = c
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return merrors.Internalf("badgerstore lookup self capsule: %v", err)
		}

		id := ids.CapsuleId(fmt.Sprintf("cap_%s", subject.Key()))
		c := model.NewCapsule(id, subject, caller, badgerNow())
		if putErr := s.putCapsule(txn, c); putErr != nil {
			return putErr
		}
		if setErr := txn.Set(selfKey, []byte(id)); setErr != nil {
			return merrors.Internalf("badgerstore set self capsule: %v", setErr)
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
	err := s.db.View(func(txn *badger.Txn) error {
		var capsuleID ids.CapsuleId
		if id == nil {
			item, err := txn.Get(keySelfCapsule(caller.Key()))
			if err == badger.ErrKeyNotFound {
				return merrors.NotFound("no self-capsule for caller")
			}
			if err != nil {
				return merrors.Internalf("badgerstore lookup self capsule: %v", err)
			}
			if valErr := item.Value(func(val []byte) error {
				capsuleID = ids.CapsuleId(val)
				return nil
			}); valErr != nil {
				return valErr
			}
		} else {
			capsuleID = *id
		}

		c, err := s.getCapsule(txn, capsuleID)
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
	var out []capsulestore.CapsuleHeader
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixCapsule)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var w storewire.WireCapsule
				if err := json.Unmarshal(val, &w); err != nil {
					return err
				}
				c, err := storewire.DecodeCapsule(&w)
				if err != nil {
					return err
				}
				if s.canRead(c, caller) {
					out = append(out, capsulestore.CapsuleHeader{ID: c.ID, Subject: c.Subject, NumMemories: len(c.Memories)})
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, merrors.Internalf("badgerstore list capsules: %v", err)
	}
	return out, nil
}

// CapsulesDelete removes a capsule, cascading to its memories' blobs.
func (s *Store) CapsulesDelete(ctx context.Context, caller model.PersonRef, id ids.CapsuleId, eraser capsulestore.BlobEraser) error {
	return s.db.Update(func(txn *badger.Txn) error {
		c, err := s.getCapsule(txn, id)
		if err != nil {
			return err
		}
		if !c.IsOwner(caller) {
			return merrors.Unauthorized()
		}

		for _, m := range c.Memories {
			for _, a := range m.BlobInternalAssets {
				if refErr := s.decrementBlobRef(txn, a.BlobRef.Locator, eraser, ctx); refErr != nil {
					return refErr
				}
			}
		}

		if delErr := txn.Delete(keyCapsule(id)); delErr != nil {
			return merrors.Internalf("badgerstore delete capsule: %v", delErr)
		}
		_ = txn.Delete(keySelfCapsule(c.Subject.Key()))
		for mid := range c.Memories {
			_ = txn.Delete(keyMemIndex(mid))
		}
		s.metrics.RecordCascadeDelete("capsule")
		s.metrics.RecordAssetsCleaned(len(c.Memories))
		return nil
	})
}

func (s *Store) decrementBlobRef(txn *badger.Txn, locator string, eraser capsulestore.BlobEraser, ctx context.Context) error {
	count := 0
	item, err := txn.Get(keyBlobRef(locator))
	if err == nil {
		_ = item.Value(func(val []byte) error {
			fmt.Sscanf(string(val), "%d", &count)
			return nil
		})
	} else if err != badger.ErrKeyNotFound {
		return merrors.Internalf("badgerstore get blobref: %v", err)
	}

	count--
	if count <= 0 {
		_ = txn.Delete(keyBlobRef(locator))
		if eraser != nil {
			if eraseErr := eraser.EraseBlob(ctx, locator); eraseErr != nil {
				return merrors.Internalf("badgerstore erase blob: %v", eraseErr)
			}
		}
		s.metrics.RecordBlobErased()
		return nil
	}
	return txn.Set(keyBlobRef(locator), []byte(fmt.Sprintf("%d", count)))
}

func (s *Store) incrementBlobRef(txn *badger.Txn, locator string) error {
	count := 0
	item, err := txn.Get(keyBlobRef(locator))
	if err == nil {
		_ = item.Value(func(val []byte) error {
			fmt.Sscanf(string(val), "%d", &count)
			return nil
		})
	} else if err != badger.ErrKeyNotFound {
		return merrors.Internalf("badgerstore get blobref: %v", err)
	}
	count++
	return txn.Set(keyBlobRef(locator), []byte(fmt.Sprintf("%d", count)))
}
