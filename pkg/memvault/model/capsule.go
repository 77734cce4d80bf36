package model

import (
	"time"

	"github.com/memvault/memvault/pkg/memvault/ids"
)

// OwnerState marks a PersonRef as an owner of a capsule. Owners implicitly
// have write and delete access.
type OwnerState struct {
	GrantedAt time.Time
}

// ControllerState marks a PersonRef as a controller of a capsule.
// Controllers have write access but not ownership (no delete, no transfer).
type ControllerState struct {
	GrantedAt time.Time
}

// Connection records a non-owning, non-controlling relationship between a
// capsule and a principal (e.g. a contact who has been granted visibility
// through mechanisms other than ownership/controllership).
type Connection struct {
	GrantedAt time.Time
	Note      string
}

// Gallery groups a subset of a capsule's memories under a named collection.
type Gallery struct {
	ID        ids.GalleryId
	Name      string
	MemoryIDs []ids.MemoryId
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Capsule is the root catalog entity: one per subject.
type Capsule struct {
	ID      ids.CapsuleId
	Subject PersonRef

	Owners      map[string]ownerEntry
	Controllers map[string]controllerEntry
	Connections map[string]connectionEntry

	Memories  map[ids.MemoryId]*Memory
	Galleries map[ids.GalleryId]*Gallery

	CreatedAt time.Time
	UpdatedAt time.Time

	InlineBytesUsed uint64

	// BoundToNeon records whether this capsule has an external relational
	// mirror attached (Neon/Postgres, as an external collaborator, see
	// Non-goals). It never causes the engine to call out on its own.
	BoundToNeon bool
}

// ownerEntry/controllerEntry/connectionEntry pair a PersonRef with its
// state, keyed internally by PersonRef.Key() so lookup stays O(1) while the
// ref itself remains available for responses.
type ownerEntry struct {
	Ref   PersonRef
	State OwnerState
}

type controllerEntry struct {
	Ref   PersonRef
	State ControllerState
}

type connectionEntry struct {
	Ref   PersonRef
	State Connection
}

// NewCapsule constructs an empty capsule for subject, with owner as
// its sole initial owner (owner and subject may be the same ref).
func NewCapsule(id ids.CapsuleId, subject, owner PersonRef, now time.Time) *Capsule {
	c := &Capsule{
		ID:          id,
		Subject:     subject,
		Owners:      map[string]ownerEntry{},
		Controllers: map[string]controllerEntry{},
		Connections: map[string]connectionEntry{},
		Memories:    map[ids.MemoryId]*Memory{},
		Galleries:   map[ids.GalleryId]*Gallery{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.Owners[owner.Key()] = ownerEntry{Ref: owner, State: OwnerState{GrantedAt: now}}
	return c
}

// IsOwner reports whether p owns the capsule.
func (c *Capsule) IsOwner(p PersonRef) bool {
	if p == nil {
		return false
	}
	_, ok := c.Owners[p.Key()]
	return ok
}

// IsController reports whether p controls the capsule.
func (c *Capsule) IsController(p PersonRef) bool {
	if p == nil {
		return false
	}
	_, ok := c.Controllers[p.Key()]
	return ok
}

// HasWriteAccess implements the spec's write predicate:
// owners ∪ controllers ∪ {subject}. Per DESIGN.md's resolution of the
// "permissive subject" open question, the subject is always a writer on
// their own capsule.
func (c *Capsule) HasWriteAccess(p PersonRef) bool {
	if p == nil {
		return false
	}
	if SamePersonRef(c.Subject, p) {
		return true
	}
	return c.IsOwner(p) || c.IsController(p)
}

// OwnerRefs returns the capsule's current owners in no particular order.
func (c *Capsule) OwnerRefs() []PersonRef {
	out := make([]PersonRef, 0, len(c.Owners))
	for _, e := range c.Owners {
		out = append(out, e.Ref)
	}
	return out
}

// NewCapsuleEmpty constructs a Capsule with no owners/controllers/
// connections/memories populated yet, for storewire.DecodeCapsule to fill
// in from its own wire representation.
func NewCapsuleEmpty(id ids.CapsuleId, subject PersonRef, createdAt, updatedAt time.Time) *Capsule {
	return &Capsule{
		ID:          id,
		Subject:     subject,
		Owners:      map[string]ownerEntry{},
		Controllers: map[string]controllerEntry{},
		Connections: map[string]connectionEntry{},
		Memories:    map[ids.MemoryId]*Memory{},
		Galleries:   map[ids.GalleryId]*Gallery{},
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// OwnersRaw, ControllersRaw, and ConnectionsRaw expose the capsule's
// internal (ref, state) entries for storewire's wire-format codec. The
// entry types stay unexported; callers access them structurally.
func (c *Capsule) OwnersRaw() map[string]ownerEntry           { return c.Owners }
func (c *Capsule) ControllersRaw() map[string]controllerEntry { return c.Controllers }
func (c *Capsule) ConnectionsRaw() map[string]connectionEntry { return c.Connections }

// SetOwnerRaw, SetControllerRaw, and SetConnectionRaw populate a single
// entry, for storewire.DecodeCapsule.
func (c *Capsule) SetOwnerRaw(key string, ref PersonRef, state OwnerState) {
	c.Owners[key] = ownerEntry{Ref: ref, State: state}
}

func (c *Capsule) SetControllerRaw(key string, ref PersonRef, state ControllerState) {
	c.Controllers[key] = controllerEntry{Ref: ref, State: state}
}

func (c *Capsule) SetConnectionRaw(key string, ref PersonRef, state Connection) {
	c.Connections[key] = connectionEntry{Ref: ref, State: state}
}
