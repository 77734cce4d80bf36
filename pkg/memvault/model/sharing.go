package model

import (
	"time"

	"github.com/memvault/memvault/pkg/memvault/ids"
)

// ResourceType is the closed set of resource kinds SharingCore can gate.
type ResourceType string

const (
	ResourceCapsule ResourceType = "capsule"
	ResourceMemory  ResourceType = "memory"
	ResourceFolder  ResourceType = "folder"
	ResourceGallery ResourceType = "gallery"
)

// PermBit is a single bit of the perm_mask bit-set.
type PermBit uint8

const (
	PermRead PermBit = 1 << iota
	PermWrite
	PermDelete
	PermShare
)

// PermMask is a bit-set over {Read, Write, Delete, Share}.
type PermMask uint8

// Has reports whether mask grants bit.
func (mask PermMask) Has(bit PermBit) bool { return mask&PermMask(bit) != 0 }

// GrantSource records how a membership was created.
type GrantSource string

const (
	GrantSourceDirect     GrantSource = "direct"
	GrantSourcePublicLink GrantSource = "public_link"
)

// ResourceMembership grants a principal a perm_mask on a resource.
type ResourceMembership struct {
	ID           ids.ShareId
	ResourceType ResourceType
	ResourceID   string
	Principal    PersonRef
	PermMask     PermMask
	GrantSource  GrantSource
	InvitedBy    PersonRef
	CreatedAt    time.Time
	ExpiresAt    *time.Time
	Active       bool
}

// PublicShareToken is a single-purpose, time-limited public link onto one
// resource.
type PublicShareToken struct {
	Token        string
	ResourceType ResourceType
	ResourceID   string
	CreatedBy    PersonRef
	CreatedAt    time.Time
	ExpiresAt    *time.Time
	Active       bool
}

// IsValid checks `active ∧ (expires_at is none ∨ now < expires_at)`.
func (t PublicShareToken) IsValid(now time.Time) bool {
	if !t.Active {
		return false
	}
	if t.ExpiresAt != nil && !now.Before(*t.ExpiresAt) {
		return false
	}
	return true
}

// IsValid reports whether a membership currently grants access: active and
// not expired.
func (m ResourceMembership) IsValid(now time.Time) bool {
	if !m.Active {
		return false
	}
	if m.ExpiresAt != nil && !now.Before(*m.ExpiresAt) {
		return false
	}
	return true
}
