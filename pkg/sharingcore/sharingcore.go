// Package sharingcore implements SharingCore: the resource-membership and
// public-token ledger gating non-ownership access to capsules, memories,
// folders, and galleries. CapsuleStore consults it (via the ExtraReaders
// hook) to extend its own owner/controller access predicate with granted
// memberships, without either package importing the other's store type.
package sharingcore

import (
	"context"
	"time"

	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/model"
)

// AccessCheck is returned by CheckResourceAccess.
type AccessCheck struct {
	Allowed        bool
	EffectivePerms model.PermMask
}

// TokenValidation is returned by ValidatePublicToken.
type TokenValidation struct {
	IsValid bool
	Record  *model.PublicShareToken
	Error   string
}

// Store is the SharingCore contract.
type Store interface {
	CreateShare(ctx context.Context, caller model.PersonRef, resourceType model.ResourceType, resourceID string, target model.PersonRef, perm model.PermMask, invitedBy model.PersonRef) (ids.ShareId, error)
	RevokeShare(ctx context.Context, caller model.PersonRef, shareID ids.ShareId) error
	UpdateSharePermissions(ctx context.Context, caller model.PersonRef, shareID ids.ShareId, perm model.PermMask) error
	GetResourceShares(ctx context.Context, caller model.PersonRef, resourceType model.ResourceType, resourceID string, includeInactive bool) ([]model.ResourceMembership, error)
	CheckResourceAccess(ctx context.Context, resourceType model.ResourceType, resourceID string, principal model.PersonRef) (AccessCheck, error)

	CreatePublicLink(ctx context.Context, caller model.PersonRef, resourceType model.ResourceType, resourceID string, expiresAt *time.Time) (*model.PublicShareToken, error)
	ValidatePublicToken(ctx context.Context, token string) (TokenValidation, error)
	GrantAccessViaToken(ctx context.Context, token string, principal model.PersonRef) error
	DeactivatePublicLink(ctx context.Context, caller model.PersonRef, token string) error
}

// OwnerResolver lets implementations ask whether a principal already owns
// (and so implicitly has every permission on) a resource, without
// SharingCore importing capsulestore.
type OwnerResolver interface {
	IsOwner(ctx context.Context, resourceType model.ResourceType, resourceID string, principal model.PersonRef) (bool, error)
}
