package commands

import (
	"context"

	"github.com/memvault/memvault/pkg/capsulestore"
	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/model"
)

// capsuleOwnerResolver implements sharingcore.OwnerResolver by asking the
// running CapsuleStore directly, avoiding the import cycle that would
// result if sharingcore depended on capsulestore's concrete types. Only
// ResourceCapsule is resolvable this way: memories, folders, and galleries
// have no independent ownership record of their own, they inherit the
// owning capsule's, and CapsuleStore's read API is keyed by memory/capsule
// id, not a generic resource id, so those resource types always report
// false here and fall through to SharingCore's own membership ledger.
type capsuleOwnerResolver struct {
	capsules capsulestore.Store
}

func newCapsuleOwnerResolver(capsules capsulestore.Store) *capsuleOwnerResolver {
	return &capsuleOwnerResolver{capsules: capsules}
}

func (r *capsuleOwnerResolver) IsOwner(ctx context.Context, resourceType model.ResourceType, resourceID string, principal model.PersonRef) (bool, error) {
	if resourceType != model.ResourceCapsule {
		return false, nil
	}

	capsuleID := ids.CapsuleId(resourceID)
	capsule, err := r.capsules.CapsulesReadBasic(ctx, principal, &capsuleID)
	if err != nil {
		return false, nil
	}
	return capsule.IsOwner(principal), nil
}
