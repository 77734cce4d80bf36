package sharingcore

import (
	"context"
	"testing"
	"time"

	"github.com/memvault/memvault/pkg/memvault/merrors"
	"github.com/memvault/memvault/pkg/memvault/model"
)

type fakeOwnerResolver struct {
	owner model.PersonRef
}

func (f fakeOwnerResolver) IsOwner(ctx context.Context, resourceType model.ResourceType, resourceID string, principal model.PersonRef) (bool, error) {
	return model.SamePersonRef(principal, f.owner), nil
}

func TestCreateShareRequiresSharePermission(t *testing.T) {
	owner := model.Opaque{Ref: "alice"}
	stranger := model.Opaque{Ref: "mallory"}
	target := model.Opaque{Ref: "bob"}

	s := NewMemStore(fakeOwnerResolver{owner: owner})

	if _, err := s.CreateShare(context.Background(), stranger, model.ResourceCapsule, "cap-1", target, model.PermMask(model.PermRead), stranger); !merrors.Is(err, merrors.KindUnauthorized) {
		t.Errorf("CreateShare() by stranger error = %v, want Unauthorized", err)
	}

	if _, err := s.CreateShare(context.Background(), owner, model.ResourceCapsule, "cap-1", target, model.PermMask(model.PermRead), owner); err != nil {
		t.Errorf("CreateShare() by owner error = %v, want nil", err)
	}
}

func TestCreateShareIsIdempotentByTargetAndResource(t *testing.T) {
	owner := model.Opaque{Ref: "alice"}
	target := model.Opaque{Ref: "bob"}
	s := NewMemStore(fakeOwnerResolver{owner: owner})

	id1, err := s.CreateShare(context.Background(), owner, model.ResourceCapsule, "cap-1", target, model.PermMask(model.PermRead), owner)
	if err != nil {
		t.Fatalf("CreateShare() first call error = %v", err)
	}

	id2, err := s.CreateShare(context.Background(), owner, model.ResourceCapsule, "cap-1", target, model.PermMask(model.PermRead|model.PermWrite), owner)
	if err != nil {
		t.Fatalf("CreateShare() second call error = %v", err)
	}

	if id1 != id2 {
		t.Errorf("CreateShare() repeated for the same target/resource created a new id: %v != %v", id1, id2)
	}

	shares, err := s.GetResourceShares(context.Background(), owner, model.ResourceCapsule, "cap-1", false)
	if err != nil {
		t.Fatalf("GetResourceShares() error = %v", err)
	}
	if len(shares) != 1 {
		t.Fatalf("GetResourceShares() returned %d shares, want 1", len(shares))
	}
	if !shares[0].PermMask.Has(model.PermWrite) {
		t.Errorf("second CreateShare() call did not update perm_mask")
	}
}

func TestCheckResourceAccessReflectsGrantedMask(t *testing.T) {
	owner := model.Opaque{Ref: "alice"}
	target := model.Opaque{Ref: "bob"}
	s := NewMemStore(fakeOwnerResolver{owner: owner})

	if _, err := s.CreateShare(context.Background(), owner, model.ResourceMemory, "mem-1", target, model.PermMask(model.PermRead), owner); err != nil {
		t.Fatalf("CreateShare() error = %v", err)
	}

	check, err := s.CheckResourceAccess(context.Background(), model.ResourceMemory, "mem-1", target)
	if err != nil {
		t.Fatalf("CheckResourceAccess() error = %v", err)
	}
	if !check.Allowed || !check.EffectivePerms.Has(model.PermRead) {
		t.Errorf("CheckResourceAccess() = %+v, want Allowed with PermRead", check)
	}

	stranger := model.Opaque{Ref: "mallory"}
	check, err = s.CheckResourceAccess(context.Background(), model.ResourceMemory, "mem-1", stranger)
	if err != nil {
		t.Fatalf("CheckResourceAccess() for stranger error = %v", err)
	}
	if check.Allowed {
		t.Errorf("CheckResourceAccess() for stranger = %+v, want Allowed=false", check)
	}
}

func TestRevokeShareAllowsInviterWithoutSharePerm(t *testing.T) {
	owner := model.Opaque{Ref: "alice"}
	inviter := model.Opaque{Ref: "carol"}
	target := model.Opaque{Ref: "bob"}
	s := NewMemStore(fakeOwnerResolver{owner: owner})

	shareID, err := s.CreateShare(context.Background(), owner, model.ResourceCapsule, "cap-1", target, model.PermMask(model.PermRead), inviter)
	if err != nil {
		t.Fatalf("CreateShare() error = %v", err)
	}

	if err := s.RevokeShare(context.Background(), inviter, shareID); err != nil {
		t.Errorf("RevokeShare() by inviter error = %v, want nil", err)
	}

	shares, err := s.GetResourceShares(context.Background(), owner, model.ResourceCapsule, "cap-1", false)
	if err != nil {
		t.Fatalf("GetResourceShares() error = %v", err)
	}
	if len(shares) != 0 {
		t.Errorf("GetResourceShares() after revoke returned %d active shares, want 0", len(shares))
	}
}

func TestUpdateSharePermissionsRequiresOwner(t *testing.T) {
	owner := model.Opaque{Ref: "alice"}
	target := model.Opaque{Ref: "bob"}
	stranger := model.Opaque{Ref: "mallory"}
	s := NewMemStore(fakeOwnerResolver{owner: owner})

	shareID, err := s.CreateShare(context.Background(), owner, model.ResourceCapsule, "cap-1", target, model.PermMask(model.PermRead), owner)
	if err != nil {
		t.Fatalf("CreateShare() error = %v", err)
	}

	if err := s.UpdateSharePermissions(context.Background(), stranger, shareID, model.PermMask(model.PermWrite)); !merrors.Is(err, merrors.KindUnauthorized) {
		t.Errorf("UpdateSharePermissions() by stranger error = %v, want Unauthorized", err)
	}
}

func TestPublicLinkLifecycle(t *testing.T) {
	owner := model.Opaque{Ref: "alice"}
	s := NewMemStore(fakeOwnerResolver{owner: owner})

	link, err := s.CreatePublicLink(context.Background(), owner, model.ResourceGallery, "gal-1", nil)
	if err != nil {
		t.Fatalf("CreatePublicLink() error = %v", err)
	}

	v, err := s.ValidatePublicToken(context.Background(), link.Token)
	if err != nil {
		t.Fatalf("ValidatePublicToken() error = %v", err)
	}
	if !v.IsValid {
		t.Fatalf("ValidatePublicToken() right after creation = %+v, want IsValid", v)
	}

	claimant := model.Opaque{Ref: "visitor"}
	if err := s.GrantAccessViaToken(context.Background(), link.Token, claimant); err != nil {
		t.Fatalf("GrantAccessViaToken() error = %v", err)
	}

	check, err := s.CheckResourceAccess(context.Background(), model.ResourceGallery, "gal-1", claimant)
	if err != nil {
		t.Fatalf("CheckResourceAccess() error = %v", err)
	}
	if !check.Allowed || !check.EffectivePerms.Has(model.PermRead) {
		t.Errorf("CheckResourceAccess() after claiming link = %+v, want Allowed with PermRead", check)
	}

	if err := s.DeactivatePublicLink(context.Background(), owner, link.Token); err != nil {
		t.Fatalf("DeactivatePublicLink() error = %v", err)
	}

	v, err = s.ValidatePublicToken(context.Background(), link.Token)
	if err != nil {
		t.Fatalf("ValidatePublicToken() after deactivation error = %v", err)
	}
	if v.IsValid {
		t.Errorf("ValidatePublicToken() after deactivation = %+v, want IsValid=false", v)
	}
}

func TestPublicLinkExpiry(t *testing.T) {
	owner := model.Opaque{Ref: "alice"}
	s := NewMemStore(fakeOwnerResolver{owner: owner})

	past := time.Unix(1, 0)
	link, err := s.CreatePublicLink(context.Background(), owner, model.ResourceFolder, "folder-1", &past)
	if err != nil {
		t.Fatalf("CreatePublicLink() error = %v", err)
	}

	v, err := s.ValidatePublicToken(context.Background(), link.Token)
	if err != nil {
		t.Fatalf("ValidatePublicToken() error = %v", err)
	}
	if v.IsValid {
		t.Errorf("ValidatePublicToken() for an already-expired link = %+v, want IsValid=false", v)
	}
}

func TestValidatePublicTokenUnknownToken(t *testing.T) {
	s := NewMemStore(nil)

	v, err := s.ValidatePublicToken(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("ValidatePublicToken() error = %v", err)
	}
	if v.IsValid {
		t.Errorf("ValidatePublicToken() for unknown token = %+v, want IsValid=false", v)
	}
}
