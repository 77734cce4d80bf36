package sharingcore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/merrors"
	"github.com/memvault/memvault/pkg/memvault/model"
)

func resourceKey(resourceType model.ResourceType, resourceID string) string {
	return string(resourceType) + "/" + resourceID
}

// MemStore is an in-process SharingCore backend: a mutex-guarded
// a single RWMutex over plain Go maps, defensive-copying slice results out.
type MemStore struct {
	mu sync.RWMutex

	shares      map[ids.ShareId]*model.ResourceMembership
	byResource  map[string]map[ids.ShareId]struct{}
	byTargetRes map[string]ids.ShareId // principal.Key()+"/"+resourceKey -> ShareId, for idempotent create

	tokens map[string]*model.PublicShareToken

	owners OwnerResolver
	now    func() time.Time

	shareSeq uint64
}

// NewMemStore constructs an empty in-memory SharingCore. owners may be nil,
// in which case CheckResourceAccess only consults memberships.
func NewMemStore(owners OwnerResolver) *MemStore {
	return &MemStore{
		shares:      map[ids.ShareId]*model.ResourceMembership{},
		byResource:  map[string]map[ids.ShareId]struct{}{},
		byTargetRes: map[string]ids.ShareId{},
		tokens:      map[string]*model.PublicShareToken{},
		owners:      owners,
		now:         time.Now,
	}
}

func (s *MemStore) nextShareID() ids.ShareId {
	s.shareSeq++
	return ids.ShareId(fmt.Sprintf("share_%d", s.shareSeq))
}

func randomToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", merrors.Internalf("token entropy read failed: %v", err)
	}
	return hex.EncodeToString(buf), nil
}

func (s *MemStore) callerCanShare(ctx context.Context, caller model.PersonRef, resourceType model.ResourceType, resourceID string) (bool, error) {
	if s.owners != nil {
		isOwner, err := s.owners.IsOwner(ctx, resourceType, resourceID, caller)
		if err != nil {
			return false, err
		}
		if isOwner {
			return true, nil
		}
	}
	check, err := s.checkResourceAccessLocked(resourceType, resourceID, caller)
	if err != nil {
		return false, err
	}
	return check.Allowed && check.EffectivePerms.Has(model.PermShare), nil
}

// CreateShare grants target a perm_mask on a resource. Idempotent per
// (resourceType, resourceID, target): a repeat call updates the existing
// membership's perm_mask rather than creating a duplicate.
func (s *MemStore) CreateShare(ctx context.Context, caller model.PersonRef, resourceType model.ResourceType, resourceID string, target model.PersonRef, perm model.PermMask, invitedBy model.PersonRef) (ids.ShareId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowed, err := s.callerCanShare(ctx, caller, resourceType, resourceID)
	if err != nil {
		return "", err
	}
	if !allowed {
		return "", merrors.Unauthorized()
	}

	rk := resourceKey(resourceType, resourceID)
	dupeKey := target.Key() + "/" + rk
	if existing, ok := s.byTargetRes[dupeKey]; ok {
		m := s.shares[existing]
		m.PermMask = perm
		m.Active = true
		return existing, nil
	}

	id := s.nextShareID()
	m := &model.ResourceMembership{
		ID:           id,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Principal:    target,
		PermMask:     perm,
		GrantSource:  model.GrantSourceDirect,
		InvitedBy:    invitedBy,
		CreatedAt:    s.now(),
		Active:       true,
	}
	s.shares[id] = m
	if s.byResource[rk] == nil {
		s.byResource[rk] = map[ids.ShareId]struct{}{}
	}
	s.byResource[rk][id] = struct{}{}
	s.byTargetRes[dupeKey] = id
	return id, nil
}

// RevokeShare deactivates a membership. Allowed for the resource owner or
// the original inviter.
func (s *MemStore) RevokeShare(ctx context.Context, caller model.PersonRef, shareID ids.ShareId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.shares[shareID]
	if !ok {
		return merrors.NotFound("share not found")
	}
	if !model.SamePersonRef(caller, m.InvitedBy) {
		isOwner := false
		if s.owners != nil {
			owner, err := s.owners.IsOwner(ctx, m.ResourceType, m.ResourceID, caller)
			if err != nil {
				return err
			}
			isOwner = owner
		}
		if !isOwner {
			return merrors.Unauthorized()
		}
	}
	m.Active = false
	return nil
}

// UpdateSharePermissions changes a membership's perm_mask. Owner-only.
func (s *MemStore) UpdateSharePermissions(ctx context.Context, caller model.PersonRef, shareID ids.ShareId, perm model.PermMask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.shares[shareID]
	if !ok {
		return merrors.NotFound("share not found")
	}
	isOwner := false
	if s.owners != nil {
		owner, err := s.owners.IsOwner(ctx, m.ResourceType, m.ResourceID, caller)
		if err != nil {
			return err
		}
		isOwner = owner
	}
	if !isOwner {
		return merrors.Unauthorized()
	}
	m.PermMask = perm
	return nil
}

// GetResourceShares lists memberships on a resource, defensive-copied.
func (s *MemStore) GetResourceShares(ctx context.Context, caller model.PersonRef, resourceType model.ResourceType, resourceID string, includeInactive bool) ([]model.ResourceMembership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, ok := s.byResource[resourceKey(resourceType, resourceID)]
	out := make([]model.ResourceMembership, 0, len(ids))
	if !ok {
		return out, nil
	}
	now := s.now()
	for id := range ids {
		m := s.shares[id]
		if !includeInactive && !m.IsValid(now) {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (s *MemStore) checkResourceAccessLocked(resourceType model.ResourceType, resourceID string, principal model.PersonRef) (AccessCheck, error) {
	now := s.now()
	var mask model.PermMask
	found := false
	for id := range s.byResource[resourceKey(resourceType, resourceID)] {
		m := s.shares[id]
		if !m.IsValid(now) || !model.SamePersonRef(m.Principal, principal) {
			continue
		}
		mask |= m.PermMask
		found = true
	}
	return AccessCheck{Allowed: found, EffectivePerms: mask}, nil
}

// CheckResourceAccess reports the caller's effective perm_mask from
// memberships alone; ownership is resolved by the caller via OwnerResolver
// before consulting this, per the composition described in
// capsulestore.Store's ExtraReaders hook.
func (s *MemStore) CheckResourceAccess(ctx context.Context, resourceType model.ResourceType, resourceID string, principal model.PersonRef) (AccessCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkResourceAccessLocked(resourceType, resourceID, principal)
}

// CreatePublicLink mints a cryptographically random, single-purpose token
// for a resource. Allowed for the resource owner or a member holding
// PermShare.
func (s *MemStore) CreatePublicLink(ctx context.Context, caller model.PersonRef, resourceType model.ResourceType, resourceID string, expiresAt *time.Time) (*model.PublicShareToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowed, err := s.callerCanShare(ctx, caller, resourceType, resourceID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, merrors.Unauthorized()
	}

	tok, err := randomToken()
	if err != nil {
		return nil, err
	}
	rec := &model.PublicShareToken{
		Token:        tok,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		CreatedBy:    caller,
		CreatedAt:    s.now(),
		ExpiresAt:    expiresAt,
		Active:       true,
	}
	s.tokens[tok] = rec
	out := *rec
	return &out, nil
}

// ValidatePublicToken checks active ∧ (expires_at none ∨ now < expires_at).
func (s *MemStore) ValidatePublicToken(ctx context.Context, token string) (TokenValidation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tokens[token]
	if !ok {
		return TokenValidation{IsValid: false, Error: "token not found"}, nil
	}
	if !rec.IsValid(s.now()) {
		return TokenValidation{IsValid: false, Error: "token expired or inactive"}, nil
	}
	out := *rec
	return TokenValidation{IsValid: true, Record: &out}, nil
}

// GrantAccessViaToken creates a GrantSourcePublicLink membership for
// principal the first time a token validates successfully for them.
func (s *MemStore) GrantAccessViaToken(ctx context.Context, token string, principal model.PersonRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tokens[token]
	if !ok || !rec.IsValid(s.now()) {
		return merrors.NotFound("token not valid")
	}

	rk := resourceKey(rec.ResourceType, rec.ResourceID)
	dupeKey := principal.Key() + "/" + rk
	if _, ok := s.byTargetRes[dupeKey]; ok {
		return nil
	}

	id := s.nextShareID()
	m := &model.ResourceMembership{
		ID:           id,
		ResourceType: rec.ResourceType,
		ResourceID:   rec.ResourceID,
		Principal:    principal,
		PermMask:     model.PermMask(model.PermRead),
		GrantSource:  model.GrantSourcePublicLink,
		InvitedBy:    rec.CreatedBy,
		CreatedAt:    s.now(),
		Active:       true,
	}
	s.shares[id] = m
	if s.byResource[rk] == nil {
		s.byResource[rk] = map[ids.ShareId]struct{}{}
	}
	s.byResource[rk][id] = struct{}{}
	s.byTargetRes[dupeKey] = id
	return nil
}

// DeactivatePublicLink disables a token. Owner-only.
func (s *MemStore) DeactivatePublicLink(ctx context.Context, caller model.PersonRef, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tokens[token]
	if !ok {
		return merrors.NotFound("token not found")
	}
	isOwner := false
	if s.owners != nil {
		owner, err := s.owners.IsOwner(ctx, rec.ResourceType, rec.ResourceID, caller)
		if err != nil {
			return err
		}
		isOwner = owner
	}
	if !isOwner {
		return merrors.Unauthorized()
	}
	rec.Active = false
	return nil
}

var _ Store = (*MemStore)(nil)
