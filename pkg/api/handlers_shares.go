package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/merrors"
	"github.com/memvault/memvault/pkg/memvault/model"
)

type createShareRequest struct {
	ResourceType model.ResourceType `json:"resource_type"`
	ResourceID   string             `json:"resource_id"`
	Target       json.RawMessage    `json:"target"`
	PermMask     model.PermMask     `json:"perm_mask"`
}

type shareResponse struct {
	ID           ids.ShareId        `json:"id"`
	ResourceType model.ResourceType `json:"resource_type"`
	ResourceID   string             `json:"resource_id"`
	Principal    json.RawMessage    `json:"principal"`
	PermMask     model.PermMask     `json:"perm_mask"`
	GrantSource  model.GrantSource  `json:"grant_source"`
	CreatedAt    time.Time          `json:"created_at"`
	ExpiresAt    *time.Time         `json:"expires_at,omitempty"`
	Active       bool               `json:"active"`
}

func newShareResponse(m model.ResourceMembership) (shareResponse, error) {
	principal, err := model.MarshalPersonRef(m.Principal)
	if err != nil {
		return shareResponse{}, err
	}
	return shareResponse{
		ID:           m.ID,
		ResourceType: m.ResourceType,
		ResourceID:   m.ResourceID,
		Principal:    principal,
		PermMask:     m.PermMask,
		GrantSource:  m.GrantSource,
		CreatedAt:    m.CreatedAt,
		ExpiresAt:    m.ExpiresAt,
		Active:       m.Active,
	}, nil
}

func (h *handlers) sharesCreate(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createShareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ResourceID == "" {
		writeError(w, merrors.InvalidArgument("resource_id is required"))
		return
	}

	target, err := model.UnmarshalPersonRef(req.Target)
	if err != nil {
		writeError(w, merrors.InvalidArgumentf("invalid target: %v", err))
		return
	}

	shareID, err := h.sharing.CreateShare(r.Context(), caller, req.ResourceType, req.ResourceID, target, req.PermMask, caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONCreated(w, struct {
		ID ids.ShareId `json:"id"`
	}{ID: shareID})
}

func (h *handlers) sharesListForResource(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	resourceType := model.ResourceType(r.URL.Query().Get("resource_type"))
	resourceID := r.URL.Query().Get("resource_id")
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	if resourceID == "" {
		writeError(w, merrors.InvalidArgument("resource_id query parameter is required"))
		return
	}

	memberships, err := h.sharing.GetResourceShares(r.Context(), caller, resourceType, resourceID, includeInactive)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]shareResponse, 0, len(memberships))
	for _, m := range memberships {
		sr, err := newShareResponse(m)
		if err != nil {
			writeError(w, err)
			return
		}
		out = append(out, sr)
	}
	writeJSONOK(w, out)
}

type updateSharePermissionsRequest struct {
	PermMask model.PermMask `json:"perm_mask"`
}

func (h *handlers) sharesUpdatePermissions(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	shareID := ids.ShareId(chi.URLParam(r, "shareID"))

	var req updateSharePermissionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.sharing.UpdateSharePermissions(r.Context(), caller, shareID, req.PermMask); err != nil {
		writeError(w, err)
		return
	}
	writeNoContent(w)
}

func (h *handlers) sharesRevoke(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	shareID := ids.ShareId(chi.URLParam(r, "shareID"))
	if err := h.sharing.RevokeShare(r.Context(), caller, shareID); err != nil {
		writeError(w, err)
		return
	}
	writeNoContent(w)
}

type createPublicLinkRequest struct {
	ResourceType model.ResourceType `json:"resource_type"`
	ResourceID   string             `json:"resource_id"`
	ExpiresAt    *time.Time         `json:"expires_at,omitempty"`
}

type publicLinkResponse struct {
	Token        string             `json:"token"`
	ResourceType model.ResourceType `json:"resource_type"`
	ResourceID   string             `json:"resource_id"`
	CreatedAt    time.Time          `json:"created_at"`
	ExpiresAt    *time.Time         `json:"expires_at,omitempty"`
	Active       bool               `json:"active"`
}

func newPublicLinkResponse(t *model.PublicShareToken) publicLinkResponse {
	return publicLinkResponse{
		Token:        t.Token,
		ResourceType: t.ResourceType,
		ResourceID:   t.ResourceID,
		CreatedAt:    t.CreatedAt,
		ExpiresAt:    t.ExpiresAt,
		Active:       t.Active,
	}
}

func (h *handlers) sharesCreatePublicLink(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createPublicLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ResourceID == "" {
		writeError(w, merrors.InvalidArgument("resource_id is required"))
		return
	}

	token, err := h.sharing.CreatePublicLink(r.Context(), caller, req.ResourceType, req.ResourceID, req.ExpiresAt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONCreated(w, newPublicLinkResponse(token))
}

func (h *handlers) sharesDeactivatePublicLink(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, merrors.InvalidArgument("token query parameter is required"))
		return
	}

	if err := h.sharing.DeactivatePublicLink(r.Context(), caller, token); err != nil {
		writeError(w, err)
		return
	}
	writeNoContent(w)
}

type tokenValidationResponse struct {
	IsValid      bool               `json:"is_valid"`
	ResourceType model.ResourceType `json:"resource_type,omitempty"`
	ResourceID   string             `json:"resource_id,omitempty"`
	Error        string             `json:"error,omitempty"`
}

// publicValidateToken is unauthenticated: checking whether a public link is
// still live is how an anonymous visitor decides whether to render it.
func (h *handlers) publicValidateToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	result, err := h.sharing.ValidatePublicToken(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := tokenValidationResponse{IsValid: result.IsValid, Error: result.Error}
	if result.Record != nil {
		resp.ResourceType = result.Record.ResourceType
		resp.ResourceID = result.Record.ResourceID
	}
	writeJSONOK(w, resp)
}

// publicClaimToken grants the caller a standing ResourceMembership derived
// from a valid public link, so subsequent access no longer depends on the
// link staying active.
func (h *handlers) publicClaimToken(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	token := chi.URLParam(r, "token")
	if err := h.sharing.GrantAccessViaToken(r.Context(), token, caller); err != nil {
		writeError(w, err)
		return
	}
	writeNoContent(w)
}
