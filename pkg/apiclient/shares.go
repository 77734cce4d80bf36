package apiclient

import (
	"encoding/json"
	"time"
)

// CreateShareRequest is the POST /v1/shares request body. Target is a
// PersonRef-shaped {kind, data} envelope naming the grantee.
type CreateShareRequest struct {
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id"`
	Target       json.RawMessage `json:"target"`
	PermMask     uint8           `json:"perm_mask"`
}

// Share is the API projection of a resource membership grant.
type Share struct {
	ID           string          `json:"id"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id"`
	Principal    json.RawMessage `json:"principal"`
	PermMask     uint8           `json:"perm_mask"`
	GrantSource  string          `json:"grant_source"`
	CreatedAt    time.Time       `json:"created_at"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`
	Active       bool            `json:"active"`
}

// CreateShare grants a principal or group access to a resource, returning
// the new share's id.
func (c *Client) CreateShare(req CreateShareRequest) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	if err := c.post("/v1/shares", req, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// ListShares lists every share (active, and inactive if requested) granted
// on a resource.
func (c *Client) ListShares(resourceType, resourceID string, includeInactive bool) ([]Share, error) {
	path := resourcePath("/v1/shares?resource_type=%s&resource_id=%s", resourceType, resourceID)
	if includeInactive {
		path += "&include_inactive=true"
	}
	return listResources[Share](c, path)
}

// UpdateSharePermissions changes the perm_mask on an existing share.
func (c *Client) UpdateSharePermissions(shareID string, permMask uint8) error {
	body := struct {
		PermMask uint8 `json:"perm_mask"`
	}{PermMask: permMask}
	return c.put(resourcePath("/v1/shares/%s/permissions", shareID), body, nil)
}

// RevokeShare deactivates a share.
func (c *Client) RevokeShare(shareID string) error {
	return deleteResource(c, resourcePath("/v1/shares/%s", shareID))
}

// CreatePublicLinkRequest is the POST /v1/shares/links request body.
type CreatePublicLinkRequest struct {
	ResourceType string     `json:"resource_type"`
	ResourceID   string     `json:"resource_id"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// PublicLink is the API projection of a public share token.
type PublicLink struct {
	Token        string     `json:"token"`
	ResourceType string     `json:"resource_type"`
	ResourceID   string     `json:"resource_id"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Active       bool       `json:"active"`
}

// CreatePublicLink mints a new anonymous-access token for a resource.
func (c *Client) CreatePublicLink(req CreatePublicLinkRequest) (*PublicLink, error) {
	return createResource[PublicLink](c, "/v1/shares/links", req)
}

// DeactivatePublicLink revokes a public link so the token no longer
// resolves.
func (c *Client) DeactivatePublicLink(token string) error {
	return deleteResource(c, resourcePath("/v1/shares/links?token=%s", token))
}

// TokenValidation is the result of checking a public link without
// authenticating.
type TokenValidation struct {
	IsValid      bool   `json:"is_valid"`
	ResourceType string `json:"resource_type,omitempty"`
	ResourceID   string `json:"resource_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ValidatePublicToken checks whether a public link is still live. This
// call is unauthenticated — it works even on a Client with no principal or
// opaque identity configured.
func (c *Client) ValidatePublicToken(token string) (*TokenValidation, error) {
	return getResource[TokenValidation](c, resourcePath("/v1/public/%s", token))
}

// ClaimPublicToken converts a valid public link into a standing share for
// the caller, so later access no longer depends on the link staying
// active.
func (c *Client) ClaimPublicToken(token string) error {
	return c.post(resourcePath("/v1/public/%s/claim", token), nil, nil)
}
