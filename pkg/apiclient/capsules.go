package apiclient

import (
	"encoding/json"
	"time"
)

// Capsule is the listing/detail projection of a capsule.
type Capsule struct {
	ID              string          `json:"id"`
	Subject         json.RawMessage `json:"subject"`
	NumMemories     int             `json:"num_memories"`
	InlineBytesUsed uint64          `json:"inline_bytes_used"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CapsuleHeader is the compact projection returned by ListCapsules.
type CapsuleHeader struct {
	ID          string          `json:"id"`
	Subject     json.RawMessage `json:"subject"`
	NumMemories int             `json:"num_memories"`
}

// CreateCapsuleRequest is the POST /v1/capsules request body. Subject may
// be left nil to default to the caller asserted via the request headers.
type CreateCapsuleRequest struct {
	Subject json.RawMessage `json:"subject,omitempty"`
}

// CreateCapsule creates a new capsule, owned by the given subject (or by
// the caller itself if req.Subject is nil).
func (c *Client) CreateCapsule(req CreateCapsuleRequest) (*Capsule, error) {
	return createResource[Capsule](c, "/v1/capsules", req)
}

// GetCapsule reads one capsule by id.
func (c *Client) GetCapsule(capsuleID string) (*Capsule, error) {
	return getResource[Capsule](c, resourcePath("/v1/capsules/%s", capsuleID))
}

// ListCapsules lists every capsule visible to the caller.
func (c *Client) ListCapsules() ([]CapsuleHeader, error) {
	return listResources[CapsuleHeader](c, "/v1/capsules")
}

// DeleteCapsule deletes a capsule and every memory it owns.
func (c *Client) DeleteCapsule(capsuleID string) error {
	return deleteResource(c, resourcePath("/v1/capsules/%s", capsuleID))
}
