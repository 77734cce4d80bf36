package apiclient

import (
	"encoding/json"
	"strings"
	"time"
)

// MemoryMetadata describes a memory independent of its storage shape.
type MemoryMetadata struct {
	MemoryType  string   `json:"memory_type"`
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	ContentType string   `json:"content_type"`
	Tags        []string `json:"tags,omitempty"`
}

// Asset is the client-side projection of one memory asset. Only inline
// assets are surfaced with their bytes; blob-backed assets are returned by
// reference (storage key) only — fetching their bytes is left to whatever
// transport serves StorageEdgeBlobType (not wrapped here).
type Asset struct {
	Bytes      []byte          `json:"bytes,omitempty"`
	Location   string          `json:"location,omitempty"`
	StorageKey string          `json:"storage_key,omitempty"`
	URL        *string         `json:"url,omitempty"`
	Metadata   json.RawMessage `json:"metadata"`
}

// Memory is the API projection of a stored memory.
type Memory struct {
	ID       string          `json:"id"`
	Metadata json.RawMessage `json:"metadata"`
	Access   json.RawMessage `json:"access"`

	InlineAssets       []Asset `json:"inline_assets,omitempty"`
	BlobInternalAssets []Asset `json:"blob_internal_assets,omitempty"`
	BlobExternalAssets []Asset `json:"blob_external_assets,omitempty"`
}

// MemoryHeader is the compact projection returned by ListMemories.
type MemoryHeader struct {
	ID         string    `json:"id"`
	MemoryType string    `json:"memory_type"`
	Title      *string   `json:"title,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	AssetCount int       `json:"asset_count"`
}

// assetDataWire mirrors the server's {kind, data} envelope for the inline
// case only; blob_internal assets are created through the upload session
// flow (see uploads.go), and this client builds no external asset data.
type assetDataWire struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func inlineAssetData(data []byte) (json.RawMessage, error) {
	inner, err := json.Marshal(struct {
		Bytes []byte `json:"bytes"`
	}{Bytes: data})
	if err != nil {
		return nil, err
	}
	return json.Marshal(assetDataWire{Kind: "inline", Data: inner})
}

// CreateMemoryRequest is the POST /v1/capsules/{id}/memories request body
// for an inline (non-chunked) memory upload.
type CreateMemoryRequest struct {
	InlineBytes    []byte
	Metadata       MemoryMetadata
	Access         json.RawMessage
	IdempotencyKey string
}

func (req CreateMemoryRequest) toWire() (json.RawMessage, error) {
	data, err := inlineAssetData(req.InlineBytes)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Data           json.RawMessage `json:"data"`
		MemoryMetadata MemoryMetadata  `json:"metadata"`
		Access         json.RawMessage `json:"access,omitempty"`
		IdempotencyKey string          `json:"idempotency_key"`
	}{Data: data, MemoryMetadata: req.Metadata, Access: req.Access, IdempotencyKey: req.IdempotencyKey})
}

// CreateMemory creates a memory from inline bytes in one request.
func (c *Client) CreateMemory(capsuleID string, req CreateMemoryRequest) (*Memory, error) {
	body, err := req.toWire()
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage = body
	return createResource[Memory](c, resourcePath("/v1/capsules/%s/memories", capsuleID), raw)
}

// GetMemory reads one memory by id.
func (c *Client) GetMemory(memoryID string) (*Memory, error) {
	return getResource[Memory](c, resourcePath("/v1/memories/%s", memoryID))
}

// ListMemories lists the memories in a capsule.
func (c *Client) ListMemories(capsuleID string) ([]MemoryHeader, error) {
	return listResources[MemoryHeader](c, resourcePath("/v1/capsules/%s/memories", capsuleID))
}

// UpdateMemoryRequest is the PUT /v1/memories/{id} request body. Nil fields
// are left unchanged server-side.
type UpdateMemoryRequest struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Location    *string         `json:"location,omitempty"`
	MemoryNotes *string         `json:"memory_notes,omitempty"`
	Access      json.RawMessage `json:"access,omitempty"`
}

// UpdateMemory patches a memory's metadata or access policy.
func (c *Client) UpdateMemory(memoryID string, req UpdateMemoryRequest) (*Memory, error) {
	var result Memory
	if err := c.put(resourcePath("/v1/memories/%s", memoryID), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteMemory deletes a single memory.
func (c *Client) DeleteMemory(memoryID string) error {
	return deleteResource(c, resourcePath("/v1/memories/%s", memoryID))
}

// DeleteAllMemories deletes every memory owned by a capsule.
func (c *Client) DeleteAllMemories(capsuleID string) error {
	return deleteResource(c, resourcePath("/v1/capsules/%s/memories?all=true", capsuleID))
}

// DeleteMemories bulk-deletes exactly the given memories from a capsule.
func (c *Client) DeleteMemories(capsuleID string, memoryIDs []string) error {
	path := resourcePath("/v1/capsules/%s/memories?ids=%s", capsuleID, strings.Join(memoryIDs, ","))
	return deleteResource(c, path)
}
