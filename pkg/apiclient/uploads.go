package apiclient

// BeginUploadRequest is the POST /v1/uploads request body.
type BeginUploadRequest struct {
	CapsuleID      string         `json:"capsule_id"`
	Metadata       MemoryMetadata `json:"metadata"`
	ExpectedChunks uint32         `json:"expected_chunks"`
	TotalLen       uint64         `json:"total_len"`
	IdempotencyKey string         `json:"idempotency_key"`
}

// BeginUploadResponse is returned from BeginUpload. ExistingMemoryID is set
// when an earlier call with the same idempotency key already completed,
// letting the caller skip re-uploading chunks entirely.
type BeginUploadResponse struct {
	SessionID        string  `json:"session_id"`
	ExistingMemoryID *string `json:"existing_memory_id,omitempty"`
}

// BeginUpload starts a chunked upload session.
func (c *Client) BeginUpload(req BeginUploadRequest) (*BeginUploadResponse, error) {
	return createResource[BeginUploadResponse](c, "/v1/uploads", req)
}

// PutChunk uploads one chunk's raw bytes to an open session.
func (c *Client) PutChunk(sessionID string, chunkIdx uint32, chunk []byte) error {
	path := resourcePath("/v1/uploads/%s/chunks/%d", sessionID, chunkIdx)
	return c.doBytes("PUT", path, chunk, nil)
}

// FinishUploadRequest is the POST /v1/uploads/{id}/finish request body.
type FinishUploadRequest struct {
	ExpectedSHA256 string `json:"expected_sha256"`
	TotalLen       uint64 `json:"total_len"`
}

// FinishUploadResponse carries the id of the memory the session committed
// into.
type FinishUploadResponse struct {
	MemoryID string `json:"memory_id"`
}

// FinishUpload verifies every chunk landed and commits the session into a
// memory. The server rejects this with an integrity-mismatch error if the
// assembled bytes don't match ExpectedSHA256/TotalLen.
func (c *Client) FinishUpload(sessionID string, req FinishUploadRequest) (*FinishUploadResponse, error) {
	return createResource[FinishUploadResponse](c, resourcePath("/v1/uploads/%s/finish", sessionID), req)
}

// AbortUpload cancels an open session and releases its reserved chunk
// storage.
func (c *Client) AbortUpload(sessionID string) error {
	return c.post(resourcePath("/v1/uploads/%s/abort", sessionID), nil, nil)
}
