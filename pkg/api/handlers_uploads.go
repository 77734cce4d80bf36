package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/merrors"
)

type beginUploadRequest struct {
	CapsuleID      ids.CapsuleId      `json:"capsule_id"`
	Metadata       memoryMetadataWire `json:"metadata"`
	ExpectedChunks uint32             `json:"expected_chunks"`
	TotalLen       uint64             `json:"total_len"`
	IdempotencyKey string             `json:"idempotency_key"`
}

type beginUploadResponse struct {
	SessionID        ids.SessionId `json:"session_id"`
	ExistingMemoryID *ids.MemoryId `json:"existing_memory_id,omitempty"`
}

func (h *handlers) uploadsBegin(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req beginUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.IdempotencyKey == "" {
		writeError(w, merrors.InvalidArgument("idempotency_key is required"))
		return
	}

	meta, err := metadataFromWire(req.Metadata)
	if err != nil {
		writeError(w, err)
		return
	}

	sid, existingMemID, err := h.uploads.BeginUpload(r.Context(), caller, req.CapsuleID, meta, req.ExpectedChunks, req.TotalLen, req.IdempotencyKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONCreated(w, beginUploadResponse{SessionID: sid, ExistingMemoryID: existingMemID})
}

func (h *handlers) uploadsPutChunk(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sid := ids.SessionId(chi.URLParam(r, "sessionID"))
	chunkIdx, err := strconv.ParseUint(chi.URLParam(r, "chunkIdx"), 10, 32)
	if err != nil {
		writeError(w, merrors.InvalidArgumentf("invalid chunk index: %v", err))
		return
	}

	chunk, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, merrors.InvalidArgumentf("failed to read chunk body: %v", err))
		return
	}

	if err := h.uploads.UploadsPutChunk(r.Context(), caller, sid, uint32(chunkIdx), chunk); err != nil {
		writeError(w, err)
		return
	}
	writeNoContent(w)
}

type finishUploadRequest struct {
	ExpectedSHA256 string `json:"expected_sha256"`
	TotalLen       uint64 `json:"total_len"`
}

type finishUploadResponse struct {
	MemoryID ids.MemoryId `json:"memory_id"`
}

func (h *handlers) uploadsFinish(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sid := ids.SessionId(chi.URLParam(r, "sessionID"))

	var req finishUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	memID, err := h.uploads.UploadsFinish(r.Context(), caller, sid, req.ExpectedSHA256, req.TotalLen)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONOK(w, finishUploadResponse{MemoryID: memID})
}

func (h *handlers) uploadsAbort(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sid := ids.SessionId(chi.URLParam(r, "sessionID"))
	if err := h.uploads.UploadsAbort(r.Context(), caller, sid); err != nil {
		writeError(w, err)
		return
	}
	writeNoContent(w)
}
