package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/merrors"
)

func (h *handlers) memoriesCreate(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	capsuleID := ids.CapsuleId(chi.URLParam(r, "capsuleID"))

	var req createMemoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	data, meta, access, err := req.decode()
	if err != nil {
		writeError(w, err)
		return
	}

	memID, err := h.capsules.MemoriesCreate(r.Context(), caller, capsuleID, data, meta, access, req.IdempotencyKey)
	if err != nil {
		writeError(w, err)
		return
	}

	mem, err := h.capsules.MemoriesRead(r.Context(), caller, memID)
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := newMemoryResponse(mem)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONCreated(w, resp)
}

func (h *handlers) memoriesRead(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id := ids.MemoryId(chi.URLParam(r, "memoryID"))
	mem, err := h.capsules.MemoriesRead(r.Context(), caller, id)
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := newMemoryResponse(mem)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONOK(w, resp)
}

func (h *handlers) memoriesList(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	capsuleID := ids.CapsuleId(chi.URLParam(r, "capsuleID"))
	headers, err := h.capsules.MemoriesList(r.Context(), caller, capsuleID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]memoryHeaderResponse, 0, len(headers))
	for _, hdr := range headers {
		out = append(out, newMemoryHeaderResponse(hdr))
	}
	writeJSONOK(w, out)
}

func (h *handlers) memoriesUpdate(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id := ids.MemoryId(chi.URLParam(r, "memoryID"))

	var req updateMemoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	upd, err := req.toModel()
	if err != nil {
		writeError(w, merrors.InvalidArgumentf("%v", err))
		return
	}

	if err := h.capsules.MemoriesUpdate(r.Context(), caller, id, upd); err != nil {
		writeError(w, err)
		return
	}
	writeNoContent(w)
}

func (h *handlers) memoriesDelete(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id := ids.MemoryId(chi.URLParam(r, "memoryID"))
	if err := h.capsules.MemoriesDelete(r.Context(), caller, id, h.eraser()); err != nil {
		writeError(w, err)
		return
	}
	writeNoContent(w)
}

// memoriesDeleteBulkOrAll handles DELETE /v1/capsules/{id}/memories. With
// ?all=true it deletes every memory in the capsule; otherwise it requires
// a comma-separated ?ids= list and deletes exactly those.
func (h *handlers) memoriesDeleteBulkOrAll(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	capsuleID := ids.CapsuleId(chi.URLParam(r, "capsuleID"))

	if r.URL.Query().Get("all") == "true" {
		result, err := h.capsules.MemoriesDeleteAll(r.Context(), caller, capsuleID, h.eraser())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSONOK(w, result)
		return
	}

	idsParam := r.URL.Query().Get("ids")
	if idsParam == "" {
		writeError(w, merrors.InvalidArgument("ids query parameter is required unless all=true"))
		return
	}
	parts := strings.Split(idsParam, ",")
	memoryIDs := make([]ids.MemoryId, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			memoryIDs = append(memoryIDs, ids.MemoryId(p))
		}
	}

	result, err := h.capsules.MemoriesDeleteBulk(r.Context(), caller, capsuleID, memoryIDs, h.eraser())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONOK(w, result)
}

func (h *handlers) memoriesAddAsset(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id := ids.MemoryId(chi.URLParam(r, "memoryID"))

	var req createMemoryRequest // reuses {data, metadata} shape; access/idempotency_key are ignored
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	data, meta, _, err := req.decode()
	if err != nil {
		writeError(w, err)
		return
	}

	if inline, ok := assetDataAsInline(data); ok {
		if err := h.capsules.MemoriesAddInlineAsset(r.Context(), caller, id, inline, meta); err != nil {
			writeError(w, err)
			return
		}
	} else if ref, ok := assetDataAsBlobRef(data); ok {
		if err := h.capsules.MemoriesAddAsset(r.Context(), caller, id, ref, meta); err != nil {
			writeError(w, err)
			return
		}
	} else {
		writeError(w, merrors.InvalidArgument("assets can only be attached as inline bytes or a committed blob reference"))
		return
	}
	writeNoContent(w)
}

func (h *handlers) memoriesCleanupAssets(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id := ids.MemoryId(chi.URLParam(r, "memoryID"))
	result, err := h.capsules.MemoriesCleanupAssetsAll(r.Context(), caller, id, h.eraser())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONOK(w, result)
}

func (h *handlers) assetRemoveInline(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id := ids.MemoryId(chi.URLParam(r, "memoryID"))
	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil {
		writeError(w, merrors.InvalidArgumentf("invalid asset index: %v", err))
		return
	}

	if err := h.capsules.AssetRemoveInline(r.Context(), caller, id, idx); err != nil {
		writeError(w, err)
		return
	}
	writeNoContent(w)
}

func (h *handlers) assetRemoveInternal(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id := ids.MemoryId(chi.URLParam(r, "memoryID"))
	locator := chi.URLParam(r, "locator")

	if err := h.capsules.AssetRemoveInternal(r.Context(), caller, id, locator, h.eraser()); err != nil {
		writeError(w, err)
		return
	}
	writeNoContent(w)
}

func (h *handlers) assetRemoveExternal(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id := ids.MemoryId(chi.URLParam(r, "memoryID"))
	storageKey := chi.URLParam(r, "storageKey")

	if err := h.capsules.AssetRemoveExternal(r.Context(), caller, id, storageKey); err != nil {
		writeError(w, err)
		return
	}
	writeNoContent(w)
}
