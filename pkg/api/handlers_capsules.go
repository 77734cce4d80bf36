package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/merrors"
	"github.com/memvault/memvault/pkg/memvault/model"
)

type createCapsuleRequest struct {
	Subject json.RawMessage `json:"subject"`
}

func (h *handlers) capsulesCreate(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createCapsuleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var subject model.PersonRef = caller
	if len(req.Subject) > 0 {
		subject, err = model.UnmarshalPersonRef(req.Subject)
		if err != nil {
			writeError(w, merrors.InvalidArgumentf("invalid subject: %v", err))
			return
		}
	}

	capsule, err := h.capsules.CapsulesCreate(r.Context(), caller, subject)
	if err != nil {
		writeError(w, err)
		return
	}

	resp, err := newCapsuleResponse(capsule)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONCreated(w, resp)
}

func (h *handlers) capsulesRead(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id := ids.CapsuleId(chi.URLParam(r, "capsuleID"))
	capsule, err := h.capsules.CapsulesReadBasic(r.Context(), caller, &id)
	if err != nil {
		writeError(w, err)
		return
	}

	resp, err := newCapsuleResponse(capsule)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONOK(w, resp)
}

func (h *handlers) capsulesList(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	headers, err := h.capsules.CapsulesList(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]capsuleHeaderResponse, 0, len(headers))
	for _, hdr := range headers {
		subject, err := model.MarshalPersonRef(hdr.Subject)
		if err != nil {
			writeError(w, err)
			return
		}
		out = append(out, capsuleHeaderResponse{ID: hdr.ID, Subject: subject, NumMemories: hdr.NumMemories})
	}
	writeJSONOK(w, out)
}

func (h *handlers) capsulesDelete(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id := ids.CapsuleId(chi.URLParam(r, "capsuleID"))
	if err := h.capsules.CapsulesDelete(r.Context(), caller, id, h.eraser()); err != nil {
		writeError(w, err)
		return
	}
	writeNoContent(w)
}
