// Package api implements the thin HTTP binding over the core engine: a chi
// router decoding JSON requests, calling straight into UploadService,
// CapsuleStore, and SharingCore, and mapping the closed error taxonomy onto
// HTTP status codes. It is not itself the subject of the core's invariants.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/memvault/memvault/pkg/memvault/merrors"
)

// Problem is an RFC 7807 "problem details" response body.
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// writeProblem writes an RFC 7807 problem response.
func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

// writeError maps a core error to its HTTP status via merrors.KindOf and
// writes it as a problem response.
func writeError(w http.ResponseWriter, err error) {
	kind := merrors.KindOf(err)
	status, title := httpStatusForKind(kind)
	writeProblem(w, status, title, err.Error())
}

func httpStatusForKind(k merrors.Kind) (int, string) {
	switch k {
	case merrors.KindNotFound:
		return http.StatusNotFound, "Not Found"
	case merrors.KindUnauthorized:
		return http.StatusForbidden, "Forbidden"
	case merrors.KindInvalidArgument:
		return http.StatusBadRequest, "Bad Request"
	case merrors.KindConflict:
		return http.StatusConflict, "Conflict"
	case merrors.KindResourceExhausted:
		return http.StatusInsufficientStorage, "Insufficient Storage"
	case merrors.KindIntegrityMismatch:
		return http.StatusUnprocessableEntity, "Unprocessable Entity"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeJSONOK(w http.ResponseWriter, data any)      { writeJSON(w, http.StatusOK, data) }
func writeJSONCreated(w http.ResponseWriter, data any) { writeJSON(w, http.StatusCreated, data) }
func writeNoContent(w http.ResponseWriter)             { w.WriteHeader(http.StatusNoContent) }

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return merrors.InvalidArgumentf("invalid request body: %v", err)
	}
	return nil
}
