package apiclient

import "net/http"

// Problem is the RFC 7807 problem+json body memvaultd returns on error.
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Error implements the error interface.
func (p *Problem) Error() string {
	if p.Detail != "" {
		return p.Title + ": " + p.Detail
	}
	return p.Title
}

// IsForbidden returns true if this is a permission error.
func (p *Problem) IsForbidden() bool {
	return p.Status == http.StatusForbidden
}

// IsNotFound returns true if this is a not found error.
func (p *Problem) IsNotFound() bool {
	return p.Status == http.StatusNotFound
}

// IsConflict returns true if this is a conflict error.
func (p *Problem) IsConflict() bool {
	return p.Status == http.StatusConflict
}

// IsValidationError returns true if this is a validation error.
func (p *Problem) IsValidationError() bool {
	return p.Status == http.StatusBadRequest
}

// IsResourceExhausted returns true if a capacity limit was hit (e.g. too
// many concurrent upload sessions for the caller).
func (p *Problem) IsResourceExhausted() bool {
	return p.Status == http.StatusInsufficientStorage
}

// IsIntegrityMismatch returns true if an uploaded payload failed its
// checksum or length check.
func (p *Problem) IsIntegrityMismatch() bool {
	return p.Status == http.StatusUnprocessableEntity
}

// asProblem narrows a Client error to *Problem, for callers that want to
// inspect it without an extra type assertion.
func asProblem(err error) (*Problem, bool) {
	p, ok := err.(*Problem)
	return p, ok
}
