package api

import (
	"net/http"
	"time"

	"github.com/memvault/memvault/internal/cli/health"
	"github.com/memvault/memvault/pkg/capsulestore"
	"github.com/memvault/memvault/pkg/sharingcore"
	"github.com/memvault/memvault/pkg/upload"
)

// handlers holds the engine collaborators every route dispatches into.
// Methods are grouped across handlers_capsules.go, handlers_memories.go,
// handlers_uploads.go, and handlers_shares.go.
type handlers struct {
	capsules  capsulestore.Store
	uploads   *upload.Service
	sharing   sharingcore.Store
	startedAt time.Time
}

// healthResponse builds the shared health.Response shape memvaultctl's
// status command parses, so the CLI and the server agree on one wire
// format instead of each growing its own.
func (h *handlers) healthResponse(status string) health.Response {
	now := time.Now().UTC()
	uptime := now.Sub(h.startedAt)

	resp := health.Response{
		Status:    status,
		Timestamp: now.Format(time.RFC3339),
	}
	resp.Data.Service = "memvaultd"
	resp.Data.StartedAt = h.startedAt.Format(time.RFC3339)
	resp.Data.Uptime = uptime.String()
	resp.Data.UptimeSec = int64(uptime.Seconds())
	return resp
}

func (h *handlers) healthLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSONOK(w, h.healthResponse("healthy"))
}

func (h *handlers) healthReadiness(w http.ResponseWriter, r *http.Request) {
	writeJSONOK(w, h.healthResponse("healthy"))
}

// eraser adapts upload.Service to capsulestore.BlobEraser for handlers
// that need to pass an eraser into cascade-deleting Store operations.
func (h *handlers) eraser() capsulestore.BlobEraser {
	return h.uploads
}
