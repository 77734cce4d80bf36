package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/memvault/memvault/internal/logger"
)

// NewRouter builds the chi router dispatching into deps.
//
// Routes:
//   - GET  /health, /health/ready          - liveness/readiness probes
//   - POST /v1/capsules                    - create a capsule
//   - GET  /v1/capsules                     - list capsules visible to caller
//   - GET  /v1/capsules/{id}                - read a capsule
//   - DELETE /v1/capsules/{id}              - delete a capsule and its memories
//   - POST /v1/capsules/{id}/memories       - create a memory (inline/external asset)
//   - GET  /v1/capsules/{id}/memories       - list a capsule's memories
//   - DELETE /v1/capsules/{id}/memories     - bulk/all memory deletion
//   - GET/PUT/DELETE /v1/memories/{id}      - read/update/delete one memory
//   - POST /v1/memories/{id}/assets         - attach a committed-blob or inline asset
//   - POST /v1/memories/{id}/assets/cleanup - strip every asset from a memory
//   - DELETE /v1/memories/{id}/assets/...   - remove one inline/internal/external asset
//   - POST /v1/uploads                      - begin a chunked upload session
//   - PUT  /v1/uploads/{sid}/chunks/{idx}   - upload one chunk
//   - POST /v1/uploads/{sid}/finish         - finish and commit the session
//   - POST /v1/uploads/{sid}/abort          - abort the session
//   - POST/GET /v1/shares, PUT /v1/shares/{id}/permissions,
//     DELETE /v1/shares/{id}               - resource membership management
//   - POST/DELETE /v1/shares/links, GET /v1/public/{token},
//     POST /v1/public/{token}/claim        - public link lifecycle
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	h := &handlers{capsules: deps.Capsules, uploads: deps.Uploads, sharing: deps.Sharing, startedAt: time.Now().UTC()}

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.healthLiveness)
		r.Get("/ready", h.healthReadiness)
	})

	r.Route("/v1/capsules", func(r chi.Router) {
		r.Post("/", h.capsulesCreate)
		r.Get("/", h.capsulesList)
		r.Get("/{capsuleID}", h.capsulesRead)
		r.Delete("/{capsuleID}", h.capsulesDelete)

		r.Route("/{capsuleID}/memories", func(r chi.Router) {
			r.Post("/", h.memoriesCreate)
			r.Get("/", h.memoriesList)
			r.Delete("/", h.memoriesDeleteBulkOrAll)
		})
	})

	r.Route("/v1/memories/{memoryID}", func(r chi.Router) {
		r.Get("/", h.memoriesRead)
		r.Put("/", h.memoriesUpdate)
		r.Delete("/", h.memoriesDelete)

		r.Route("/assets", func(r chi.Router) {
			r.Post("/", h.memoriesAddAsset)
			r.Post("/cleanup", h.memoriesCleanupAssets)
			r.Delete("/inline/{idx}", h.assetRemoveInline)
			r.Delete("/internal/{locator}", h.assetRemoveInternal)
			r.Delete("/external/{storageKey}", h.assetRemoveExternal)
		})
	})

	r.Route("/v1/uploads", func(r chi.Router) {
		r.Post("/", h.uploadsBegin)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Put("/chunks/{chunkIdx}", h.uploadsPutChunk)
			r.Post("/finish", h.uploadsFinish)
			r.Post("/abort", h.uploadsAbort)
		})
	})

	r.Route("/v1/shares", func(r chi.Router) {
		r.Post("/", h.sharesCreate)
		r.Get("/", h.sharesListForResource)
		r.Route("/{shareID}", func(r chi.Router) {
			r.Put("/permissions", h.sharesUpdatePermissions)
			r.Delete("/", h.sharesRevoke)
		})

		r.Route("/links", func(r chi.Router) {
			r.Post("/", h.sharesCreatePublicLink)
			r.Delete("/", h.sharesDeactivatePublicLink)
		})
	})

	r.Route("/v1/public/{token}", func(r chi.Router) {
		r.Get("/", h.publicValidateToken)
		r.Post("/claim", h.publicClaimToken)
	})

	return r
}

func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger logs request start at DEBUG and completion at INFO,
// demoting healthcheck traffic to DEBUG to keep normal logs readable.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		}
		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}
