package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/memvault/memvault/internal/cli/health"
	blobmem "github.com/memvault/memvault/pkg/blobstore/memstore"
	capsulemem "github.com/memvault/memvault/pkg/capsulestore/memstore"
	"github.com/memvault/memvault/pkg/memvault/model"
	"github.com/memvault/memvault/pkg/session"
	"github.com/memvault/memvault/pkg/sharingcore"
	"github.com/memvault/memvault/pkg/upload"
)

// stubOwnerResolver reports no resource as pre-owned, which is sufficient
// for the share-free endpoints exercised here.
type stubOwnerResolver struct{}

func (stubOwnerResolver) IsOwner(ctx context.Context, resourceType model.ResourceType, resourceID string, principal model.PersonRef) (bool, error) {
	return false, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	capsules := capsulemem.New()
	sharing := sharingcore.NewMemStore(stubOwnerResolver{})
	region := blobmem.NewRegion(0)
	sessions := session.NewService(upload.MaxActivePerPrincipal)
	uploads := upload.NewService(sessions, region, capsules)

	return NewRouter(Deps{Capsules: capsules, Uploads: uploads, Sharing: sharing})
}

func principalHeader(bytes []byte) string {
	return hex.EncodeToString(bytes)
}

func doRequest(t *testing.T, h http.Handler, method, path, principal string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if principal != "" {
		req.Header.Set(HeaderPrincipal, principal)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthLiveness(t *testing.T) {
	h := newTestRouter(t)
	w := doRequest(t, h, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp health.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode health.Response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("Status = %q, want %q", resp.Status, "healthy")
	}
	if resp.Data.Service != "memvaultd" {
		t.Errorf("Data.Service = %q, want %q", resp.Data.Service, "memvaultd")
	}
	if resp.Data.StartedAt == "" || resp.Data.Uptime == "" {
		t.Errorf("Data.StartedAt/Uptime not populated: %+v", resp.Data)
	}
}

func TestCapsulesCreateRequiresCaller(t *testing.T) {
	h := newTestRouter(t)
	w := doRequest(t, h, http.MethodPost, "/v1/capsules", "", []byte(`{}`))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for missing caller, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCapsulesCreateAndRead(t *testing.T) {
	h := newTestRouter(t)
	alice := principalHeader([]byte("alice"))

	w := doRequest(t, h, http.MethodPost, "/v1/capsules", alice, []byte(`{}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created capsuleResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a capsule id")
	}

	w = doRequest(t, h, http.MethodGet, "/v1/capsules/"+string(created.ID), alice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 reading own capsule, got %d: %s", w.Code, w.Body.String())
	}

	var read capsuleResponse
	if err := json.Unmarshal(w.Body.Bytes(), &read); err != nil {
		t.Fatalf("decode read response: %v", err)
	}
	if read.ID != created.ID {
		t.Fatalf("expected id %q, got %q", created.ID, read.ID)
	}
}

func TestCapsulesReadDeniedForStranger(t *testing.T) {
	h := newTestRouter(t)
	alice := principalHeader([]byte("alice"))
	mallory := principalHeader([]byte("mallory"))

	w := doRequest(t, h, http.MethodPost, "/v1/capsules", alice, []byte(`{}`))
	var created capsuleResponse
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	w = doRequest(t, h, http.MethodGet, "/v1/capsules/"+string(created.ID), mallory, nil)
	if w.Code != http.StatusForbidden && w.Code != http.StatusNotFound {
		t.Fatalf("expected a denial for a non-owner, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMemoriesCreateInlineAndRead(t *testing.T) {
	h := newTestRouter(t)
	alice := principalHeader([]byte("alice"))

	w := doRequest(t, h, http.MethodPost, "/v1/capsules", alice, []byte(`{}`))
	var capsule capsuleResponse
	_ = json.Unmarshal(w.Body.Bytes(), &capsule)

	body := []byte(`{
		"data": {"kind": "inline", "data": {"bytes": "aGVsbG8="}},
		"metadata": {"memory_type": "note", "content_type": "text/plain"},
		"idempotency_key": "idem-1"
	}`)
	w = doRequest(t, h, http.MethodPost, "/v1/capsules/"+string(capsule.ID)+"/memories", alice, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var mem memoryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &mem); err != nil {
		t.Fatalf("decode memory response: %v", err)
	}
	if len(mem.InlineAssets) != 1 {
		t.Fatalf("expected one inline asset, got %d", len(mem.InlineAssets))
	}

	w = doRequest(t, h, http.MethodGet, "/v1/memories/"+string(mem.ID), alice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 reading memory, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, h, http.MethodGet, "/v1/capsules/"+string(capsule.ID)+"/memories", alice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 listing memories, got %d: %s", w.Code, w.Body.String())
	}
	var headers []memoryHeaderResponse
	if err := json.Unmarshal(w.Body.Bytes(), &headers); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(headers) != 1 {
		t.Fatalf("expected one memory header, got %d", len(headers))
	}
}

func TestMemoriesCreateRejectsUnknownAssetKind(t *testing.T) {
	h := newTestRouter(t)
	alice := principalHeader([]byte("alice"))

	w := doRequest(t, h, http.MethodPost, "/v1/capsules", alice, []byte(`{}`))
	var capsule capsuleResponse
	_ = json.Unmarshal(w.Body.Bytes(), &capsule)

	body := []byte(`{
		"data": {"kind": "bogus", "data": {}},
		"metadata": {"memory_type": "note", "content_type": "text/plain"},
		"idempotency_key": "idem-2"
	}`)
	w = doRequest(t, h, http.MethodPost, "/v1/capsules/"+string(capsule.ID)+"/memories", alice, body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown asset kind, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMemoriesUpdateAndDelete(t *testing.T) {
	h := newTestRouter(t)
	alice := principalHeader([]byte("alice"))

	w := doRequest(t, h, http.MethodPost, "/v1/capsules", alice, []byte(`{}`))
	var capsule capsuleResponse
	_ = json.Unmarshal(w.Body.Bytes(), &capsule)

	createBody := []byte(`{
		"data": {"kind": "inline", "data": {"bytes": "aGVsbG8="}},
		"metadata": {"memory_type": "note", "content_type": "text/plain"},
		"idempotency_key": "idem-3"
	}`)
	w = doRequest(t, h, http.MethodPost, "/v1/capsules/"+string(capsule.ID)+"/memories", alice, createBody)
	var mem memoryResponse
	_ = json.Unmarshal(w.Body.Bytes(), &mem)

	updateBody := []byte(`{"title": "renamed"}`)
	w = doRequest(t, h, http.MethodPut, "/v1/memories/"+string(mem.ID), alice, updateBody)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 updating memory, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, h, http.MethodDelete, "/v1/memories/"+string(mem.ID), alice, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 deleting memory, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, h, http.MethodGet, "/v1/memories/"+string(mem.ID), alice, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 reading a deleted memory, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUploadsLifecycle(t *testing.T) {
	h := newTestRouter(t)
	alice := principalHeader([]byte("alice"))

	w := doRequest(t, h, http.MethodPost, "/v1/capsules", alice, []byte(`{}`))
	var capsule capsuleResponse
	_ = json.Unmarshal(w.Body.Bytes(), &capsule)

	beginBody, err := json.Marshal(beginUploadRequest{
		CapsuleID:      capsule.ID,
		Metadata:       memoryMetadataWire{MemoryType: model.MemoryTypeImage, ContentType: "image/png"},
		ExpectedChunks: 1,
		TotalLen:       5,
		IdempotencyKey: "upload-1",
	})
	if err != nil {
		t.Fatalf("marshal begin request: %v", err)
	}

	w = doRequest(t, h, http.MethodPost, "/v1/uploads", alice, beginBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 beginning upload, got %d: %s", w.Code, w.Body.String())
	}
	var begun beginUploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &begun); err != nil {
		t.Fatalf("decode begin response: %v", err)
	}

	w = doRequest(t, h, http.MethodPut, "/v1/uploads/"+string(begun.SessionID)+"/chunks/0", alice, []byte("hello"))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 putting chunk, got %d: %s", w.Code, w.Body.String())
	}

	finishBody, _ := json.Marshal(finishUploadRequest{
		ExpectedSHA256: "0000000000000000000000000000000000000000000000000000000000000000",
		TotalLen:       5,
	})
	w = doRequest(t, h, http.MethodPost, "/v1/uploads/"+string(begun.SessionID)+"/finish", alice, finishBody)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a deliberately wrong hash, got %d: %s", w.Code, w.Body.String())
	}
}
