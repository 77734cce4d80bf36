package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	client := New("http://localhost:8080")
	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:8080", client.baseURL)
}

func TestWithPrincipal(t *testing.T) {
	client := New("http://localhost:8080")
	principalClient := client.WithPrincipal("deadbeef")

	assert.Empty(t, client.principal)
	assert.Equal(t, "deadbeef", principalClient.principal)
	assert.Equal(t, "http://localhost:8080", principalClient.baseURL)
}

func TestWithOpaque(t *testing.T) {
	client := New("http://localhost:8080").WithOpaque("legacy-user-1")
	assert.Equal(t, "legacy-user-1", client.opaque)
	assert.Empty(t, client.principal)
}

func TestDoWithSuccess(t *testing.T) {
	type Response struct {
		Message string `json:"message"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(Response{Message: "success"})
	}))
	defer server.Close()

	client := New(server.URL)

	var resp Response
	err := client.get("/test", &resp)
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Message)
}

func TestDoSendsPrincipalHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "deadbeef", r.Header.Get(HeaderPrincipal))
		assert.Empty(t, r.Header.Get(HeaderOpaque))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL).WithPrincipal("deadbeef")
	err := client.get("/test", nil)
	require.NoError(t, err)
}

func TestDoSendsOpaqueHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "legacy-user-1", r.Header.Get(HeaderOpaque))
		assert.Empty(t, r.Header.Get(HeaderPrincipal))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL).WithOpaque("legacy-user-1")
	err := client.get("/test", nil)
	require.NoError(t, err)
}

func TestDoWithProblem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(Problem{
			Title:  "Not Found",
			Detail: "capsule does not exist",
		})
	}))
	defer server.Close()

	client := New(server.URL)
	err := client.get("/test", nil)
	require.Error(t, err)

	problem, ok := asProblem(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, problem.Status)
	assert.Equal(t, "capsule does not exist", problem.Detail)
	assert.True(t, problem.IsNotFound())
}

func TestDoWithPost(t *testing.T) {
	type Request struct {
		Name string `json:"name"`
	}
	type Response struct {
		ID int `json:"id"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var req Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "test", req.Name)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Response{ID: 123})
	}))
	defer server.Close()

	client := New(server.URL)

	var resp Response
	err := client.post("/test", Request{Name: "test"}, &resp)
	require.NoError(t, err)
	assert.Equal(t, 123, resp.ID)
}

func TestDoBytesSendsRawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
		body := make([]byte, 4)
		n, _ := r.Body.Read(body)
		assert.Equal(t, []byte("data"), body[:n])
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(server.URL)
	err := client.doBytes(http.MethodPut, "/chunk", []byte("data"), nil)
	require.NoError(t, err)
}
