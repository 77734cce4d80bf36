package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHasIdentity(t *testing.T) {
	ctx := &Context{}
	assert.False(t, ctx.HasIdentity())

	ctx.Principal = "deadbeef"
	assert.True(t, ctx.HasIdentity())

	ctx = &Context{Opaque: "legacy-user-1"}
	assert.True(t, ctx.HasIdentity())
}

func withTempConfigHome(t *testing.T) string {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "memvaultctl-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })

	oldXDG := os.Getenv("XDG_CONFIG_HOME")
	_ = os.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Cleanup(func() { _ = os.Setenv("XDG_CONFIG_HOME", oldXDG) })

	return tmpDir
}

func TestStoreOperations(t *testing.T) {
	tmpDir := withTempConfigHome(t)

	store, err := NewStore()
	require.NoError(t, err)
	assert.NotNil(t, store)

	expectedPath := filepath.Join(tmpDir, DefaultConfigDir, ConfigFileName)
	assert.Equal(t, expectedPath, store.ConfigPath())

	_, err = store.GetCurrentContext()
	assert.ErrorIs(t, err, ErrNoCurrentContext)
	assert.Empty(t, store.ListContexts())

	ctx1 := &Context{ServerURL: "http://localhost:8080", Principal: "deadbeef"}
	require.NoError(t, store.SetContext("default", ctx1))
	require.NoError(t, store.UseContext("default"))

	current, err := store.GetCurrentContext()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", current.ServerURL)
	assert.Equal(t, "deadbeef", current.Principal)

	ctx2 := &Context{ServerURL: "http://prod:8080"}
	require.NoError(t, store.SetContext("production", ctx2))

	contexts := store.ListContexts()
	assert.Len(t, contexts, 2)
	assert.Contains(t, contexts, "default")
	assert.Contains(t, contexts, "production")

	require.NoError(t, store.UseContext("production"))
	assert.Equal(t, "production", store.GetCurrentContextName())

	require.NoError(t, store.RenameContext("production", "prod"))
	assert.Equal(t, "prod", store.GetCurrentContextName())

	require.NoError(t, store.DeleteContext("prod"))
	assert.Empty(t, store.GetCurrentContextName())

	_, err = store.GetContext("nonexistent")
	assert.ErrorIs(t, err, ErrContextNotFound)

	err = store.UseContext("nonexistent")
	assert.ErrorIs(t, err, ErrContextNotFound)
}

func TestStoreSetPrincipalAndOpaque(t *testing.T) {
	withTempConfigHome(t)

	store, err := NewStore()
	require.NoError(t, err)

	ctx := &Context{ServerURL: "http://localhost:8080"}
	require.NoError(t, store.SetContext("default", ctx))
	require.NoError(t, store.UseContext("default"))

	require.NoError(t, store.SetPrincipal("abcd1234"))
	current, err := store.GetCurrentContext()
	require.NoError(t, err)
	assert.Equal(t, "abcd1234", current.Principal)
	assert.Empty(t, current.Opaque)

	require.NoError(t, store.SetOpaque("legacy-user-1"))
	current, err = store.GetCurrentContext()
	require.NoError(t, err)
	assert.Equal(t, "legacy-user-1", current.Opaque)
	assert.Empty(t, current.Principal)
}

func TestStoreClearCurrentContext(t *testing.T) {
	withTempConfigHome(t)

	store, err := NewStore()
	require.NoError(t, err)

	ctx := &Context{ServerURL: "http://localhost:8080", Principal: "abcd1234"}
	require.NoError(t, store.SetContext("default", ctx))
	require.NoError(t, store.UseContext("default"))

	require.NoError(t, store.ClearCurrentContext())

	current, err := store.GetCurrentContext()
	require.NoError(t, err)
	assert.Empty(t, current.Principal)
	assert.Empty(t, current.Opaque)
	assert.Equal(t, "http://localhost:8080", current.ServerURL)
}

func TestStorePreferences(t *testing.T) {
	withTempConfigHome(t)

	store, err := NewStore()
	require.NoError(t, err)

	prefs := store.GetPreferences()
	assert.Empty(t, prefs.DefaultOutput)
	assert.Empty(t, prefs.Color)

	newPrefs := Preferences{DefaultOutput: "json", Color: "auto", Editor: "vim"}
	require.NoError(t, store.SetPreferences(newPrefs))

	prefs = store.GetPreferences()
	assert.Equal(t, "json", prefs.DefaultOutput)
	assert.Equal(t, "auto", prefs.Color)
	assert.Equal(t, "vim", prefs.Editor)
}
