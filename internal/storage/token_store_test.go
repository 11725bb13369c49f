package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestTokenStore(t *testing.T) (*TokenStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portal.db")
	store, err := OpenTokenStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestTokenStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestTokenStore(t)

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.SetToken(ctx, "jwt-1"))
	require.NoError(t, store.SetToken(ctx, "jwt-2"))
	token, err = store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jwt-2", token)

	require.NoError(t, store.ClearToken(ctx))
	token, err = store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestTokenStoreRedirect(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestTokenStore(t)

	require.NoError(t, store.SetRedirect(ctx, "/academic"))
	location, err := store.Redirect(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/academic", location)

	require.NoError(t, store.ClearRedirect(ctx))
	_, found, err := store.Get(ctx, KeyRedirectAfter)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTokenStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	store, path := openTestTokenStore(t)
	require.NoError(t, store.SetToken(ctx, "persisted"))
	require.NoError(t, store.Close())

	reopened, err := OpenTokenStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	token, err := reopened.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", token)

	version, dirty, err := MigrationVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestMigrationRollback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))

	require.NoError(t, RollbackMigrations(path))
	version, _, err := MigrationVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	require.NoError(t, RunMigrations(path))
	version, _, err = MigrationVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}
