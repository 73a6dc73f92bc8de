package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-template-filler/internal/model"
	"github.com/a3tai/pdf-template-filler/internal/storage"
	"github.com/a3tai/pdf-template-filler/internal/storage/storagetest"
)

// setupTestStore creates a store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	require.NotNil(t, store)
	return store
}

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store { return setupTestStore(t) })
}

func TestNewStore_EmptyDir(t *testing.T) {
	_, err := NewStore("", nil)
	assert.Error(t, err)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewStore(dir, nil)
	require.NoError(t, err)
	id, err := store.CreateProfile(ctx, &model.Profile{Name: "Jane", Fields: map[string]string{"Name": "Jane Doe"}})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir, nil)
	require.NoError(t, err, "migrations are not re-applied")
	defer reopened.Close()

	got, err := reopened.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Value("Name"))
}

func TestStore_NilProfileFields(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	defer store.Close()

	id, err := store.CreateProfile(ctx, &model.Profile{Name: "Empty"})
	require.NoError(t, err)

	got, err := store.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, got.Fields)
	assert.Empty(t, got.Fields)
}
