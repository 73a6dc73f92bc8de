package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-template-filler/internal/storage"
	"github.com/a3tai/pdf-template-filler/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store { return New() })
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := New()

	id, err := store.CreateTemplate(ctx, storagetest.SampleTemplate())
	require.NoError(t, err)

	got, err := store.GetTemplate(ctx, id)
	require.NoError(t, err)
	got.Fields[1].Box.X = 999

	again, err := store.GetTemplate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 50.0, again.Fields[1].Box.X)
}
