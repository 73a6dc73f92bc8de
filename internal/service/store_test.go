package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-template-filler/internal/config"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     *config.Config
		wantErr bool
	}{
		{"memory", &config.Config{Store: config.StoreMemory}, false},
		{"sqlite", &config.Config{Store: config.StoreSQLite, DataDir: t.TempDir()}, false},
		{"unknown", &config.Config{Store: "etcd"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := OpenStore(ctx, tt.cfg, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer store.Close()

			list, err := store.ListProfiles(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{
		Store:         config.StoreSQLite,
		DataDir:       t.TempDir(),
		WorkDirectory: t.TempDir(),
		Padding:       config.DefaultPadding,
	}
	svc, err := NewFromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer svc.Close()
	assert.NotEmpty(t, svc.WorkDirectory())
}
