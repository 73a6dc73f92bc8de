package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/a3tai/pdf-template-filler/internal/config"
	"github.com/a3tai/pdf-template-filler/internal/storage"
	"github.com/a3tai/pdf-template-filler/internal/storage/memory"
	"github.com/a3tai/pdf-template-filler/internal/storage/redis"
	"github.com/a3tai/pdf-template-filler/internal/storage/sqlite"
)

// OpenStore opens the record store selected by cfg.Store.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StoreSQLite:
		store, err := sqlite.NewStore(cfg.DataDir, logger)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return store, nil
	case config.StoreRedis:
		store, err := redis.NewStore(ctx, redis.Conf{
			Addr:   cfg.RedisAddr,
			DB:     cfg.RedisDB,
			Prefix: cfg.RedisPrefix,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("opening redis store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store: %s", cfg.Store)
	}
}
