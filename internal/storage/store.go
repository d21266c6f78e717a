package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"quiz-trainer/internal/config"
)

var ErrClosed = errors.New("store closed")

// Store is a string key/value backend for quiz statistics.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Open selects a backend by cfg.StoreDriver and verifies it is reachable.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Store, error) {
	log = log.With().Str("component", "storage").Logger()

	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Info().Str("driver", cfg.StoreDriver).Msg("Using in-memory store")
		return NewMemoryKV(), nil
	case config.DriverFile, "":
		store, err := NewFileKV(cfg.StorePath, log)
		if err != nil {
			return nil, err
		}
		log.Info().Str("driver", config.DriverFile).Str("path", store.Path()).Msg("File store ready")
		return store, nil
	case config.DriverSQLite:
		store, err := NewSQLiteKV(ctx, cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		log.Info().Str("driver", cfg.StoreDriver).Str("path", cfg.StorePath).Msg("SQLite store ready")
		return store, nil
	case config.DriverRedis:
		return NewRedisKV(ctx, cfg, log)
	case config.DriverPostgres:
		return NewPostgresKV(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.StoreDriver)
	}
}
