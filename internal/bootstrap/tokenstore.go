package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/warr-app/warr/internal/cache"
	"github.com/warr-app/warr/internal/config"
	"github.com/warr-app/warr/internal/core"
	"github.com/warr-app/warr/internal/store"
	"github.com/warr-app/warr/internal/tokenstore"
)

// initializeTokenStore opens the configured backend and wraps it in a token store
func initializeTokenStore(ctx context.Context, cfg *config.Config) (*tokenstore.Store, error) {
	backend, err := initializeTokenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return tokenstore.New(
		backend,
		tokenstore.WithAccessTokenTTL(cfg.AccessTokenTTL),
		tokenstore.WithRefreshTokenTTL(cfg.RefreshTokenTTL),
	), nil
}

func initializeTokenBackend(ctx context.Context, cfg *config.Config) (core.Cache[string], error) {
	switch cfg.TokenStore {
	case config.TokenStoreRedis:
		ctx, cancel := context.WithTimeout(ctx, cfg.RedisConnTimeout)
		defer cancel()

		c, err := cache.NewRueidisCache[string](
			ctx,
			cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			cfg.RedisKeyPrefix+"tokens:",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis token store: %w", err)
		}
		log.Info().
			Str("addr", cfg.RedisAddr).
			Int("db", cfg.RedisDB).
			Msg("token store: redis")
		return c, nil

	case config.TokenStoreDatabase:
		db, err := initializeDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return db, nil

	default: // memory
		log.Info().Msg("token store: memory (credentials are lost on restart)")
		return cache.NewMemoryCache[string](), nil
	}
}

// initializeDatabase opens the durable backend and checks it answers in time
func initializeDatabase(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	db, err := store.New(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.DBInitTimeout)
	defer cancel()
	if err := db.Health(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	log.Info().Str("driver", cfg.DatabaseDriver).Msg("token store: database")
	return db, nil
}
