package bootstrap

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/warr-app/warr/internal/config"
	"github.com/warr-app/warr/internal/middleware"
)

// rateLimitMiddlewares holds rate limiting middlewares for different endpoints
type rateLimitMiddlewares struct {
	login gin.HandlerFunc
}

// setupRateLimiting configures rate limiting middlewares based on configuration
func setupRateLimiting(
	cfg *config.Config,
	redisClient *redis.Client,
) (rateLimitMiddlewares, error) {
	if cfg.LoginRateLimit <= 0 {
		log.Info().Msg("login rate limiting disabled")
		return rateLimitMiddlewares{login: func(c *gin.Context) { c.Next() }}, nil
	}

	login, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerMinute: cfg.LoginRateLimit,
		CleanupInterval:   5 * time.Minute,
		Prefix:            cfg.RedisKeyPrefix + "ratelimit:login",
		StoreType:         middleware.RateLimitStoreType(cfg.RateLimitStore),
		RedisClient:       redisClient,
	})
	if err != nil {
		return rateLimitMiddlewares{}, fmt.Errorf("failed to create rate limiter for /login: %w", err)
	}

	log.Info().
		Str("store", cfg.RateLimitStore).
		Int("per_minute", cfg.LoginRateLimit).
		Msg("login rate limiting enabled")
	return rateLimitMiddlewares{login: login}, nil
}
