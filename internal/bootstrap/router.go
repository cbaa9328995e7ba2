package bootstrap

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/warr-app/warr/internal/config"
	"github.com/warr-app/warr/internal/metrics"
	"github.com/warr-app/warr/internal/middleware"
	"github.com/warr-app/warr/internal/tokenstore"
	"github.com/warr-app/warr/internal/version"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	c *Clients,
	h handlerSet,
	rateLimiters rateLimitMiddlewares,
) *gin.Engine {
	setupGinMode(cfg)
	r := gin.New()

	r.Use(metrics.RequestMetrics(c.Recorder))
	r.Use(requestLogger(), gin.Recovery())
	r.Use(middleware.RequireSession(c.Tokens))

	// Health check endpoint
	r.GET("/healthz", createHealthCheckHandler(c.Tokens))

	setupMetricsEndpoint(r, cfg)
	setupAllRoutes(r, h, rateLimiters)

	log.Info().
		Str("addr", cfg.ServerAddr).
		Str("api", cfg.APIBaseURL).
		Str("version", version.String()).
		Msg("web shell configured")
	return r
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	if !cfg.MetricsEnabled {
		log.Info().Msg("Prometheus metrics disabled")
		return
	}
	log.Info().Msg("Prometheus metrics enabled at /metrics")
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// setupAllRoutes configures all application routes
func setupAllRoutes(r *gin.Engine, h handlerSet, rateLimiters rateLimitMiddlewares) {
	r.GET("/", h.session.Home)
	r.POST("/login", rateLimiters.login, h.session.Login)
	r.POST("/logout", h.session.Logout)
	r.GET("/me", h.session.Me)
	r.GET("/entry", h.session.Entry)
	r.POST("/upload", h.upload.Upload)
	r.Any("/api/*path", h.proxy.Forward)
}

// createHealthCheckHandler reports whether the token store backend answers
func createHealthCheckHandler(tokens *tokenstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := tokens.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "unhealthy",
				"token_store": "unreachable",
				"error":       err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"token_store": "connected",
		})
	}
}

// requestLogger writes one zerolog line per request
func requestLogger() gin.HandlerFunc {
	logger := log.Logger.With().Str("component", "http").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := zerolog.InfoLevel
		switch {
		case status >= 500:
			level = zerolog.ErrorLevel
		case status >= 400:
			level = zerolog.WarnLevel
		case c.Request.URL.Path == "/healthz":
			level = zerolog.DebugLevel
		}

		logger.WithLevel(level).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

func setupGinMode(cfg *config.Config) {
	mode := ginModeMap[strings.EqualFold(cfg.LogLevel, "debug")]
	gin.SetMode(mode)
}

var ginModeMap = map[bool]string{
	true:  gin.DebugMode,
	false: gin.ReleaseMode,
}
