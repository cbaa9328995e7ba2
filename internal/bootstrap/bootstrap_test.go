package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warr-app/warr/internal/config"
	"github.com/warr-app/warr/internal/identity"
)

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		APIBaseURL:          apiURL,
		APITimeout:          5 * time.Second,
		APIAuthMode:         config.APIAuthModeNone,
		APIAuthHeader:       "X-API-Secret",
		AccessTokenTTL:      15 * time.Minute,
		RefreshTokenTTL:     time.Hour,
		TokenStore:          config.TokenStoreMemory,
		UploadRetryDelay:    10 * time.Millisecond,
		UploadMaxRetryDelay: 50 * time.Millisecond,
		ServerAddr:          ":0",
		LoginURL:            "/login",
		RateLimitStore:      config.RateLimitStoreMemory,
		LogFormat:           config.LogFormatConsole,
		LogLevel:            "info",
		DBInitTimeout:       5 * time.Second,
		RedisConnTimeout:    time.Second,
	}
}

func TestValidateDatabaseConfig(t *testing.T) {
	cfg := testConfig("http://api.example.com")
	assert.NoError(t, validateDatabaseConfig(cfg), "memory store needs no database")

	cfg.TokenStore = config.TokenStoreDatabase
	cfg.DatabaseDriver = "sqlite"
	assert.NoError(t, validateDatabaseConfig(cfg))

	cfg.DatabaseDriver = "mysql"
	err := validateDatabaseConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid DATABASE_DRIVER")

	cfg.DatabaseDriver = ""
	err = validateDatabaseConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_DRIVER is required")
}

func TestValidateAllConfiguration(t *testing.T) {
	cfg := testConfig("http://api.example.com")
	assert.NoError(t, validateAllConfiguration(cfg))

	cfg.TokenStore = "etcd"
	err := validateAllConfiguration(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestInitializeMetrics(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		cfg := &config.Config{MetricsEnabled: enabled}
		m := initializeMetrics(cfg)
		require.NotNil(t, m)
	}
}

func TestInitializeTokenStore_Database(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig("http://api.example.com")
	cfg.TokenStore = config.TokenStoreDatabase
	cfg.DatabaseDriver = "sqlite"
	cfg.DatabaseDSN = filepath.Join(t.TempDir(), "warr.db")

	tokens, err := initializeTokenStore(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, tokens.SetRefreshToken(ctx, "refresh-1"))
	require.NoError(t, tokens.Close())

	// credentials survive a restart
	tokens, err = initializeTokenStore(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tokens.Close() })

	refresh, ok := tokens.RefreshToken(ctx)
	assert.True(t, ok)
	assert.Equal(t, "refresh-1", refresh)
}

func TestInitializeTokenStore_RedisUnavailable(t *testing.T) {
	cfg := testConfig("http://api.example.com")
	cfg.TokenStore = config.TokenStoreRedis
	cfg.RedisAddr = "127.0.0.1:1"
	cfg.RedisConnTimeout = 200 * time.Millisecond

	_, err := initializeTokenStore(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis token store")
}

func TestInitializeRateLimitRedisClient_MemoryStore(t *testing.T) {
	cfg := testConfig("http://api.example.com")
	cfg.LoginRateLimit = 10

	client, err := initializeRateLimitRedisClient(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestSetupRateLimiting(t *testing.T) {
	cfg := testConfig("http://api.example.com")

	cfg.LoginRateLimit = 0
	limiters, err := setupRateLimiting(cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, limiters.login)

	cfg.LoginRateLimit = 5
	limiters, err = setupRateLimiting(cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, limiters.login)

	// redis store without a client cannot be built
	cfg.RateLimitStore = config.RateLimitStoreRedis
	_, err = setupRateLimiting(cfg, nil)
	assert.Error(t, err)
}

func TestRouter(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/auth/login":
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{
				"accessToken":  "access-1",
				"refreshToken": "refresh-1",
				"id":           9,
				"role":         "ACADEMY",
			}})
		case "/api/v1/academies/9":
			assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"name": "Happy Paws"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(api.Close)

	cfg := testConfig(api.URL)
	cfg.LoginRateLimit = 100

	clients, err := NewClients(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(clients.Close)

	limiters, err := setupRateLimiting(cfg, nil)
	require.NoError(t, err)
	router := setupRouter(cfg, clients, initializeHandlers(cfg, clients), limiters)

	serve := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(method, path, nil)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := serve(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	// no session: the pipeline answers with the envelope and the login URL
	w = serve(http.MethodGet, "/api/v1/academies/9", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, cfg.LoginURL, w.Header().Get("Location"))
	assert.Contains(t, w.Body.String(), `"success":false`)

	// guarded pages still redirect home
	w = serve(http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = serve(http.MethodPost, "/login", `{"memberId":"park","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), identity.PathAcademy)

	w = serve(http.MethodGet, "/api/v1/academies/9", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Happy Paws")

	w = serve(http.MethodGet, "/entry", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, identity.PathAcademy, w.Header().Get("Location"))
}

func newTestRouter(t *testing.T, cfg *config.Config) (*gin.Engine, *Clients) {
	t.Helper()
	clients, err := NewClients(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(clients.Close)

	limiters, err := setupRateLimiting(cfg, nil)
	require.NoError(t, err)
	return setupRouter(cfg, clients, initializeHandlers(cfg, clients), limiters), clients
}

func TestRouter_EntryFromTokenClaims(t *testing.T) {
	api := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(api.Close)
	router, clients := newTestRouter(t, testConfig(api.URL))
	ctx := context.Background()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   9,
		"role": "ACADEMY",
	}).SignedString([]byte("server-side-secret"))
	require.NoError(t, err)
	require.NoError(t, clients.Tokens.SetAccessToken(ctx, token))
	require.NoError(t, clients.Tokens.SetRefreshToken(ctx, "refresh-1"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/entry", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, identity.PathAcademy, w.Header().Get("Location"))

	user, ok := clients.Tokens.UserInfo(ctx)
	require.True(t, ok, "decoded identity is cached")
	assert.Equal(t, int64(9), user.ID)
}

func TestRouter_EntryRefreshesFirst(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/auth/refresh" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{
			"accessToken": "access-2",
			"id":          4,
			"role":        "USER",
		}})
	}))
	t.Cleanup(api.Close)
	router, clients := newTestRouter(t, testConfig(api.URL))
	require.NoError(t, clients.Tokens.SetRefreshToken(context.Background(), "refresh-1"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/entry", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, identity.RoleUser.EntryPath(), w.Header().Get("Location"))
}

func TestSetupGinMode(t *testing.T) {
	setupGinMode(&config.Config{LogLevel: "DEBUG"})
	assert.Equal(t, gin.DebugMode, gin.Mode())

	setupGinMode(&config.Config{LogLevel: "info"})
	assert.Equal(t, gin.ReleaseMode, gin.Mode())
}

