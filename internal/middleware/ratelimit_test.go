package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(t *testing.T, limiter gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(limiter)
	router.POST("/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	return router
}

func postFrom(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("X-Forwarded-For", ip)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestNewMemoryRateLimiter(t *testing.T) {
	limiter, err := NewMemoryRateLimiter(5)
	require.NoError(t, err)
	require.NotNil(t, limiter)

	router := newLimitedRouter(t, limiter)

	for i := 0; i < 5; i++ {
		w := postFrom(router, "192.168.1.100")
		assert.Equal(t, http.StatusOK, w.Code, "Request %d should succeed", i+1)
	}

	w := postFrom(router, "192.168.1.100")
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "Request should be rate limited")
}

func TestRateLimiter_DifferentIPs(t *testing.T) {
	limiter, err := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 2,
		StoreType:         RateLimitStoreMemory,
	})
	require.NoError(t, err)

	router := newLimitedRouter(t, limiter)

	// Different IPs should have independent limits
	for _, ip := range []string{"192.168.1.1", "192.168.1.2", "192.168.1.3"} {
		for i := 0; i < 2; i++ {
			w := postFrom(router, ip)
			assert.Equal(t, http.StatusOK, w.Code, "Request %d from IP %s should succeed", i+1, ip)
		}

		w := postFrom(router, ip)
		assert.Equal(
			t,
			http.StatusTooManyRequests,
			w.Code,
			"Third request from IP %s should be rate limited",
			ip,
		)
	}
}

func TestRateLimiter_ErrorEnvelope(t *testing.T) {
	limiter, err := NewMemoryRateLimiter(1)
	require.NoError(t, err)
	router := newLimitedRouter(t, limiter)

	require.Equal(t, http.StatusOK, postFrom(router, "10.0.0.1").Code)
	w := postFrom(router, "10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Nil(t, body["data"])
	assert.Equal(t, float64(http.StatusTooManyRequests), body["statusCode"])
	assert.NotEmpty(t, body["error"])
}

func TestNewRateLimiter_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config RateLimitConfig
	}{
		{"zero rate", RateLimitConfig{RequestsPerMinute: 0}},
		{"redis without client", RateLimitConfig{RequestsPerMinute: 5, StoreType: RateLimitStoreRedis}},
		{"unknown store", RateLimitConfig{RequestsPerMinute: 5, StoreType: "memcache"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter, err := NewRateLimiter(tt.config)
			assert.Error(t, err)
			assert.Nil(t, limiter)
		})
	}
}

// TestRedisRateLimiter_MultiInstance simulates two shell instances sharing Redis.
// It requires a Redis server on localhost:6379 and is skipped otherwise.
func TestRedisRateLimiter_MultiInstance(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	// unique prefix so reruns start from a clean budget
	prefix := fmt.Sprintf("warr-test-%d", time.Now().UnixNano())
	newLimiter := func() gin.HandlerFunc {
		limiter, err := NewRateLimiter(RateLimitConfig{
			RequestsPerMinute: 4,
			StoreType:         RateLimitStoreRedis,
			RedisClient:       client,
			Prefix:            prefix,
		})
		require.NoError(t, err)
		return limiter
	}

	router1 := newLimitedRouter(t, newLimiter())
	router2 := newLimitedRouter(t, newLimiter())

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, postFrom(router1, "172.16.0.9").Code)
		assert.Equal(t, http.StatusOK, postFrom(router2, "172.16.0.9").Code)
	}

	// the budget is shared
	assert.Equal(t, http.StatusTooManyRequests, postFrom(router1, "172.16.0.9").Code)
	assert.Equal(t, http.StatusTooManyRequests, postFrom(router2, "172.16.0.9").Code)
}
