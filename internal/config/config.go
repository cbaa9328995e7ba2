package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultServerAddr keeps the web shell on this machine. The shell acts as
// the one signed-in member, so anyone who can reach it can act as them.
const DefaultServerAddr = "127.0.0.1:3000"

// Token store backends
const (
	TokenStoreMemory   = "memory"
	TokenStoreDatabase = "database"
	TokenStoreRedis    = "redis"
)

// Rate limit store types
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

// Gateway authentication modes understood by go-httpclient
const (
	APIAuthModeNone   = "none"
	APIAuthModeSimple = "simple"
	APIAuthModeHMAC   = "hmac"
)

// Log formats
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

type Config struct {
	// WARR API
	APIBaseURL            string
	APITimeout            time.Duration
	APIInsecureSkipVerify bool
	APIAuthMode           string // Gateway authentication mode: "none", "simple", or "hmac"
	APIAuthSecret         string // Shared secret for gateway authentication
	APIAuthHeader         string // Custom header name for simple mode (default: "X-API-Secret")

	// Token store
	AccessTokenTTL  time.Duration // default: 15m
	RefreshTokenTTL time.Duration // default: 168h (7 days)
	TokenStore      string        // "memory", "database" or "redis"

	// Database (TOKEN_STORE=database)
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)
	DBInitTimeout  time.Duration
	DBCloseTimeout time.Duration

	// Redis (TOKEN_STORE=redis or RATE_LIMIT_STORE=redis)
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisKeyPrefix    string
	RedisConnTimeout  time.Duration
	RedisCloseTimeout time.Duration

	// Upload
	UploadMaxRetries    int // default: 0, no automatic retry
	UploadRetryDelay    time.Duration
	UploadMaxRetryDelay time.Duration

	// Web shell
	ServerAddr            string
	LoginURL              string // Where an ended session is sent
	LoginRateLimit        int    // Login attempts per minute per IP (0 disables)
	RateLimitStore        string // "memory" or "redis"
	ServerShutdownTimeout time.Duration

	// Observability
	MetricsEnabled bool
	LogLevel       string
	LogFormat      string // "console" or "json"
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", "warr.db")
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		// WARR API
		APIBaseURL:            strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080"), "/"),
		APITimeout:            getEnvDuration("API_TIMEOUT", 30*time.Second),
		APIInsecureSkipVerify: getEnvBool("API_INSECURE_SKIP_VERIFY", false),
		APIAuthMode:           getEnv("API_AUTH_MODE", APIAuthModeNone),
		APIAuthSecret:         getEnv("API_AUTH_SECRET", ""),
		APIAuthHeader:         getEnv("API_AUTH_HEADER", "X-API-Secret"),

		// Token store
		AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		TokenStore:      getEnv("TOKEN_STORE", TokenStoreDatabase),

		// Database
		DatabaseDriver: driver,
		DatabaseDSN:    dsn,
		DBInitTimeout:  getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),
		DBCloseTimeout: getEnvDuration("DB_CLOSE_TIMEOUT", 5*time.Second),

		// Redis
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		RedisKeyPrefix:    getEnv("REDIS_KEY_PREFIX", "warr:"),
		RedisConnTimeout:  getEnvDuration("REDIS_CONN_TIMEOUT", 5*time.Second),
		RedisCloseTimeout: getEnvDuration("REDIS_CLOSE_TIMEOUT", 5*time.Second),

		// Upload
		UploadMaxRetries:    getEnvInt("UPLOAD_MAX_RETRIES", 0),
		UploadRetryDelay:    getEnvDuration("UPLOAD_RETRY_DELAY", 1*time.Second),
		UploadMaxRetryDelay: getEnvDuration("UPLOAD_MAX_RETRY_DELAY", 10*time.Second),

		// Web shell
		ServerAddr:            getEnv("SERVER_ADDR", DefaultServerAddr),
		LoginURL:              getEnv("LOGIN_URL", "/login"),
		LoginRateLimit:        getEnvInt("LOGIN_RATE_LIMIT", 10),
		RateLimitStore:        getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		ServerShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Observability
		MetricsEnabled: getEnvBool("METRICS_ENABLED", false),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", LogFormatConsole),
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	if u, err := url.Parse(c.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API_BASE_URL value: %q", c.APIBaseURL)
	}

	switch c.APIAuthMode {
	case APIAuthModeNone:
	case APIAuthModeSimple, APIAuthModeHMAC:
		if c.APIAuthSecret == "" {
			return fmt.Errorf("API_AUTH_SECRET is required when API_AUTH_MODE=%s", c.APIAuthMode)
		}
	default:
		return fmt.Errorf(
			"invalid API_AUTH_MODE value: %q (must be %q, %q or %q)",
			c.APIAuthMode, APIAuthModeNone, APIAuthModeSimple, APIAuthModeHMAC,
		)
	}

	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("ACCESS_TOKEN_TTL and REFRESH_TOKEN_TTL must be positive")
	}
	if c.AccessTokenTTL > c.RefreshTokenTTL {
		return fmt.Errorf(
			"ACCESS_TOKEN_TTL (%s) must not exceed REFRESH_TOKEN_TTL (%s)",
			c.AccessTokenTTL, c.RefreshTokenTTL,
		)
	}

	switch c.TokenStore {
	case TokenStoreMemory, TokenStoreRedis:
	case TokenStoreDatabase:
		if c.DatabaseDSN == "" {
			return errors.New("DATABASE_DSN is required when TOKEN_STORE=database")
		}
	default:
		return fmt.Errorf(
			"invalid TOKEN_STORE value: %q (must be %q, %q or %q)",
			c.TokenStore, TokenStoreMemory, TokenStoreDatabase, TokenStoreRedis,
		)
	}

	if c.RateLimitStore != RateLimitStoreMemory && c.RateLimitStore != RateLimitStoreRedis {
		return fmt.Errorf(
			"invalid RATE_LIMIT_STORE value: %q (must be %q or %q)",
			c.RateLimitStore, RateLimitStoreMemory, RateLimitStoreRedis,
		)
	}
	if c.LoginRateLimit < 0 {
		return fmt.Errorf("invalid LOGIN_RATE_LIMIT value: %d", c.LoginRateLimit)
	}

	if c.UploadMaxRetries < 0 {
		return fmt.Errorf("invalid UPLOAD_MAX_RETRIES value: %d", c.UploadMaxRetries)
	}

	if c.LogFormat != LogFormatConsole && c.LogFormat != LogFormatJSON {
		return fmt.Errorf(
			"invalid LOG_FORMAT value: %q (must be %q or %q)",
			c.LogFormat, LogFormatConsole, LogFormatJSON,
		)
	}

	return nil
}

// UsesRedis reports whether any component needs a Redis connection
func (c *Config) UsesRedis() bool {
	return c.TokenStore == TokenStoreRedis || c.RateLimitStore == RateLimitStoreRedis
}

// ServerIsLoopback reports whether ServerAddr binds only to a loopback
// interface. An empty host (":3000") listens on every interface.
func (c *Config) ServerIsLoopback() bool {
	host, _, err := net.SplitHostPort(c.ServerAddr)
	if err != nil || host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
