// Package tokenstore keeps the credential pair and the identity snapshot in
// a durable key-value backend with a fixed TTL per slot.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/warr-app/warr/internal/cache"
	"github.com/warr-app/warr/internal/core"
	"github.com/warr-app/warr/internal/identity"
)

// Slot names. They match the cookie names the web client used, so a shared
// backend can be read by both.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
	UserInfoKey     = "user_info"
)

// Default TTLs. They are an upper bound on how long a value is trusted
// locally; the API's own expiry is always shorter or equal.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Store reads and writes the three credential slots.
//
// A Store with a nil backend is unavailable: reads report absent and writes
// are silently dropped, so callers never need to special-case it.
type Store struct {
	backend    core.Cache[string]
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     zerolog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithAccessTokenTTL overrides the access token TTL
func WithAccessTokenTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.accessTTL = d
		}
	}
}

// WithRefreshTokenTTL overrides the refresh token TTL (also used for the snapshot)
func WithRefreshTokenTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.refreshTTL = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New creates a Store over backend.
func New(backend core.Cache[string], opts ...Option) *Store {
	s := &Store{
		backend:    backend,
		accessTTL:  DefaultAccessTokenTTL,
		refreshTTL: DefaultRefreshTokenTTL,
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "tokenstore").Logger()
	return s
}

// Available reports whether the store has a backend.
func (s *Store) Available() bool {
	return s != nil && s.backend != nil
}

// SetAccessToken stores the access token, replacing any previous one.
func (s *Store) SetAccessToken(ctx context.Context, token string) error {
	return s.set(ctx, AccessTokenKey, token, s.accessTTL)
}

// AccessToken returns the stored access token if it is present and its TTL
// has not elapsed.
func (s *Store) AccessToken(ctx context.Context) (string, bool) {
	return s.get(ctx, AccessTokenKey)
}

// SetRefreshToken stores the refresh token, replacing any previous one.
func (s *Store) SetRefreshToken(ctx context.Context, token string) error {
	return s.set(ctx, RefreshTokenKey, token, s.refreshTTL)
}

// RefreshToken returns the stored refresh token if present.
func (s *Store) RefreshToken(ctx context.Context) (string, bool) {
	return s.get(ctx, RefreshTokenKey)
}

// SetUserInfo stores the identity snapshot as JSON.
func (s *Store) SetUserInfo(ctx context.Context, snapshot *identity.Snapshot) error {
	if snapshot == nil {
		return s.delete(ctx, UserInfoKey)
	}
	encoded, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.set(ctx, UserInfoKey, string(encoded), s.refreshTTL)
}

// UserInfo returns the stored identity snapshot. A value that does not parse
// is reported as absent.
func (s *Store) UserInfo(ctx context.Context) (*identity.Snapshot, bool) {
	raw, ok := s.get(ctx, UserInfoKey)
	if !ok {
		return nil, false
	}

	var snapshot identity.Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		s.logger.Warn().Err(err).Msg("discarding unreadable user info")
		return nil, false
	}
	return &snapshot, true
}

// ClearTokens removes the credential pair and the snapshot. Clearing an
// already empty store is a no-op.
func (s *Store) ClearTokens(ctx context.Context) error {
	return s.delete(ctx, AccessTokenKey, RefreshTokenKey, UserInfoKey)
}

// HasTokens reports whether both the access and the refresh token are present.
func (s *Store) HasTokens(ctx context.Context) bool {
	if !s.Available() {
		return false
	}
	values, err := s.backend.MGet(ctx, []string{AccessTokenKey, RefreshTokenKey})
	if err != nil {
		s.logger.Warn().Err(err).Msg("token lookup failed")
		return false
	}
	return values[AccessTokenKey] != "" && values[RefreshTokenKey] != ""
}

// Health reports the state of the backend.
func (s *Store) Health(ctx context.Context) error {
	if !s.Available() {
		return ErrUnavailable
	}
	return s.backend.Health(ctx)
}

// Close releases the backend.
func (s *Store) Close() error {
	if !s.Available() {
		return nil
	}
	return s.backend.Close()
}

func (s *Store) get(ctx context.Context, key string) (string, bool) {
	if !s.Available() {
		return "", false
	}
	value, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("slot", key).Msg("slot read failed")
		}
		return "", false
	}
	return value, value != ""
}

func (s *Store) set(ctx context.Context, key, value string, ttl time.Duration) error {
	if !s.Available() {
		return nil
	}
	return s.backend.Set(ctx, key, value, ttl)
}

func (s *Store) delete(ctx context.Context, keys ...string) error {
	if !s.Available() {
		return nil
	}
	return s.backend.Delete(ctx, keys...)
}
