package tokenstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/warr-app/warr/internal/cache"
	"github.com/warr-app/warr/internal/identity"
	"github.com/warr-app/warr/internal/mocks"
)

func newTestStore(opts ...Option) *Store {
	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	return New(cache.NewMemoryCache[string](), opts...)
}

func TestStore_Tokens(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, ok := s.AccessToken(ctx)
	assert.False(t, ok)
	assert.False(t, s.HasTokens(ctx))

	require.NoError(t, s.SetAccessToken(ctx, "access-1"))
	assert.False(t, s.HasTokens(ctx), "access token alone is not a session")

	require.NoError(t, s.SetRefreshToken(ctx, "refresh-1"))
	assert.True(t, s.HasTokens(ctx))

	access, ok := s.AccessToken(ctx)
	assert.True(t, ok)
	assert.Equal(t, "access-1", access)

	refresh, ok := s.RefreshToken(ctx)
	assert.True(t, ok)
	assert.Equal(t, "refresh-1", refresh)

	require.NoError(t, s.SetAccessToken(ctx, "access-2"))
	access, _ = s.AccessToken(ctx)
	assert.Equal(t, "access-2", access)
}

func TestStore_AccessTokenExpires(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(WithAccessTokenTTL(20 * time.Millisecond))

	require.NoError(t, s.SetAccessToken(ctx, "short-lived"))
	require.NoError(t, s.SetRefreshToken(ctx, "long-lived"))

	time.Sleep(50 * time.Millisecond)

	_, ok := s.AccessToken(ctx)
	assert.False(t, ok)
	refresh, ok := s.RefreshToken(ctx)
	assert.True(t, ok)
	assert.Equal(t, "long-lived", refresh)
	assert.False(t, s.HasTokens(ctx))
}

func TestStore_UserInfo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, ok := s.UserInfo(ctx)
	assert.False(t, ok)

	academyID := int64(12)
	in := &identity.Snapshot{
		ID:           5,
		Name:         "Park",
		Email:        "park@example.com",
		Role:         identity.RoleAcademy,
		AcademyID:    &academyID,
		AcademyAdmin: true,
	}
	require.NoError(t, s.SetUserInfo(ctx, in))

	out, ok := s.UserInfo(ctx)
	require.True(t, ok)
	assert.Equal(t, in, out)

	require.NoError(t, s.SetUserInfo(ctx, nil))
	_, ok = s.UserInfo(ctx)
	assert.False(t, ok)
}

func TestStore_UserInfoUnreadable(t *testing.T) {
	ctx := context.Background()
	backend := cache.NewMemoryCache[string]()
	s := New(backend, WithLogger(zerolog.Nop()))

	require.NoError(t, backend.Set(ctx, UserInfoKey, "{not json", time.Minute))

	out, ok := s.UserInfo(ctx)
	assert.False(t, ok)
	assert.Nil(t, out)
}

func TestStore_ClearTokens(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	require.NoError(t, s.SetAccessToken(ctx, "a"))
	require.NoError(t, s.SetRefreshToken(ctx, "r"))
	require.NoError(t, s.SetUserInfo(ctx, &identity.Snapshot{ID: 1, Role: identity.RoleUser}))

	require.NoError(t, s.ClearTokens(ctx))

	_, ok := s.AccessToken(ctx)
	assert.False(t, ok)
	_, ok = s.RefreshToken(ctx)
	assert.False(t, ok)
	_, ok = s.UserInfo(ctx)
	assert.False(t, ok)

	// clearing twice is harmless
	assert.NoError(t, s.ClearTokens(ctx))
}

func TestStore_Unavailable(t *testing.T) {
	ctx := context.Background()
	s := New(nil, WithLogger(zerolog.Nop()))

	assert.False(t, s.Available())
	assert.NoError(t, s.SetAccessToken(ctx, "a"))
	assert.NoError(t, s.SetRefreshToken(ctx, "r"))
	assert.NoError(t, s.SetUserInfo(ctx, &identity.Snapshot{ID: 1}))
	assert.NoError(t, s.ClearTokens(ctx))

	_, ok := s.AccessToken(ctx)
	assert.False(t, ok)
	_, ok = s.UserInfo(ctx)
	assert.False(t, ok)
	assert.False(t, s.HasTokens(ctx))
	assert.ErrorIs(t, s.Health(ctx), ErrUnavailable)
	assert.NoError(t, s.Close())
}

func TestStore_BackendFailureReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockCache[string](ctrl)
	backend.EXPECT().
		Get(gomock.Any(), AccessTokenKey).
		Return("", errors.New("connection reset"))
	backend.EXPECT().
		MGet(gomock.Any(), []string{AccessTokenKey, RefreshTokenKey}).
		Return(nil, errors.New("connection reset"))

	s := New(backend, WithLogger(zerolog.Nop()))

	_, ok := s.AccessToken(ctx)
	assert.False(t, ok)
	assert.False(t, s.HasTokens(ctx))
}

func TestStore_TTLsReachBackend(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockCache[string](ctrl)
	backend.EXPECT().Set(gomock.Any(), AccessTokenKey, "a", time.Minute).Return(nil)
	backend.EXPECT().Set(gomock.Any(), RefreshTokenKey, "r", time.Hour).Return(nil)
	backend.EXPECT().
		Delete(gomock.Any(), AccessTokenKey, RefreshTokenKey, UserInfoKey).
		Return(nil)

	s := New(backend,
		WithLogger(zerolog.Nop()),
		WithAccessTokenTTL(time.Minute),
		WithRefreshTokenTTL(time.Hour),
	)

	require.NoError(t, s.SetAccessToken(ctx, "a"))
	require.NoError(t, s.SetRefreshToken(ctx, "r"))
	require.NoError(t, s.ClearTokens(ctx))
}
