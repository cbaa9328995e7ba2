// Package auth implements sign-in, sign-out and the landing-page routing on
// top of the request pipeline.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/warr-app/warr/internal/apiclient"
	"github.com/warr-app/warr/internal/core"
	"github.com/warr-app/warr/internal/identity"
	"github.com/warr-app/warr/internal/metrics"
	"github.com/warr-app/warr/internal/tokenstore"
)

// API endpoints used by the service.
const (
	LoginEndpoint    = "/api/v1/auth/login"
	MeEndpoint       = "/api/v1/auth/me"
	ValidateEndpoint = "/api/v1/auth/validate"
)

// Credentials are what the member types on the login screen.
type Credentials struct {
	MemberID string `json:"memberId"`
	Password string `json:"password"`
}

// Service is the auth service. It shares its token store with the pipeline.
type Service struct {
	api      *apiclient.Client
	tokens   *tokenstore.Store
	recorder core.Recorder
	logger   zerolog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithRecorder sets the metrics recorder
func WithRecorder(r core.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a Service over api.
func NewService(api *apiclient.Client, opts ...Option) *Service {
	s := &Service{
		api:      api,
		tokens:   api.Tokens(),
		recorder: metrics.NewNoopMetrics(),
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "auth").Logger()
	return s
}

// Login signs the member in and stores the credential pair and snapshot.
func (s *Service) Login(ctx context.Context, creds Credentials) (*identity.Snapshot, error) {
	if strings.TrimSpace(creds.MemberID) == "" || creds.Password == "" {
		return nil, ErrMissingCredentials
	}

	resp, err := s.api.Post(ctx, LoginEndpoint, creds, apiclient.WithoutAuth())
	if err != nil {
		s.recorder.RecordLogin(false)
		return nil, err
	}

	issued, err := apiclient.ParseCredentials(resp.Data)
	if err != nil || issued.RefreshToken == "" {
		s.recorder.RecordLogin(false)
		return nil, &apiclient.Error{
			Kind:       apiclient.ErrParse,
			StatusCode: resp.StatusCode,
			Message:    "The login response carries no tokens.",
			Err:        err,
		}
	}

	user := issued.User
	if user == nil {
		decoded, err := identity.FromAccessToken(issued.AccessToken)
		if err != nil {
			s.logger.Warn().Err(err).Msg("login response carries no identity")
		} else {
			user = decoded
		}
	}

	if err := s.tokens.SetAccessToken(ctx, issued.AccessToken); err != nil {
		return nil, err
	}
	if err := s.tokens.SetRefreshToken(ctx, issued.RefreshToken); err != nil {
		return nil, err
	}
	if user != nil {
		if err := s.tokens.SetUserInfo(ctx, user); err != nil {
			return nil, err
		}
	}

	s.recorder.RecordLogin(true)
	s.logger.Info().Str("member_id", creds.MemberID).Msg("signed in")
	return user, nil
}

// Logout clears the session and notifies session listeners.
func (s *Service) Logout(ctx context.Context) error {
	return s.api.EndSession(ctx, apiclient.ReasonLogout)
}

// Refresh renews the access token through the pipeline's shared refresh.
func (s *Service) Refresh(ctx context.Context) error {
	_, err := s.api.Refresh(ctx)
	return err
}

// CurrentUser asks the API who the member is.
func (s *Service) CurrentUser(ctx context.Context) (*identity.Snapshot, error) {
	resp, err := s.api.Get(ctx, MeEndpoint)
	if err != nil {
		return nil, err
	}
	var user identity.Snapshot
	if err := resp.Unwrap(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ValidateToken reports whether the API accepts the stored credentials.
func (s *Service) ValidateToken(ctx context.Context) bool {
	_, err := s.api.Get(ctx, ValidateEndpoint)
	return err == nil
}

// IsAuthenticated reports whether both tokens are stored. It does not ask
// the API.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	return s.tokens.HasTokens(ctx)
}

// CurrentUserInfo returns the stored snapshot.
func (s *Service) CurrentUserInfo(ctx context.Context) (*identity.Snapshot, bool) {
	return s.tokens.UserInfo(ctx)
}

// UpdateUserInfo merges p into the stored snapshot, e.g. after onboarding
// changed the member's role.
func (s *Service) UpdateUserInfo(ctx context.Context, p identity.Patch) (*identity.Snapshot, error) {
	current, ok := s.tokens.UserInfo(ctx)
	if !ok {
		return nil, ErrNotSignedIn
	}
	updated := current.Apply(p)
	if err := s.tokens.SetUserInfo(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// UserRole returns the stored role, if any.
func (s *Service) UserRole(ctx context.Context) (identity.Role, bool) {
	user, ok := s.tokens.UserInfo(ctx)
	if !ok || user.Role == "" {
		return "", false
	}
	return user.Role, true
}

// UserID returns the stored member id, if any.
func (s *Service) UserID(ctx context.Context) (int64, bool) {
	user, ok := s.tokens.UserInfo(ctx)
	if !ok || user.ID == 0 {
		return 0, false
	}
	return user.ID, true
}

// Entry resolves the screen a returning member lands on.
//
// With an access token the stored snapshot, or failing that the token's
// claims, decides. With only a refresh token the session is refreshed first;
// a refresh that leaves no snapshot ends the session. A transient refresh
// failure is returned with PathHome and keeps the session.
func (s *Service) Entry(ctx context.Context) (string, error) {
	user, hasUser := s.tokens.UserInfo(ctx)
	access, hasAccess := s.tokens.AccessToken(ctx)
	_, hasRefresh := s.tokens.RefreshToken(ctx)

	switch {
	case hasAccess && hasUser:
		return user.Role.EntryPath(), nil

	case hasAccess:
		decoded, err := identity.FromAccessToken(access)
		if err != nil {
			s.logger.Debug().Err(err).Msg("access token has no identity claims")
			return identity.PathHome, nil
		}
		if err := s.tokens.SetUserInfo(ctx, decoded); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache decoded identity")
		}
		return decoded.Role.EntryPath(), nil

	case hasRefresh:
		if _, err := s.api.Refresh(ctx); err != nil {
			if errors.Is(err, apiclient.ErrAuthRequired) {
				// the pipeline already ended the session
				return identity.PathHome, nil
			}
			return identity.PathHome, err
		}
		if user, ok := s.tokens.UserInfo(ctx); ok {
			return user.Role.EntryPath(), nil
		}
		s.logger.Info().Msg("refreshed session has no identity")
		return identity.PathHome, s.Logout(ctx)
	}

	return identity.PathHome, nil
}
