package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warr-app/warr/internal/core"
	"github.com/warr-app/warr/internal/identity"
)

// RefreshEndpoint exchanges a refresh token for a new access token.
const RefreshEndpoint = "/api/v1/auth/refresh"

// Credentials is the result of a login or a refresh.
type Credentials struct {
	AccessToken  string
	RefreshToken string             // empty when the API did not rotate it
	User         *identity.Snapshot // nil when the response carried no identity
}

// tokenResponse is the payload of the login and refresh endpoints.
type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	identity.Snapshot
}

// ParseCredentials reads a login or refresh response body, with or without
// the data envelope. A body without an access token is ErrParse.
func ParseCredentials(raw json.RawMessage) (*Credentials, error) {
	var payload tokenResponse
	if err := json.Unmarshal(Payload(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if payload.AccessToken == "" {
		return nil, fmt.Errorf("%w: response carries no access token", ErrParse)
	}

	creds := &Credentials{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
	}
	if !payload.Snapshot.IsZero() {
		user := payload.Snapshot
		creds.User = &user
	}
	return creds, nil
}

// refreshCall is one in-flight refresh. done is closed once creds/err are set.
type refreshCall struct {
	done  chan struct{}
	creds *Credentials
	err   error
}

// Refresh obtains a new access token with the stored refresh token.
//
// While a refresh is in flight, further callers wait for it and receive the
// same outcome; at most one refresh request is ever outstanding. The request
// itself is not bound to ctx, so one caller giving up does not fail the
// others; ctx only bounds how long this caller waits.
//
// A rejected refresh token (401/403, or none stored) ends the session once
// and yields ErrAuthRequired. Any other failure yields ErrTransient and
// leaves the stored tokens untouched.
func (c *Client) Refresh(ctx context.Context) (*Credentials, error) {
	c.mu.Lock()
	call := c.pending
	if call != nil {
		c.mu.Unlock()
		c.recorder.RecordRefreshJoined()
	} else {
		call = &refreshCall{done: make(chan struct{})}
		c.pending = call
		c.mu.Unlock()
		go c.runRefresh(context.WithoutCancel(ctx), call)
	}

	select {
	case <-call.done:
		return call.creds, call.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) runRefresh(ctx context.Context, call *refreshCall) {
	defer func() {
		c.mu.Lock()
		c.pending = nil
		c.mu.Unlock()
		close(call.done)
	}()

	start := time.Now()
	creds, outcome, err := c.performRefresh(ctx)
	c.recorder.RecordTokenRefresh(outcome, time.Since(start))

	if outcome == core.RefreshOutcomeRejected {
		_ = c.endSession(ctx, ReasonRefreshRejected)
	}
	call.creds, call.err = creds, err
}

// performRefresh makes the network call and stores the result.
func (c *Client) performRefresh(ctx context.Context) (*Credentials, string, error) {
	refreshToken, ok := c.tokens.RefreshToken(ctx)
	if !ok {
		c.logger.Info().Msg("no refresh token stored")
		return nil, core.RefreshOutcomeRejected, authRequired(0, nil)
	}

	status, body, err := c.send(
		ctx,
		http.MethodPost,
		RefreshEndpoint,
		mustJSON(map[string]string{"refreshToken": refreshToken}),
		"",
		nil,
	)
	if err != nil {
		c.logger.Warn().Err(err).Msg("refresh request failed")
		return nil, core.RefreshOutcomeTransient, transient(0, "", err)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		c.logger.Info().Int("status", status).Msg("refresh token rejected")
		return nil, core.RefreshOutcomeRejected, authRequired(status, nil)
	case status < 200 || status >= 300:
		c.logger.Warn().Int("status", status).Msg("refresh failed")
		return nil, core.RefreshOutcomeTransient, transient(status, errorMessage(body), nil)
	}

	creds, err := ParseCredentials(body)
	if err != nil {
		c.logger.Warn().Err(err).Msg("unusable refresh response")
		return nil, core.RefreshOutcomeTransient, transient(status, msgParseError, err)
	}

	if err := c.storeCredentials(ctx, creds); err != nil {
		c.logger.Error().Err(err).Msg("failed to store refreshed tokens")
		return nil, core.RefreshOutcomeTransient, transient(0, "", err)
	}

	c.logger.Debug().Bool("rotated", creds.RefreshToken != "").Msg("access token refreshed")
	return creds, core.RefreshOutcomeSuccess, nil
}

// storeCredentials writes the new access token, the rotated refresh token
// and the identity snapshot when the response carried one. Without one, a
// missing snapshot is rebuilt from the token claims.
func (c *Client) storeCredentials(ctx context.Context, creds *Credentials) error {
	if err := c.tokens.SetAccessToken(ctx, creds.AccessToken); err != nil {
		return err
	}
	if creds.RefreshToken != "" {
		if err := c.tokens.SetRefreshToken(ctx, creds.RefreshToken); err != nil {
			return err
		}
	}

	user := creds.User
	if user == nil {
		if _, ok := c.tokens.UserInfo(ctx); ok {
			return nil
		}
		decoded, err := identity.FromAccessToken(creds.AccessToken)
		if err != nil {
			c.logger.Debug().Err(err).Msg("access token has no usable identity claims")
			return nil
		}
		user = decoded
	}
	return c.tokens.SetUserInfo(ctx, user)
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
