// Package apiclient is the authenticated request pipeline for the WARR API.
//
// Every call resolves a bearer token from the token store, refreshes it when
// it is missing or the API answers 401, and retries the call once. Concurrent
// callers share a single refresh. When the refresh token is rejected the
// session is cleared and SessionListeners are told; the pipeline itself never
// navigates anywhere.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/warr-app/warr/internal/core"
	"github.com/warr-app/warr/internal/metrics"
	"github.com/warr-app/warr/internal/tokenstore"
)

// HeaderRequestID carries a per-call id on every outbound request.
const HeaderRequestID = "X-Request-ID"

// Client executes API calls on behalf of the signed-in member.
// A Client must be shared: the single-flight guarantee holds per instance.
type Client struct {
	baseURL  string
	http     *http.Client
	tokens   *tokenstore.Store
	notifier Notifier
	recorder core.Recorder
	logger   zerolog.Logger

	listenersMu sync.RWMutex
	listeners   []SessionListener

	mu      sync.Mutex
	pending *refreshCall
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for every call. A cookie jar is
// attached when the client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithNotifier sets the notifier for user-visible failures
func WithNotifier(n Notifier) Option {
	return func(c *Client) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithSessionListener subscribes l to session-expired events
func WithSessionListener(l SessionListener) Option {
	return func(c *Client) {
		if l != nil {
			c.listeners = append(c.listeners, l)
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r core.Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Client for the API at baseURL.
func New(baseURL string, tokens *tokenstore.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{},
		tokens:   tokens,
		recorder: metrics.NewNoopMetrics(),
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "apiclient").Logger()
	if c.notifier == nil {
		c.notifier = LogNotifier{Logger: c.logger}
	}
	if c.http.Jar == nil {
		// copy so the caller's client is left as it was
		hc := *c.http
		hc.Jar, _ = cookiejar.New(nil)
		c.http = &hc
	}
	return c
}

// Tokens returns the token store the client reads and writes.
func (c *Client) Tokens() *tokenstore.Store {
	return c.tokens
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RequestOption tunes a single call
type RequestOption func(*requestOptions)

type requestOptions struct {
	requireAuth bool
	header      http.Header
}

// WithoutAuth sends the call without a bearer token and without any
// refresh handling.
func WithoutAuth() RequestOption {
	return func(o *requestOptions) {
		o.requireAuth = false
	}
}

// WithHeader adds a header to the call
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		o.header.Add(key, value)
	}
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, endpoint string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, endpoint, nil, opts...)
}

// Post performs a POST request with a JSON body
func (c *Client) Post(ctx context.Context, endpoint string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, endpoint, body, opts...)
}

// Put performs a PUT request with a JSON body
func (c *Client) Put(ctx context.Context, endpoint string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPut, endpoint, body, opts...)
}

// Patch performs a PATCH request with a JSON body
func (c *Client) Patch(ctx context.Context, endpoint string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, endpoint, body, opts...)
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, endpoint string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, endpoint, nil, opts...)
}

// Do executes one logical API call. body is encoded as JSON when non-nil.
//
// Failures are always *Error. Unless the failure is ErrAuthRequired or
// ErrEncode, the notifier has been called once before Do returns.
func (c *Client) Do(
	ctx context.Context,
	method, endpoint string,
	body any,
	opts ...RequestOption,
) (*Response, error) {
	ro := requestOptions{requireAuth: true, header: http.Header{}}
	for _, opt := range opts {
		opt(&ro)
	}

	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			apiErr := &Error{Kind: ErrEncode, Message: msgEncodeError, Err: err}
			c.recorder.RecordAPIFailure(kindName(ErrEncode))
			return nil, apiErr
		}
		payload = encoded
	}

	resp, apiErr := c.execute(ctx, method, endpoint, payload, ro)
	if apiErr != nil {
		c.fail(ctx, method, endpoint, apiErr)
		return nil, apiErr
	}
	return resp, nil
}

func (c *Client) execute(
	ctx context.Context,
	method, endpoint string,
	payload []byte,
	ro requestOptions,
) (*Response, *Error) {
	var token string
	if ro.requireAuth {
		authorized, err := c.Authorize(ctx)
		if err != nil {
			return nil, asPipelineError(err)
		}
		token = authorized
	}

	status, body, err := c.send(ctx, method, endpoint, payload, token, ro.header)
	if err != nil {
		return nil, transient(0, "", err)
	}

	if status == http.StatusUnauthorized && ro.requireAuth {
		c.logger.Debug().Str("endpoint", endpoint).Msg("access token rejected")
		retryToken, err := c.Reauthorize(ctx, token)
		if err != nil {
			return nil, asPipelineError(err)
		}
		// one retry; its result is final
		status, body, err = c.send(ctx, method, endpoint, payload, retryToken, ro.header)
		if err != nil {
			return nil, transient(0, "", err)
		}
	}

	return interpret(status, body)
}

// Authorize returns the stored access token, refreshing first when none is
// stored. Errors are the same as Refresh.
func (c *Client) Authorize(ctx context.Context) (string, error) {
	if token, ok := c.tokens.AccessToken(ctx); ok {
		return token, nil
	}
	c.logger.Debug().Msg("no access token, refreshing first")
	creds, err := c.Refresh(ctx)
	if err != nil {
		return "", err
	}
	return creds.AccessToken, nil
}

// Reauthorize returns the token to retry with after the API rejected sent.
// When the stored token no longer equals sent, another caller has already
// refreshed and that token is returned without a new refresh.
func (c *Client) Reauthorize(ctx context.Context, sent string) (string, error) {
	if token, ok := c.tokens.AccessToken(ctx); ok && token != sent {
		c.logger.Debug().Msg("access token already replaced, reusing it")
		return token, nil
	}
	creds, err := c.Refresh(ctx)
	if err != nil {
		return "", err
	}
	return creds.AccessToken, nil
}

// send performs one HTTP round trip and reads the whole body.
func (c *Client) send(
	ctx context.Context,
	method, endpoint string,
	payload []byte,
	token string,
	header http.Header,
) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return 0, nil, err
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, uuid.New().String())
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.recorder.RecordAPIRequest(method, 0, time.Since(start))
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.recorder.RecordAPIRequest(method, resp.StatusCode, time.Since(start))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

// fail records and, where appropriate, surfaces a failed call.
func (c *Client) fail(ctx context.Context, method, endpoint string, apiErr *Error) {
	c.recorder.RecordAPIFailure(kindName(apiErr.Kind))
	c.logger.Debug().
		Err(apiErr).
		Str("method", method).
		Str("endpoint", endpoint).
		Msg("api call failed")

	// the caller walked away; nobody is left to see a notification
	if ctx.Err() != nil {
		return
	}
	if shouldNotify(apiErr) {
		c.notifier.Notify(ctx, apiErr)
	}
}

// asPipelineError converts a Refresh error into the failure returned by Do.
func asPipelineError(err error) *Error {
	if apiErr, ok := AsError(err); ok {
		return apiErr
	}
	// context errors from an abandoned wait land here
	return transient(0, "", err)
}
