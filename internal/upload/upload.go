// Package upload sends files to the API's storage endpoint and returns the
// storage key that other API calls refer to.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	retry "github.com/appleboy/go-httpretry"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/warr-app/warr/internal/apiclient"
	"github.com/warr-app/warr/internal/core"
	"github.com/warr-app/warr/internal/metrics"
)

// Endpoint is the storage upload endpoint.
const Endpoint = "/api/v1/s3/upload"

// FormField is the multipart field carrying the file.
const FormField = "file"

var (
	// ErrUploadFailed indicates the upload did not complete
	ErrUploadFailed = errors.New("upload failed")

	// ErrUploadRejected indicates the API answered but reported a non-200 code
	ErrUploadRejected = errors.New("upload rejected")
)

// Result describes a stored file.
type Result struct {
	S3Key            string `json:"s3Key"`
	OriginalFileName string `json:"originalFileName"`
	ContentType      string `json:"contentType"`
	FileSize         int64  `json:"fileSize"`
	PresignedURL     string `json:"presignedUrl"`
}

type uploadResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    Result `json:"data"`
}

// Session supplies bearer tokens the same way the request pipeline does.
// *apiclient.Client satisfies it.
type Session interface {
	// Authorize returns the access token, refreshing when none is stored.
	Authorize(ctx context.Context) (string, error)
	// Reauthorize returns the token to retry with after sent got a 401.
	Reauthorize(ctx context.Context, sent string) (string, error)
}

// Uploader uploads files with the member's credentials.
type Uploader struct {
	baseURL  string
	client   *retry.Client
	session  Session
	recorder core.Recorder
	logger   zerolog.Logger
}

// Option configures an Uploader
type Option func(*Uploader)

// WithRecorder sets the metrics recorder
func WithRecorder(r core.Recorder) Option {
	return func(u *Uploader) {
		if r != nil {
			u.recorder = r
		}
	}
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(u *Uploader) {
		u.logger = l
	}
}

// New creates an Uploader that authenticates through session.
func New(baseURL string, client *retry.Client, session Session, opts ...Option) *Uploader {
	u := &Uploader{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		session:  session,
		recorder: metrics.NewNoopMetrics(),
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(u)
	}
	u.logger = u.logger.With().Str("component", "upload").Logger()
	return u
}

// Upload sends the content of r as filename and returns the stored file.
func (u *Uploader) Upload(ctx context.Context, filename string, r io.Reader) (*Result, error) {
	body, contentType, size, err := encodeForm(filename, r)
	if err != nil {
		return nil, err
	}

	result, err := u.send(ctx, body.Bytes(), contentType)
	u.recorder.RecordUpload(err == nil, size)
	if err != nil {
		u.logger.Warn().Err(err).Str("file", filename).Msg("upload failed")
		return nil, err
	}

	u.logger.Debug().Str("file", filename).Str("key", result.S3Key).Msg("uploaded")
	return result, nil
}

// send posts the buffered form, refreshing and resending it once on a 401.
func (u *Uploader) send(ctx context.Context, payload []byte, contentType string) (*Result, error) {
	token, err := u.session.Authorize(ctx)
	if err != nil {
		return nil, err
	}

	result, status, err := u.post(ctx, payload, contentType, token)
	if status != http.StatusUnauthorized {
		return result, err
	}

	u.logger.Debug().Msg("access token rejected, resending upload")
	token, err = u.session.Reauthorize(ctx, token)
	if err != nil {
		return nil, err
	}
	result, _, err = u.post(ctx, payload, contentType, token)
	return result, err
}

// post performs one upload and returns the HTTP status alongside the outcome.
func (u *Uploader) post(
	ctx context.Context,
	payload []byte,
	contentType, token string,
) (*Result, int, error) {
	resp, err := u.client.Post(
		ctx,
		u.baseURL+Endpoint,
		retry.WithBody(contentType, bytes.NewReader(payload)),
		retry.WithHeader("Authorization", "Bearer "+token),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: failed to read response", ErrUploadFailed)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, resp.StatusCode, fmt.Errorf("%w: HTTP %d", apiclient.ErrAuthRequired, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, resp.StatusCode, fmt.Errorf("%w: HTTP %d", ErrUploadFailed, resp.StatusCode)
	}

	var parsed uploadResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %v", apiclient.ErrParse, err)
	}
	if parsed.Code != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("%w: code %d %s", ErrUploadRejected, parsed.Code, parsed.Message)
	}
	if parsed.Data.S3Key == "" {
		return nil, resp.StatusCode, fmt.Errorf("%w: response carries no storage key", apiclient.ErrParse)
	}
	return &parsed.Data, resp.StatusCode, nil
}

// encodeForm buffers the multipart body so a retry can resend it.
func encodeForm(filename string, r io.Reader) (*bytes.Buffer, string, int64, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(FormField, filepath.Base(filename))
	if err != nil {
		return nil, "", 0, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	size, err := io.Copy(part, r)
	if err != nil {
		return nil, "", 0, fmt.Errorf("%w: failed to read file: %v", ErrUploadFailed, err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", 0, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return &buf, mw.FormDataContentType(), size, nil
}
