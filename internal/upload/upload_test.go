package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/warr-app/warr/internal/apiclient"
	"github.com/warr-app/warr/internal/cache"
	"github.com/warr-app/warr/internal/client"
	"github.com/warr-app/warr/internal/mocks"
	"github.com/warr-app/warr/internal/tokenstore"
)

type fixture struct {
	uploader  *Uploader
	tokens    *tokenstore.Store
	refreshes atomic.Int32
}

// newFixture serves handler at Endpoint next to a refresh endpoint that
// issues "fresh", and seeds the token store with access and refresh.
func newFixture(t *testing.T, handler http.HandlerFunc, access, refresh string, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		tokens: tokenstore.New(cache.NewMemoryCache[string](), tokenstore.WithLogger(zerolog.Nop())),
	}
	ctx := context.Background()
	if access != "" {
		require.NoError(t, f.tokens.SetAccessToken(ctx, access))
	}
	if refresh != "" {
		require.NoError(t, f.tokens.SetRefreshToken(ctx, refresh))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+Endpoint, handler)
	mux.HandleFunc("POST "+apiclient.RefreshEndpoint, func(w http.ResponseWriter, r *http.Request) {
		f.refreshes.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"accessToken": "fresh"}})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	api := apiclient.New(server.URL, f.tokens,
		apiclient.WithLogger(zerolog.Nop()),
		apiclient.WithNotifier(apiclient.NotifierFunc(func(context.Context, *apiclient.Error) {})),
	)

	hc := &http.Client{Timeout: 5 * time.Second}
	rc, err := client.CreateRetryClient(hc, 0, 10*time.Millisecond, 50*time.Millisecond)
	require.NoError(t, err)

	f.uploader = New(server.URL, rc, api, append([]Option{WithLogger(zerolog.Nop())}, opts...)...)
	return f
}

// acceptOnly stores a file for requests bearing token and answers 401 otherwise.
func acceptOnly(token string, calls *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		file, _, err := r.FormFile(FormField)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		writeJSON(w, http.StatusOK, map[string]any{
			"code": 200,
			"data": map[string]any{"s3Key": "pets/" + string(content), "fileSize": len(content)},
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestUpload(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, Endpoint, r.URL.Path)
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))

		file, header, err := r.FormFile(FormField)
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "dog.png", header.Filename)
		assert.Equal(t, "PNGDATA", string(content))

		writeJSON(w, http.StatusOK, map[string]any{
			"code": 200,
			"data": map[string]any{
				"s3Key":            "pets/abc/dog.png",
				"originalFileName": "dog.png",
				"contentType":      "image/png",
				"fileSize":         7,
				"presignedUrl":     "https://bucket.example.com/pets/abc/dog.png?sig=1",
			},
		})
	}, "access-1", "refresh-1")

	result, err := f.uploader.Upload(context.Background(), "/tmp/photos/dog.png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)
	assert.Equal(t, "pets/abc/dog.png", result.S3Key)
	assert.Equal(t, int64(7), result.FileSize)
	assert.Equal(t, "image/png", result.ContentType)
	assert.Zero(t, f.refreshes.Load())
}

func TestUpload_RefreshesRejectedToken(t *testing.T) {
	var uploads atomic.Int32
	f := newFixture(t, acceptOnly("fresh", &uploads), "stale", "refresh-1")

	result, err := f.uploader.Upload(context.Background(), "dog.png", strings.NewReader("bori"))
	require.NoError(t, err)
	assert.Equal(t, "pets/bori", result.S3Key, "the resent form carries the same file")
	assert.Equal(t, int32(1), f.refreshes.Load())
	assert.Equal(t, int32(2), uploads.Load())
}

func TestUpload_ColdStartWithRefreshTokenOnly(t *testing.T) {
	var uploads atomic.Int32
	f := newFixture(t, acceptOnly("fresh", &uploads), "", "refresh-1")

	_, err := f.uploader.Upload(context.Background(), "dog.png", strings.NewReader("bori"))
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.refreshes.Load())
	assert.Equal(t, int32(1), uploads.Load())
}

func TestUpload_WithoutSession(t *testing.T) {
	var uploads atomic.Int32
	f := newFixture(t, acceptOnly("fresh", &uploads), "", "")

	_, err := f.uploader.Upload(context.Background(), "dog.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, apiclient.ErrAuthRequired)
	assert.Zero(t, uploads.Load())
	assert.Zero(t, f.refreshes.Load())
}

func TestUpload_SecondRejectionIsFinal(t *testing.T) {
	var uploads atomic.Int32
	f := newFixture(t, acceptOnly("never", &uploads), "stale", "refresh-1")

	_, err := f.uploader.Upload(context.Background(), "dog.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, apiclient.ErrAuthRequired)
	assert.Equal(t, int32(2), uploads.Load())
	assert.Equal(t, int32(1), f.refreshes.Load())
}

func TestUpload_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "bad request",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"message": "too large"})
			},
			want: ErrUploadFailed,
		},
		{
			name: "non-200 code",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"code": 500, "message": "storage unavailable"})
			},
			want: ErrUploadRejected,
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("ok"))
			},
			want: apiclient.ErrParse,
		},
		{
			name: "no key",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"code": 200, "data": map[string]any{}})
			},
			want: apiclient.ErrParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.handler, "access-1", "refresh-1")

			_, err := f.uploader.Upload(context.Background(), "dog.png", strings.NewReader("x"))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestUpload_ReadError(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("nothing should be sent")
	}, "access-1", "refresh-1")

	_, err := f.uploader.Upload(context.Background(), "dog.png", failingReader{})
	assert.ErrorIs(t, err, ErrUploadFailed)
}

func TestUpload_RecordsMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockRecorder(ctrl)
	recorder.EXPECT().RecordUpload(true, int64(4))

	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"code": 200, "data": map[string]any{"s3Key": "k"}})
	}, "access-1", "refresh-1", WithRecorder(recorder))

	_, err := f.uploader.Upload(context.Background(), "a.txt", strings.NewReader("abcd"))
	require.NoError(t, err)
}
