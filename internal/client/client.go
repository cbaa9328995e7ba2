// Package client builds the HTTP clients used to reach the WARR API.
package client

import (
	"fmt"
	"net/http"
	"time"

	httpclient "github.com/appleboy/go-httpclient"
)

// DefaultAuthHeader is the gateway secret header used when none is configured.
const DefaultAuthHeader = "X-API-Secret"

// Options for the outbound HTTP client. AuthMode/AuthSecret/AuthHeader
// configure the gateway service credential sent on every request; they are
// unrelated to the member's bearer token.
type Options struct {
	AuthMode           string
	AuthSecret         string
	AuthHeader         string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// NewHTTPClient creates an HTTP client with gateway authentication.
func NewHTTPClient(opts Options) (*http.Client, error) {
	mode := opts.AuthMode
	if mode == "" {
		mode = httpclient.AuthModeNone
	}
	header := opts.AuthHeader
	if header == "" {
		header = DefaultAuthHeader
	}

	hc, err := httpclient.NewAuthClient(
		mode,
		opts.AuthSecret,
		httpclient.WithTimeout(opts.Timeout),
		httpclient.WithHeaderName(header),
		httpclient.WithInsecureSkipVerify(opts.InsecureSkipVerify),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth client: %w", err)
	}
	return hc, nil
}
