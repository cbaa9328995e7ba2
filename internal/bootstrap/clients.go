package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/warr-app/warr/internal/apiclient"
	"github.com/warr-app/warr/internal/auth"
	"github.com/warr-app/warr/internal/client"
	"github.com/warr-app/warr/internal/config"
	"github.com/warr-app/warr/internal/metrics"
	"github.com/warr-app/warr/internal/tokenstore"
	"github.com/warr-app/warr/internal/upload"
)

// Clients is everything needed to talk to the API as the signed-in member.
// The CLI and the web shell share it.
type Clients struct {
	Recorder metrics.Recorder
	Tokens   *tokenstore.Store
	API      *apiclient.Client
	Auth     *auth.Service
	Uploader *upload.Uploader
}

// NewClients wires the token store, the request pipeline, the auth service
// and the uploader from cfg.
func NewClients(ctx context.Context, cfg *config.Config, opts ...apiclient.Option) (*Clients, error) {
	recorder := initializeMetrics(cfg)

	tokens, err := initializeTokenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	api, err := initializeAPIClient(cfg, tokens, recorder, opts...)
	if err != nil {
		_ = tokens.Close()
		return nil, err
	}

	uploader, err := initializeUploader(cfg, api, recorder)
	if err != nil {
		_ = tokens.Close()
		return nil, err
	}

	return &Clients{
		Recorder: recorder,
		Tokens:   tokens,
		API:      api,
		Auth:     auth.NewService(api, auth.WithRecorder(recorder)),
		Uploader: uploader,
	}, nil
}

// Close releases the token-store backend
func (c *Clients) Close() {
	if err := c.Tokens.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close token store")
	}
}

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config) metrics.Recorder {
	recorder := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Debug().Msg("Prometheus metrics initialized")
	}
	return recorder
}

func httpClientOptions(cfg *config.Config) client.Options {
	return client.Options{
		AuthMode:           cfg.APIAuthMode,
		AuthSecret:         cfg.APIAuthSecret,
		AuthHeader:         cfg.APIAuthHeader,
		Timeout:            cfg.APITimeout,
		InsecureSkipVerify: cfg.APIInsecureSkipVerify,
	}
}

// initializeAPIClient creates the authenticated request pipeline
func initializeAPIClient(
	cfg *config.Config,
	tokens *tokenstore.Store,
	recorder metrics.Recorder,
	opts ...apiclient.Option,
) (*apiclient.Client, error) {
	hc, err := client.NewHTTPClient(httpClientOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	base := []apiclient.Option{
		apiclient.WithHTTPClient(hc),
		apiclient.WithRecorder(recorder),
	}
	return apiclient.New(cfg.APIBaseURL, tokens, append(base, opts...)...), nil
}

// initializeUploader creates the uploader on its own retrying client. Tokens
// come from api so uploads share its refresh.
func initializeUploader(
	cfg *config.Config,
	api *apiclient.Client,
	recorder metrics.Recorder,
) (*upload.Uploader, error) {
	hc, err := client.NewHTTPClient(httpClientOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create upload client: %w", err)
	}

	rc, err := client.CreateRetryClient(
		hc,
		cfg.UploadMaxRetries,
		cfg.UploadRetryDelay,
		cfg.UploadMaxRetryDelay,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload client: %w", err)
	}
	return upload.New(cfg.APIBaseURL, rc, api, upload.WithRecorder(recorder)), nil
}
