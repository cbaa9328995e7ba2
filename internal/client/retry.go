package client

import (
	"fmt"
	"net/http"
	"time"

	retry "github.com/appleboy/go-httpretry"
)

// CreateRetryClient wraps hc with retry support.
// maxRetries of zero disables retries entirely.
func CreateRetryClient(
	hc *http.Client,
	maxRetries int,
	retryDelay, maxRetryDelay time.Duration,
) (*retry.Client, error) {
	retryClient, err := retry.NewRealtimeClient(
		retry.WithHTTPClient(hc),
		retry.WithMaxRetries(maxRetries),
		retry.WithInitialRetryDelay(retryDelay),
		retry.WithMaxRetryDelay(maxRetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry client: %w", err)
	}

	return retryClient, nil
}
