package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/warr-app/warr/internal/core"
)

// Values of the "result" label
const (
	resultSuccess = "success"
	resultError   = "error"
	resultFailure = "failure"
)

// Recorder is the interface every recorder in this package satisfies.
type Recorder = core.Recorder

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the client
type Metrics struct {
	// Outbound API Metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIFailuresTotal   *prometheus.CounterVec

	// Token Metrics
	TokenRefreshTotal    *prometheus.CounterVec
	TokenRefreshDuration prometheus.Histogram
	RefreshJoinedTotal   prometheus.Counter

	// Session Metrics
	SessionsExpiredTotal *prometheus.CounterVec
	LoginTotal           *prometheus.CounterVec

	// Upload Metrics
	UploadsTotal     *prometheus.CounterVec
	UploadBytesTotal prometheus.Counter

	// HTTP Request Metrics (web shell)
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

var latencyBuckets = []float64{
	0.005,
	0.010,
	0.025,
	0.050,
	0.100,
	0.250,
	0.500,
	1.0,
	2.5,
	5.0,
	10.0,
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		APIRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warr_api_requests_total",
				Help: "Total number of requests sent to the WARR API",
			},
			[]string{"method", "status"},
		),
		APIRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warr_api_request_duration_seconds",
				Help:    "WARR API request latency in seconds",
				Buckets: latencyBuckets,
			},
			[]string{"method"},
		),
		APIFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warr_api_failures_total",
				Help: "Total number of failed pipeline calls by failure kind",
			},
			[]string{"kind"}, // auth_required, transient, business, parse, encode
		),

		TokenRefreshTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warr_token_refresh_total",
				Help: "Total number of refresh calls by outcome",
			},
			[]string{"outcome"}, // success, rejected, transient
		),
		TokenRefreshDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "warr_token_refresh_duration_seconds",
				Help:    "Refresh call latency in seconds",
				Buckets: latencyBuckets,
			},
		),
		RefreshJoinedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "warr_token_refresh_joined_total",
				Help: "Total number of callers that waited on an in-flight refresh",
			},
		),

		SessionsExpiredTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warr_sessions_expired_total",
				Help: "Total number of ended sessions by reason",
			},
			[]string{"reason"},
		),
		LoginTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warr_login_total",
				Help: "Total number of login attempts",
			},
			[]string{"result"},
		),

		UploadsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warr_uploads_total",
				Help: "Total number of file uploads",
			},
			[]string{"result"},
		),
		UploadBytesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "warr_upload_bytes_total",
				Help: "Total bytes accepted by the upload endpoint",
			},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: latencyBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),
	}
}

// RecordAPIRequest records one round trip to the API
func (m *Metrics) RecordAPIRequest(method string, statusCode int, duration time.Duration) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	m.APIRequestsTotal.WithLabelValues(method, status).Inc()
	m.APIRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordAPIFailure records a failed pipeline call
func (m *Metrics) RecordAPIFailure(kind string) {
	m.APIFailuresTotal.WithLabelValues(kind).Inc()
}

// RecordTokenRefresh records a refresh network call
func (m *Metrics) RecordTokenRefresh(outcome string, duration time.Duration) {
	m.TokenRefreshTotal.WithLabelValues(outcome).Inc()
	m.TokenRefreshDuration.Observe(duration.Seconds())
}

// RecordRefreshJoined records a caller joining an in-flight refresh
func (m *Metrics) RecordRefreshJoined() {
	m.RefreshJoinedTotal.Inc()
}

// RecordSessionExpired records the end of a session
func (m *Metrics) RecordSessionExpired(reason string) {
	m.SessionsExpiredTotal.WithLabelValues(reason).Inc()
}

// RecordLogin records login attempt
func (m *Metrics) RecordLogin(success bool) {
	result := resultSuccess
	if !success {
		result = resultFailure
	}
	m.LoginTotal.WithLabelValues(result).Inc()
}

// RecordUpload records a file upload
func (m *Metrics) RecordUpload(success bool, size int64) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.UploadsTotal.WithLabelValues(result).Inc()
	if success && size > 0 {
		m.UploadBytesTotal.Add(float64(size))
	}
}
