package core

import "time"

// Refresh outcome labels shared by the pipeline and the recorders.
const (
	RefreshOutcomeSuccess   = "success"
	RefreshOutcomeRejected  = "rejected"
	RefreshOutcomeTransient = "transient"
)

// Recorder defines the interface for recording client metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Request pipeline
	RecordAPIRequest(method string, statusCode int, duration time.Duration)
	RecordAPIFailure(kind string)

	// Token lifecycle
	RecordTokenRefresh(outcome string, duration time.Duration)
	RecordRefreshJoined()
	RecordSessionExpired(reason string)

	// Auth
	RecordLogin(success bool)

	// Uploads
	RecordUpload(success bool, size int64)
}
