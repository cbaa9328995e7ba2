package apiclient

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthRequired indicates the session is gone: no usable token, the
	// refresh token was rejected, or the API answered 401/403
	ErrAuthRequired = errors.New("authentication required")

	// ErrTransient indicates a failure that may succeed on a later attempt:
	// network errors, timeouts, 5xx responses
	ErrTransient = errors.New("transient failure")

	// ErrBusiness indicates the API rejected the request (non-2xx other than 401/403/5xx)
	ErrBusiness = errors.New("request rejected by API")

	// ErrParse indicates a 2xx response whose body is not valid JSON
	ErrParse = errors.New("failed to parse response")

	// ErrEncode indicates the request body could not be encoded as JSON
	ErrEncode = errors.New("failed to encode request body")
)

// Fallback messages when the API does not provide one.
const (
	msgSessionExpired = "Your session has expired. Please sign in again."
	msgServerError    = "A server error occurred."
	msgNetworkError   = "A network error occurred."
	msgParseError     = "Failed to parse the response."
	msgEncodeError    = "Failed to encode the request."
)

// Error is the failure returned by every pipeline call. Kind is one of the
// sentinel errors above, so callers can use errors.Is(err, ErrTransient).
type Error struct {
	Kind       error
	StatusCode int    // 0 when no response was received
	Message    string // human-readable; safe to show to the user
	Err        error  // underlying cause, if any
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%v: HTTP %d: %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// kindName is the metrics label for an error kind.
func kindName(kind error) string {
	switch kind {
	case ErrAuthRequired:
		return "auth_required"
	case ErrTransient:
		return "transient"
	case ErrBusiness:
		return "business"
	case ErrParse:
		return "parse"
	case ErrEncode:
		return "encode"
	default:
		return "unknown"
	}
}

// AsError returns err as *Error if it is (or wraps) one.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func authRequired(status int, cause error) *Error {
	return &Error{Kind: ErrAuthRequired, StatusCode: status, Message: msgSessionExpired, Err: cause}
}

func transient(status int, message string, cause error) *Error {
	if message == "" {
		message = msgNetworkError
		if status > 0 {
			message = msgServerError
		}
	}
	return &Error{Kind: ErrTransient, StatusCode: status, Message: message, Err: cause}
}
