package apiclient

import (
	"context"

	"github.com/rs/zerolog"
)

// Notifier surfaces a failed call to the user. It is called at most once
// per call, never for ErrAuthRequired or ErrEncode.
type Notifier interface {
	Notify(ctx context.Context, err *Error)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, err *Error)

// Notify calls f(ctx, err)
func (f NotifierFunc) Notify(ctx context.Context, err *Error) {
	f(ctx, err)
}

// LogNotifier writes failures to a logger. It is the default when no
// notifier is configured.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify logs the failure at error level
func (n LogNotifier) Notify(_ context.Context, err *Error) {
	n.Logger.Error().
		Str("kind", kindName(err.Kind)).
		Int("status", err.StatusCode).
		Msg(err.Message)
}

// shouldNotify reports whether a failure is user-visible.
func shouldNotify(err *Error) bool {
	return err.Kind != ErrAuthRequired && err.Kind != ErrEncode
}
