package tokenstore

import "errors"

// ErrUnavailable is reported by Health when the store has no backend
var ErrUnavailable = errors.New("token store: no backend configured")
