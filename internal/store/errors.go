package store

import "errors"

// ErrUnsupportedDriver is returned by New for a driver name with no registered dialector
var ErrUnsupportedDriver = errors.New("unsupported database driver")
