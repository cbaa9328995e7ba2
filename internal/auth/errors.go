package auth

import "errors"

var (
	// ErrNotSignedIn indicates no identity snapshot is stored
	ErrNotSignedIn = errors.New("not signed in")

	// ErrMissingCredentials indicates a login attempt without member id or password
	ErrMissingCredentials = errors.New("member id and password are required")
)
