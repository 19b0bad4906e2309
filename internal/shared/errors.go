package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound indicates the resolver was invoked for an identity
	// absent or deactivated in storage.
	ErrUserNotFound = errors.New("user not found")
)
