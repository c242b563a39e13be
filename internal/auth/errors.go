package auth

import "errors"

var (
	// ErrUsernameExists indicates the username is already registered.
	ErrUsernameExists = errors.New("username already exists")
	// ErrCapacityExceeded is returned once the registration cap is reached.
	ErrCapacityExceeded = errors.New("registration capacity exceeded")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound signals that the account could not be located.
	ErrUserNotFound = errors.New("user not found")
	// ErrUnauthorized represents missing or invalid authentication tokens.
	ErrUnauthorized = errors.New("unauthorized")
)
