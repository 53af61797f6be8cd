package accounts

import "errors"

// Domain-specific errors for account operations.
var (
	// ErrAccountNotFound is returned when an account lookup fails.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned when registering with an existing email.
	ErrEmailTaken = errors.New("email is already taken")
)
