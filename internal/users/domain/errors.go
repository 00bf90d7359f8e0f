package users

import "errors"

var (
	// ErrNotFound is returned when a referenced user is absent.
	ErrNotFound = errors.New("users: user not found")
	// ErrMobileConflict is returned when the mobile number is already taken.
	ErrMobileConflict = errors.New("users: mobile number already registered")
	// ErrInvalidCredentials is returned for a failed login. The message never
	// distinguishes unknown mobile from wrong password.
	ErrInvalidCredentials = errors.New("users: invalid mobile or password")
	// ErrInactive is returned when a deactivated account attempts to log in.
	ErrInactive = errors.New("users: account is deactivated")
)
