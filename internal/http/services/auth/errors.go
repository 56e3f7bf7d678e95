package auth

import "errors"

var (
	ErrAppNotFound = errors.New("application not found")
	ErrNotEnrolled = errors.New("2fa not set up")
	ErrInvalidCode = errors.New("invalid verification code")
)
