package service

import (
	"errors"

	"walletfy-api/internal/validation"
)

// Errors returned by the services. Controllers map them to HTTP statuses.
var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrTokenInvalid       = errors.New("token is invalid")
	ErrTokenExpired       = errors.New("token has expired")
	ErrStaleToken         = errors.New("password changed after token was issued")
	ErrUserGone           = errors.New("token user no longer exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrForbidden          = errors.New("forbidden")
)

// ValidationError lists every problem found in a request, one message per problem
type ValidationError = validation.Error
