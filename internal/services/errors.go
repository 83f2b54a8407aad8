package services

import (
	"errors"

	"apparel-backoffice/configs"
	"apparel-backoffice/internal/cache"
)

var (
	ErrConfiguration      = configs.ErrConfiguration
	ErrStorageUnavailable = cache.ErrUnavailable

	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotInitialized     = errors.New("admin credentials not initialized")
	ErrRateLimited        = errors.New("too many requests")
	ErrNotFound           = errors.New("not found")
	ErrUpstream           = errors.New("upstream failure")
	ErrValidation         = errors.New("validation failed")
)

// ValidationError describes a malformed request. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
