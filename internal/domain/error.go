package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrMissingAPIKey   = errors.New("analysis api key not configured")
	ErrReadDatabaseRow = errors.New("failed to read database row")
)
