// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotConfigured indicates no API credentials exist for the
	// requested (tenant, user, kind).
	ErrNotConfigured = errors.New("credentials not configured")

	// ErrAlreadyFinished indicates an operation on a sync run that has
	// already reached a terminal state (end time set).
	ErrAlreadyFinished = errors.New("sync run already finished")

	// ErrAlreadyExists indicates a unique constraint violation.
	ErrAlreadyExists = errors.New("already exists")
)
