package domain

import "errors"

var (
	// Common domain errors
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUserNotFound    = errors.New("account not found")
	ErrRateLimited     = errors.New("rate limited by upstream api")
	ErrDeliveryFailed  = errors.New("delivery failed for every destination")
	ErrNoDestinations  = errors.New("no destinations configured")
	ErrLockHeld        = errors.New("relay lock is held by another instance")
)
