package domain

import "errors"

var (
	// ErrUnknownVenue is returned when a venue id is not registered for the
	// requested capability.
	ErrUnknownVenue = errors.New("unknown venue")

	// ErrNoVenueRegistered is returned when a capability has no default
	// because no venue was ever registered for it.
	ErrNoVenueRegistered = errors.New("no venue registered")

	// ErrUnsupported is returned by a venue's default fallback for an
	// optional operation it does not implement.
	ErrUnsupported = errors.New("operation not supported on this venue")

	// ErrOrderRejected is returned when a venue accepts the request but
	// rejects the order itself.
	ErrOrderRejected = errors.New("order rejected")

	// ErrAssetNotFound is returned when a symbol does not resolve to a
	// market on the target venue.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrNoLiquidity is returned when an aggregator has no route for the
	// requested pair.
	ErrNoLiquidity = errors.New("no liquidity available")

	// ErrLockHeld is returned when a distributed lock is already held by
	// another party.
	ErrLockHeld = errors.New("lock already held")

	ErrNotFound      = errors.New("not found")
	ErrSigningFailed = errors.New("signing failed")
)
