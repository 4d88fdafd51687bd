package trackfit

import "errors"

var (
	// ErrMissingPositionService is returned when no hit position service is configured.
	ErrMissingPositionService = errors.New("trackfit: hit position service is required")

	// ErrMissingSurfaceService is returned when no surface lookup service is configured.
	ErrMissingSurfaceService = errors.New("trackfit: surface lookup service is required")

	// ErrMissingSeedCollection is returned when the event lacks the configured seed collection.
	ErrMissingSeedCollection = errors.New("trackfit: seed collection is missing")

	// ErrInvalidField is returned for an empty or malformed field configuration.
	ErrInvalidField = errors.New("trackfit: invalid field configuration")

	// ErrUnknownSeedSource is returned for a seed collection name with no known convention.
	ErrUnknownSeedSource = errors.New("trackfit: unknown seed collection")
)
