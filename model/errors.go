package model

import "errors"

// Error taxonomy for the dispatch core. Callers match with errors.Is; the
// store wraps its own failures around ErrPersistence so best-effort paths
// can log and continue.
var (
	// ErrResourceUnavailable: no ambulance or hospital satisfies a match
	// query. Recovered by aborting the dispatch.
	ErrResourceUnavailable = errors.New("resource unavailable")

	// ErrInvalidRoute: a route with fewer than two waypoints, or legs that
	// do not meet at the patient position.
	ErrInvalidRoute = errors.New("invalid route")

	// ErrNotFound: lookup by id matched nothing.
	ErrNotFound = errors.New("not found")

	// ErrPersistence: the persistence collaborator failed. Corridor
	// teardown treats this as log-and-continue.
	ErrPersistence = errors.New("persistence error")
)
