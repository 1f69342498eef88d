package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrEntryNotFound indicates the requested library entry does not exist
	ErrEntryNotFound = errors.New("library entry not found")

	// ErrInvalidEntry indicates an entry failed structural validation
	ErrInvalidEntry = errors.New("invalid library entry")

	// ErrKindChange indicates an update tried to change an entry's kind
	ErrKindChange = errors.New("changing the kind of an entry is not supported")

	// ErrImmutableField indicates an update tried to change a field fixed at creation
	ErrImmutableField = errors.New("field cannot be changed after creation")

	// ErrNotSeries indicates an episode action was applied to a movie
	ErrNotSeries = errors.New("entry is not a series")

	// ErrNotMovie indicates a movie-only edit was applied to a series
	ErrNotMovie = errors.New("entry is not a movie")

	// ErrAmbiguousID indicates an ID prefix matched more than one entry
	ErrAmbiguousID = errors.New("id prefix matches more than one entry")

	// ErrServerOffline indicates the remote collection server is unreachable
	ErrServerOffline = errors.New("collection server is unreachable")

	// ErrAuthFailed indicates credentials or the session token were rejected
	ErrAuthFailed = errors.New("authentication failed")

	// ErrSignInDisabled indicates the remote sign-in method is not provisioned.
	// Callers fall back to the local owner library.
	ErrSignInDisabled = errors.New("remote sign-in is disabled")

	// ErrStoreClosed indicates an operation on a library that has been closed
	ErrStoreClosed = errors.New("library store is closed")
)
