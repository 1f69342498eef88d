package domain

import (
	"context"
)

// Backend persists one library namespace. A session selects exactly one
// backend at start and routes every mutation through it.
type Backend interface {
	// Load returns the current full entry set
	Load(ctx context.Context) ([]Entry, error)

	// Put upserts an entry by ID. Writing identical content twice is a no-op.
	Put(ctx context.Context, e Entry) error

	// Delete removes an entry by ID. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	// Watch pushes the full entry set to fn on every change (including changes
	// made outside this process when the backend is shared) until ctx is done.
	// The first call to fn carries the current set.
	Watch(ctx context.Context, fn func([]Entry)) error

	// Close releases backend resources
	Close() error
}

// MetadataLookup resolves titles against the metadata catalog.
// Implementations never fail the caller: errors degrade to empty results.
type MetadataLookup interface {
	// Search returns a bounded list of movie and series candidates for query
	Search(ctx context.Context, query string) []Candidate

	// FetchDetails resolves supplementary attributes; zero value on any failure
	FetchDetails(ctx context.Context, externalID int64, kind Kind) Details
}

// AuthResult contains the result of a successful remote sign-in
type AuthResult struct {
	Token    string // Bearer token for collection API calls
	UserID   string // Owner of the remote collection
	Username string // Display username
}

// Authenticator signs a user in and out of the remote collection server.
type Authenticator interface {
	// SignIn exchanges credentials for a session token. It returns
	// ErrSignInDisabled when the server does not allow this sign-in method.
	SignIn(ctx context.Context, username, password string) (*AuthResult, error)

	// SignOut revokes the session token
	SignOut(ctx context.Context, token string) error
}
