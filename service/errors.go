package service

import "errors"

// Sentinel errors shared across the service and session layers. Callers
// match them with errors.Is; wrapping adds the offending name.
var (
	// ErrListNotFound means a list name matched nothing in the catalog.
	ErrListNotFound = errors.New("list not found")

	// ErrNoDefaultList means an operation omitted the list name and no
	// default list has been set for the session.
	ErrNoDefaultList = errors.New("no list specified and no default list set")

	// ErrMissingCredentials means the account email or password could not
	// be resolved from any configured source.
	ErrMissingCredentials = errors.New("bring credentials not provided")

	// ErrAuthenticationFailed means the vendor rejected the configured
	// credentials at login.
	ErrAuthenticationFailed = errors.New("authentication failed")
)
