package pds

import "errors"

// Typed errors for PDS operations.
// These allow services to use errors.Is() for reliable error detection
// instead of fragile string matching.
var (
	// ErrUnauthorized indicates the request failed due to invalid or expired credentials (HTTP 401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the request was rejected due to insufficient permissions (HTTP 403).
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the requested resource does not exist (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrBadRequest indicates the request was malformed or invalid (HTTP 400).
	ErrBadRequest = errors.New("bad request")

	// ErrRepoUnavailable indicates the PDS does not serve the repository
	// (RepoNotFound, RepoDeactivated or RepoTakendown).
	ErrRepoUnavailable = errors.New("repository unavailable")

	// ErrRateLimited indicates the PDS throttled the request (HTTP 429).
	ErrRateLimited = errors.New("rate limited")
)

// IsClientError returns true if the PDS rejected the request itself rather
// than failing to serve it.
func IsClientError(err error) bool {
	return errors.Is(err, ErrBadRequest) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrRepoUnavailable)
}
