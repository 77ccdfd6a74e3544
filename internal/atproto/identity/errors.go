package identity

import (
	"errors"
	"fmt"
)

var (
	// ErrHandleNotFound is returned for any handle that could not be mapped to
	// a DID, whatever the underlying cause.
	ErrHandleNotFound = errors.New("handle not found")

	// ErrDIDNotFound is returned when a DID document (or, for PLC, its audit
	// log) could not be fetched or was malformed.
	ErrDIDNotFound = errors.New("DID not found")

	// ErrUnsupportedMethod is returned for DID methods other than plc and web
	ErrUnsupportedMethod = errors.New("unsupported DID method")

	// ErrResponseTooLarge is returned when an upstream body exceeds its size limit
	ErrResponseTooLarge = errors.New("response too large")
)

// ErrInvalidIdentifier is returned for malformed handles or DIDs
type ErrInvalidIdentifier struct {
	Identifier string
	Reason     string
}

func (e *ErrInvalidIdentifier) Error() string {
	return fmt.Sprintf("invalid identifier %s: %s", e.Identifier, e.Reason)
}

// ErrResolutionFailed describes why a DID could not be resolved. It matches
// ErrDIDNotFound with errors.Is and also unwraps to its cause.
type ErrResolutionFailed struct {
	Identifier string
	Source     string // upstream that failed, e.g. "plc.document"
	Cause      error
}

func (e *ErrResolutionFailed) Error() string {
	return fmt.Sprintf("resolution failed for %s (%s): %v", e.Identifier, e.Source, e.Cause)
}

func (e *ErrResolutionFailed) Unwrap() []error {
	return []error{ErrDIDNotFound, e.Cause}
}

// ErrUpstreamStatus is returned when an upstream answered with a non-2xx status
type ErrUpstreamStatus struct {
	URL        string
	StatusCode int
}

func (e *ErrUpstreamStatus) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}
