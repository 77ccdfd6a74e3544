package repos

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPDS is returned when the DID document declares no PDS
	ErrNoPDS = errors.New("identity has no PDS")

	// ErrInvalidCollection is returned for a collection that is not an NSID
	ErrInvalidCollection = errors.New("invalid collection")

	// ErrInvalidLimit is returned for a limit outside 1..MaxLimit
	ErrInvalidLimit = errors.New("invalid limit")
)

// UpstreamError wraps a failure talking to the PDS
type UpstreamError struct {
	Host string
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("PDS %s: %v", e.Host, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
