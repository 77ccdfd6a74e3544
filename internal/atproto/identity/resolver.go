package identity

import (
	"context"
	"time"

	"github.com/bluesky-social/indigo/atproto/syntax"
)

// HandleResolver maps a handle to the DID it points at
type HandleResolver interface {
	// ResolveHandle returns ErrHandleNotFound for every failure: transport
	// errors, non-2xx answers and unknown handles are not distinguished.
	ResolveHandle(ctx context.Context, handle syntax.Handle) (syntax.DID, error)
}

// DocumentFetcher retrieves the DID document and audit log for a DID
type DocumentFetcher interface {
	// Fetch always hits the network; nothing is cached between calls.
	// Unsupported methods fail with ErrUnsupportedMethod before any request
	// is made. Every other failure matches ErrDIDNotFound.
	Fetch(ctx context.Context, did syntax.DID) (*Resolution, error)
}

// Observer receives timing for every upstream request. Implementations must
// be safe for concurrent use.
type Observer interface {
	ObserveUpstream(upstream, outcome string, elapsed time.Duration)
}

// methodStrategy resolves DIDs of a single method
type methodStrategy interface {
	fetch(ctx context.Context, did syntax.DID) (*Resolution, error)
}

type noopObserver struct{}

func (noopObserver) ObserveUpstream(string, string, time.Duration) {}
