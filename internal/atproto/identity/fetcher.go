package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/bluesky-social/indigo/atproto/syntax"
)

// PLCExplorerURL is the public web view of a PLC directory entry
const PLCExplorerURL = "https://web.plc.directory/did/"

// fetcher dispatches on the DID method to a per-method strategy
type fetcher struct {
	strategies  map[Method]methodStrategy
	callTimeout time.Duration
}

var _ DocumentFetcher = (*fetcher)(nil)

// Fetch resolves the DID document, and for PLC DIDs its audit log
func (f *fetcher) Fetch(ctx context.Context, did syntax.DID) (*Resolution, error) {
	method := MethodOf(did)
	strategy, ok := f.strategies[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, did.Method())
	}

	ctx, cancel := withCallTimeout(ctx, f.callTimeout)
	defer cancel()

	res, err := strategy.fetch(ctx, did)
	if err != nil {
		return nil, err
	}

	if res.Document.ID != did.String() {
		return nil, &ErrResolutionFailed{
			Identifier: did.String(),
			Source:     string(method) + ".document",
			Cause:      fmt.Errorf("document id %q does not match", res.Document.ID),
		}
	}

	return res, nil
}

// DocumentURL returns where a human can view the DID document: the PLC
// explorer for did:plc, the well-known document itself for did:web.
func DocumentURL(did syntax.DID) string {
	switch MethodOf(did) {
	case MethodPLC:
		return PLCExplorerURL + did.String()
	case MethodWeb:
		u, err := WebDocumentURL(did, "https")
		if err != nil {
			return ""
		}
		return u
	default:
		return ""
	}
}
