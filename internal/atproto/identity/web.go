package identity

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bluesky-social/indigo/atproto/syntax"
)

// WellKnownDIDPath is where a did:web domain publishes its document
const WellKnownDIDPath = "/.well-known/did.json"

// webStrategy resolves did:web identifiers from the domain's well-known path.
// did:web has no operation history, so no audit log is ever requested.
type webStrategy struct {
	scheme string
	getter *jsonGetter
}

func newWebStrategy(scheme string, getter *jsonGetter) *webStrategy {
	if scheme == "" {
		scheme = "https"
	}
	return &webStrategy{scheme: scheme, getter: getter}
}

// WebDomain returns the percent-decoded third ":" component of a did:web.
// Anything after a further ":" is ignored.
func WebDomain(did syntax.DID) (string, error) {
	parts := strings.SplitN(did.String(), ":", 4)
	if len(parts) < 3 || parts[2] == "" {
		return "", &ErrInvalidIdentifier{Identifier: did.String(), Reason: "missing domain"}
	}

	domain, err := url.PathUnescape(parts[2])
	if err != nil {
		return "", &ErrInvalidIdentifier{Identifier: did.String(), Reason: fmt.Sprintf("invalid domain encoding: %v", err)}
	}
	if domain == "" || strings.ContainsAny(domain, "/?#@") {
		return "", &ErrInvalidIdentifier{Identifier: did.String(), Reason: "invalid domain"}
	}

	return domain, nil
}

// WebDocumentURL returns the well-known document URL for a did:web
func WebDocumentURL(did syntax.DID, scheme string) (string, error) {
	domain, err := WebDomain(did)
	if err != nil {
		return "", err
	}
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + domain + WellKnownDIDPath, nil
}

func (s *webStrategy) fetch(ctx context.Context, did syntax.DID) (*Resolution, error) {
	docURL, err := WebDocumentURL(did, s.scheme)
	if err != nil {
		return nil, &ErrResolutionFailed{Identifier: did.String(), Source: UpstreamWebDocument, Cause: err}
	}

	var doc DIDDocument
	if err := s.getter.get(ctx, UpstreamWebDocument, docURL, maxDocumentSize, documentSchema, &doc); err != nil {
		return nil, &ErrResolutionFailed{Identifier: did.String(), Source: UpstreamWebDocument, Cause: err}
	}

	return &Resolution{
		Document:   &doc,
		AuditLog:   []AuditRecord{},
		HasHistory: false,
	}, nil
}
