package identity

import (
	"context"
	"net/url"
	"strings"

	"github.com/bluesky-social/indigo/atproto/syntax"
	"golang.org/x/sync/errgroup"
)

// plcStrategy resolves did:plc identifiers against a PLC directory
type plcStrategy struct {
	directoryURL string
	getter       *jsonGetter
}

func newPLCStrategy(directoryURL string, getter *jsonGetter) *plcStrategy {
	return &plcStrategy{
		directoryURL: strings.TrimRight(directoryURL, "/"),
		getter:       getter,
	}
}

// fetch requests the document and the audit log concurrently. Both must
// succeed; the first failure cancels the other request.
func (s *plcStrategy) fetch(ctx context.Context, did syntax.DID) (*Resolution, error) {
	base := s.directoryURL + "/" + url.PathEscape(did.String())

	var (
		doc      DIDDocument
		auditLog []AuditRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.getter.get(gctx, UpstreamPLCDocument, base, maxDocumentSize, documentSchema, &doc); err != nil {
			return &ErrResolutionFailed{Identifier: did.String(), Source: UpstreamPLCDocument, Cause: err}
		}
		return nil
	})
	g.Go(func() error {
		if err := s.getter.get(gctx, UpstreamPLCAudit, base+"/log/audit", maxAuditLogSize, auditSchema, &auditLog); err != nil {
			return &ErrResolutionFailed{Identifier: did.String(), Source: UpstreamPLCAudit, Cause: err}
		}
		if err := validateAuditLog(did.String(), auditLog); err != nil {
			return &ErrResolutionFailed{Identifier: did.String(), Source: UpstreamPLCAudit, Cause: err}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if auditLog == nil {
		auditLog = []AuditRecord{}
	}

	return &Resolution{
		Document:   &doc,
		AuditLog:   auditLog,
		HasHistory: true,
	}, nil
}
