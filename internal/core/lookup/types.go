package lookup

import (
	"context"
	"time"

	"Internect/internal/atproto/identity"
	"Internect/internal/core/profiles"
)

// ResolvedIdentity is the fully dereferenced result of a lookup
type ResolvedIdentity struct {
	FirstSeen   *time.Time             `json:"firstSeen,omitempty"`
	Document    *identity.DIDDocument  `json:"didDocument"`
	PDS         *PDSReference          `json:"pds,omitempty"`
	Profile     profiles.Outcome       `json:"profile"`
	DID         string                 `json:"did"`
	Method      identity.Method        `json:"method"`
	Handle      string                 `json:"handle,omitempty"`
	DocumentURL string                 `json:"documentUrl"`
	AuditLog    []identity.AuditRecord `json:"auditLog"`
	HasHistory  bool                   `json:"hasHistory"`
}

// Service resolves user input into a ResolvedIdentity
type Service interface {
	// Resolve runs the whole pipeline. Every error is a *PipelineError.
	// Nothing is cached: repeated calls repeat every upstream request.
	Resolve(ctx context.Context, raw string) (*ResolvedIdentity, error)
}

// Observer receives the outcome of each resolution. Implementations must be
// safe for concurrent use.
type Observer interface {
	ObserveResolution(outcome string, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveResolution(string, time.Duration) {}
