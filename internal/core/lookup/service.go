package lookup

import (
	"context"
	"errors"
	"log"
	"time"

	"Internect/internal/atproto/identity"
	"Internect/internal/core/profiles"

	"github.com/bluesky-social/indigo/atproto/syntax"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "Internect/internal/core/lookup"

// service implements the Service interface
type service struct {
	handles   identity.HandleResolver
	documents identity.DocumentFetcher
	profiles  profiles.Fetcher
	observer  Observer
	tracer    trace.Tracer
}

// NewService creates the identity resolution pipeline
func NewService(handles identity.HandleResolver, documents identity.DocumentFetcher, profileFetcher profiles.Fetcher, opts ...ServiceOption) Service {
	if handles == nil {
		panic("lookup: handles cannot be nil")
	}
	if documents == nil {
		panic("lookup: documents cannot be nil")
	}
	if profileFetcher == nil {
		panic("lookup: profiles cannot be nil")
	}

	s := &service{
		handles:   handles,
		documents: documents,
		profiles:  profileFetcher,
		observer:  noopObserver{},
		tracer:    otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ServiceOption configures the service
type ServiceOption func(*service)

// WithObserver reports every resolution outcome
func WithObserver(o Observer) ServiceOption {
	return func(s *service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithTracer overrides the global tracer
func WithTracer(t trace.Tracer) ServiceOption {
	return func(s *service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func (s *service) Resolve(ctx context.Context, raw string) (result *ResolvedIdentity, err error) {
	ctx, span := s.tracer.Start(ctx, "lookup.Resolve")
	defer span.End()

	start := time.Now()
	defer func() {
		outcome := "ok"
		var pe *PipelineError
		if errors.As(err, &pe) {
			outcome = string(pe.Kind)
			span.SetStatus(codes.Error, outcome)
		}
		s.observer.ObserveResolution(outcome, time.Since(start))
	}()

	id, err := Classify(raw)
	if err != nil {
		return nil, &PipelineError{Kind: KindInvalidInput, Input: raw, Err: err}
	}
	span.SetAttributes(
		attribute.String("lookup.kind", string(id.Kind)),
		attribute.String("lookup.source", string(id.Source)),
	)

	did := id.DID
	if id.Kind == KindHandle {
		did, err = s.resolveHandle(ctx, id.Handle)
		if err != nil {
			return nil, &PipelineError{Kind: KindHandleNotFound, Input: raw, Err: err}
		}
	}
	span.SetAttributes(attribute.String("lookup.did", did.String()))

	method := identity.MethodOf(did)
	if !method.Supported() {
		return nil, &PipelineError{
			Kind:  KindUnsupportedMethod,
			Input: raw,
			DID:   did.String(),
			Err:   identity.ErrUnsupportedMethod,
		}
	}

	var (
		resolution *identity.Resolution
		outcome    profiles.Outcome
	)

	// Profile fetches never fail, so only the document can abort the group
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docCtx, docSpan := s.tracer.Start(gctx, "lookup.FetchDocument")
		defer docSpan.End()

		res, err := s.documents.Fetch(docCtx, did)
		if err != nil {
			docSpan.SetStatus(codes.Error, err.Error())
			return err
		}
		resolution = res
		return nil
	})
	g.Go(func() error {
		profileCtx, profileSpan := s.tracer.Start(gctx, "lookup.FetchProfile")
		defer profileSpan.End()

		outcome = s.profiles.Fetch(profileCtx, did)
		profileSpan.SetAttributes(attribute.String("profile.state", string(outcome.State)))
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("[LOOKUP] Document fetch failed for %s: %v", did, err)
		kind := KindDIDNotFound
		if errors.Is(err, identity.ErrUnsupportedMethod) {
			kind = KindUnsupportedMethod
		}
		return nil, &PipelineError{Kind: kind, Input: raw, DID: did.String(), Err: err}
	}

	return assemble(id, did, method, resolution, outcome), nil
}

func (s *service) resolveHandle(ctx context.Context, handle syntax.Handle) (syntax.DID, error) {
	ctx, span := s.tracer.Start(ctx, "lookup.ResolveHandle")
	defer span.End()

	did, err := s.handles.ResolveHandle(ctx, handle)
	if err != nil {
		span.SetStatus(codes.Error, "handle not found")
		return "", err
	}
	return did, nil
}

// assemble builds the result. The handle comes from the input when one was
// given, then from an active profile, then from the document's first alias.
func assemble(id Identifier, did syntax.DID, method identity.Method, res *identity.Resolution, outcome profiles.Outcome) *ResolvedIdentity {
	out := &ResolvedIdentity{
		DID:         did.String(),
		Method:      method,
		Document:    res.Document,
		AuditLog:    res.AuditLog,
		HasHistory:  res.HasHistory,
		DocumentURL: identity.DocumentURL(did),
		PDS:         ExtractPDS(res.Document),
		Profile:     outcome,
	}

	if out.AuditLog == nil {
		out.AuditLog = []identity.AuditRecord{}
	}

	if first, ok := identity.FirstSeen(out.AuditLog); ok {
		out.FirstSeen = &first
	}

	switch {
	case id.Kind == KindHandle:
		out.Handle = id.Handle.String()
	case outcome.IsActive():
		out.Handle = outcome.Profile.Handle
	default:
		out.Handle = res.Document.DeclaredHandle()
	}

	return out
}
