package repos

import (
	"context"
	"fmt"
	"log"

	"Internect/internal/atproto/pds"
	"Internect/internal/core/lookup"

	"github.com/bluesky-social/indigo/atproto/syntax"
)

const (
	DefaultLimit = 100
	MaxLimit     = 100
)

// Repository identifies the repo a result belongs to
type Repository struct {
	DID    string               `json:"did"`
	Handle string               `json:"handle,omitempty"`
	PDS    *lookup.PDSReference `json:"pds"`
}

// CollectionsResult is the set of collections a repository holds
type CollectionsResult struct {
	Repository  Repository `json:"repository"`
	Collections []string   `json:"collections"`
}

// RecordsResult is one page of records from a collection
type RecordsResult struct {
	Repository Repository        `json:"repository"`
	Collection string            `json:"collection"`
	Records    []pds.RecordEntry `json:"records"`
	Cursor     string            `json:"cursor,omitempty"`
}

// Service browses the repository behind an identifier
type Service interface {
	// Collections resolves raw and lists the collections in its repository
	Collections(ctx context.Context, raw string) (*CollectionsResult, error)

	// ListRecords resolves raw and lists one page of records. limit 0 means
	// DefaultLimit.
	ListRecords(ctx context.Context, raw, collection string, limit int, cursor string) (*RecordsResult, error)
}

type service struct {
	identities lookup.Service
	clients    pds.Factory
	breaker    *circuitBreaker
}

// NewService creates a repository browsing service
func NewService(identities lookup.Service, clients pds.Factory) Service {
	if identities == nil {
		panic("repos: identities cannot be nil")
	}
	if clients == nil {
		panic("repos: clients cannot be nil")
	}
	return &service{identities: identities, clients: clients, breaker: newCircuitBreaker()}
}

func (s *service) Collections(ctx context.Context, raw string) (*CollectionsResult, error) {
	repo, client, err := s.open(ctx, raw)
	if err != nil {
		return nil, err
	}

	desc, err := client.DescribeRepo(ctx)
	s.breaker.record(repo.PDS.ServiceEndpoint, err)
	if err != nil {
		log.Printf("[REPO] describeRepo failed for %s on %s: %v", repo.DID, client.HostURL(), err)
		return nil, &UpstreamError{Host: client.HostURL(), Err: err}
	}

	return &CollectionsResult{
		Repository:  repo,
		Collections: desc.Collections,
	}, nil
}

func (s *service) ListRecords(ctx context.Context, raw, collection string, limit int, cursor string) (*RecordsResult, error) {
	if _, err := syntax.ParseNSID(collection); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return nil, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidLimit, MaxLimit)
	}

	repo, client, err := s.open(ctx, raw)
	if err != nil {
		return nil, err
	}

	page, err := client.ListRecords(ctx, collection, limit, cursor)
	s.breaker.record(repo.PDS.ServiceEndpoint, err)
	if err != nil {
		log.Printf("[REPO] listRecords %s failed for %s on %s: %v", collection, repo.DID, client.HostURL(), err)
		return nil, &UpstreamError{Host: client.HostURL(), Err: err}
	}

	return &RecordsResult{
		Repository: repo,
		Collection: collection,
		Records:    page.Records,
		Cursor:     page.Cursor,
	}, nil
}

// open resolves raw and builds a client for its PDS
func (s *service) open(ctx context.Context, raw string) (Repository, pds.Client, error) {
	ident, err := s.identities.Resolve(ctx, raw)
	if err != nil {
		return Repository{}, nil, err
	}
	if ident.PDS == nil {
		return Repository{}, nil, fmt.Errorf("%w: %s", ErrNoPDS, ident.DID)
	}

	if err := s.breaker.allow(ident.PDS.ServiceEndpoint); err != nil {
		return Repository{}, nil, &UpstreamError{Host: ident.PDS.ServiceEndpoint, Err: err}
	}

	client, err := s.clients(ident.PDS.ServiceEndpoint, ident.DID)
	if err != nil {
		s.breaker.record(ident.PDS.ServiceEndpoint, err)
		return Repository{}, nil, &UpstreamError{Host: ident.PDS.ServiceEndpoint, Err: err}
	}

	return Repository{DID: ident.DID, Handle: ident.Handle, PDS: ident.PDS}, client, nil
}
