// Package pds provides read-only access to a repository hosted on an AT Protocol PDS.
// It wraps indigo's atclient.APIClient and maps XRPC failures to typed errors.
package pds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bluesky-social/indigo/atproto/atclient"
	"github.com/bluesky-social/indigo/atproto/syntax"
)

// Client lists what a repository holds. All calls are unauthenticated.
type Client interface {
	// DescribeRepo returns the repository's handle and collection names.
	DescribeRepo(ctx context.Context) (*RepoDescription, error)

	// ListRecords lists records in a collection with pagination.
	// Returns records, next cursor (empty if no more), and error.
	ListRecords(ctx context.Context, collection string, limit int, cursor string) (*ListRecordsResponse, error)

	// DID returns the repository DID.
	DID() string

	// HostURL returns the PDS host URL.
	HostURL() string
}

// RepoDescription is the result of com.atproto.repo.describeRepo
type RepoDescription struct {
	Handle          string   `json:"handle"`
	DID             string   `json:"did"`
	Collections     []string `json:"collections"`
	HandleIsCorrect bool     `json:"handleIsCorrect"`
}

// ListRecordsResponse contains the result of a ListRecords call.
type ListRecordsResponse struct {
	Records []RecordEntry `json:"records"`
	Cursor  string        `json:"cursor,omitempty"`
}

// RecordEntry represents a single record from a list operation.
type RecordEntry struct {
	URI   string          `json:"uri"`
	CID   string          `json:"cid"`
	Value json.RawMessage `json:"value"`
}

// client implements the Client interface using indigo's APIClient.
type client struct {
	apiClient *atclient.APIClient
	did       string
	host      string
}

// Ensure client implements Client interface.
var _ Client = (*client)(nil)

// wrapAPIError inspects an error from atclient and wraps it with our typed errors.
// This allows callers to use errors.Is() for reliable error detection.
func wrapAPIError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var apiErr *atclient.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 400:
			if apiErr.Name == "RepoNotFound" || apiErr.Name == "RepoDeactivated" || apiErr.Name == "RepoTakendown" {
				return fmt.Errorf("%s: %w: %s", operation, ErrRepoUnavailable, apiErr.Message)
			}
			return fmt.Errorf("%s: %w: %s", operation, ErrBadRequest, apiErr.Message)
		case 401:
			return fmt.Errorf("%s: %w: %s", operation, ErrUnauthorized, apiErr.Message)
		case 403:
			return fmt.Errorf("%s: %w: %s", operation, ErrForbidden, apiErr.Message)
		case 404:
			return fmt.Errorf("%s: %w: %s", operation, ErrNotFound, apiErr.Message)
		case 429:
			return fmt.Errorf("%s: %w: %s", operation, ErrRateLimited, apiErr.Message)
		}
	}

	// For other errors, wrap with operation context
	return fmt.Errorf("%s failed: %w", operation, err)
}

// DID returns the repository DID.
func (c *client) DID() string {
	return c.did
}

// HostURL returns the PDS host URL.
func (c *client) HostURL() string {
	return c.host
}

// DescribeRepo calls com.atproto.repo.describeRepo for the repository.
func (c *client) DescribeRepo(ctx context.Context) (*RepoDescription, error) {
	var result RepoDescription
	err := c.apiClient.Get(ctx, syntax.NSID("com.atproto.repo.describeRepo"), map[string]any{
		"repo": c.did,
	}, &result)
	if err != nil {
		return nil, wrapAPIError(err, "describeRepo")
	}

	if result.Collections == nil {
		result.Collections = []string{}
	}

	return &result, nil
}

// ListRecords lists records in a collection with pagination.
func (c *client) ListRecords(ctx context.Context, collection string, limit int, cursor string) (*ListRecordsResponse, error) {
	params := map[string]any{
		"repo":       c.did,
		"collection": collection,
		"limit":      limit,
	}

	if cursor != "" {
		params["cursor"] = cursor
	}

	var result ListRecordsResponse
	err := c.apiClient.Get(ctx, syntax.NSID("com.atproto.repo.listRecords"), params, &result)
	if err != nil {
		return nil, wrapAPIError(err, "listRecords")
	}

	if result.Records == nil {
		result.Records = []RecordEntry{}
	}

	return &result, nil
}
