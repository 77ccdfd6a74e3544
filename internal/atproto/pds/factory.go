package pds

import (
	"fmt"
	"net/http"

	"github.com/bluesky-social/indigo/atproto/atclient"
)

// Factory creates a Client for a repository on a given PDS host
type Factory func(host, did string) (Client, error)

// NewFactory returns a Factory whose clients share httpClient. PDS hosts come
// from DID documents, so httpClient should refuse private addresses.
func NewFactory(httpClient *http.Client) Factory {
	return func(host, did string) (Client, error) {
		return NewPublicClient(host, did, httpClient)
	}
}

// NewPublicClient creates an unauthenticated client for the repository did
// hosted at host.
func NewPublicClient(host, did string, httpClient *http.Client) (Client, error) {
	if host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if did == "" {
		return nil, fmt.Errorf("did is required")
	}

	apiClient := atclient.NewAPIClient(host)
	if httpClient != nil {
		apiClient.Client = httpClient
	}

	return &client{
		apiClient: apiClient,
		did:       did,
		host:      host,
	}, nil
}
