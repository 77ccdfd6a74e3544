package identity

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/bluesky-social/indigo/atproto/atclient"
	indigoIdentity "github.com/bluesky-social/indigo/atproto/identity"
	"github.com/bluesky-social/indigo/atproto/syntax"
)

// xrpcHandleResolver resolves handles through com.atproto.identity.resolveHandle
type xrpcHandleResolver struct {
	apiClient   *atclient.APIClient
	callTimeout time.Duration
	observer    Observer
}

var _ HandleResolver = (*xrpcHandleResolver)(nil)

func newXRPCHandleResolver(host string, httpClient *http.Client, callTimeout time.Duration, observer Observer) *xrpcHandleResolver {
	apiClient := atclient.NewAPIClient(host)
	if httpClient != nil {
		apiClient.Client = httpClient
	}
	if apiClient.Headers == nil {
		apiClient.Headers = http.Header{}
	}
	apiClient.Headers.Set("Cache-Control", "no-cache")

	return &xrpcHandleResolver{
		apiClient:   apiClient,
		callTimeout: callTimeout,
		observer:    observer,
	}
}

func (r *xrpcHandleResolver) ResolveHandle(ctx context.Context, handle syntax.Handle) (syntax.DID, error) {
	ctx, cancel := withCallTimeout(ctx, r.callTimeout)
	defer cancel()

	start := time.Now()
	var result struct {
		DID string `json:"did"`
	}
	err := r.apiClient.Get(ctx, syntax.NSID("com.atproto.identity.resolveHandle"), map[string]any{
		"handle": handle.String(),
	}, &result)
	if err != nil {
		r.observer.ObserveUpstream(UpstreamHandle, "error", time.Since(start))
		log.Printf("[IDENTITY] resolveHandle failed for %s: %v", handle, err)
		return "", ErrHandleNotFound
	}

	did, err := syntax.ParseDID(result.DID)
	if err != nil {
		r.observer.ObserveUpstream(UpstreamHandle, "error", time.Since(start))
		log.Printf("[IDENTITY] resolveHandle for %s returned invalid DID %q: %v", handle, result.DID, err)
		return "", ErrHandleNotFound
	}

	r.observer.ObserveUpstream(UpstreamHandle, "ok", time.Since(start))
	return did, nil
}

// directoryHandleResolver resolves handles directly over DNS TXT and
// HTTPS well-known using indigo's BaseDirectory
type directoryHandleResolver struct {
	directory   *indigoIdentity.BaseDirectory
	callTimeout time.Duration
	observer    Observer
}

var _ HandleResolver = (*directoryHandleResolver)(nil)

func newDirectoryHandleResolver(httpClient *http.Client, callTimeout time.Duration, observer Observer) *directoryHandleResolver {
	dir := &indigoIdentity.BaseDirectory{
		TryAuthoritativeDNS: true,
		// Bluesky-hosted handles are served over HTTPS, never DNS
		SkipDNSDomainSuffixes: []string{".bsky.social"},
	}
	if httpClient != nil {
		dir.HTTPClient = *httpClient
	}

	return &directoryHandleResolver{
		directory:   dir,
		callTimeout: callTimeout,
		observer:    observer,
	}
}

func (r *directoryHandleResolver) ResolveHandle(ctx context.Context, handle syntax.Handle) (syntax.DID, error) {
	ctx, cancel := withCallTimeout(ctx, r.callTimeout)
	defer cancel()

	start := time.Now()
	did, err := r.directory.ResolveHandle(ctx, handle)
	if err != nil {
		r.observer.ObserveUpstream(UpstreamHandle, "error", time.Since(start))
		log.Printf("[IDENTITY] direct handle resolution failed for %s: %v", handle, err)
		return "", ErrHandleNotFound
	}

	r.observer.ObserveUpstream(UpstreamHandle, "ok", time.Since(start))
	return did, nil
}

func withCallTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
