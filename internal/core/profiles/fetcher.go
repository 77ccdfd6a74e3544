package profiles

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"Internect/internal/atproto/identity"

	"github.com/bluesky-social/indigo/atproto/atclient"
	"github.com/bluesky-social/indigo/atproto/syntax"
)

// UpstreamProfile names the profile service in metrics
const UpstreamProfile = "profile"

const (
	fullAvatarSegment  = "/img/avatar/plain/"
	thumbAvatarSegment = "/img/avatar_thumbnail/plain/"
)

// getProfileResponse is the subset of app.bsky.actor.defs#profileViewDetailed we use
type getProfileResponse struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// appViewFetcher fetches profiles from an AppView via app.bsky.actor.getProfile
type appViewFetcher struct {
	apiClient   *atclient.APIClient
	callTimeout time.Duration
	observer    identity.Observer
}

var _ Fetcher = (*appViewFetcher)(nil)

// FetcherOption configures the AppView fetcher
type FetcherOption func(*appViewFetcher)

// WithHTTPClient sets the HTTP client used for AppView requests
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *appViewFetcher) {
		f.apiClient.Client = c
	}
}

// WithCallTimeout bounds each getProfile call
func WithCallTimeout(d time.Duration) FetcherOption {
	return func(f *appViewFetcher) {
		f.callTimeout = d
	}
}

// WithObserver reports getProfile timings
func WithObserver(o identity.Observer) FetcherOption {
	return func(f *appViewFetcher) {
		f.observer = o
	}
}

// NewAppViewFetcher creates a Fetcher against appViewURL
func NewAppViewFetcher(appViewURL string, opts ...FetcherOption) Fetcher {
	if appViewURL == "" {
		panic("profiles: appViewURL cannot be empty")
	}

	apiClient := atclient.NewAPIClient(appViewURL)
	if apiClient.Headers == nil {
		apiClient.Headers = http.Header{}
	}
	apiClient.Headers.Set("Cache-Control", "no-cache")

	f := &appViewFetcher{
		apiClient:   apiClient,
		callTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *appViewFetcher) Fetch(ctx context.Context, did syntax.DID) Outcome {
	if f.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.callTimeout)
		defer cancel()
	}

	start := time.Now()
	var resp getProfileResponse
	err := f.apiClient.Get(ctx, syntax.NSID("app.bsky.actor.getProfile"), map[string]any{
		"actor": did.String(),
	}, &resp)
	if f.observer != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		f.observer.ObserveUpstream(UpstreamProfile, outcome, time.Since(start))
	}

	if err != nil {
		outcome := classifyFailure(err)
		log.Printf("[PROFILE] getProfile failed for %s (%s): %v", did, outcome.State, err)
		return outcome
	}

	handle := resp.Handle
	if handle == "" {
		handle = did.String()
	}

	return Active(Profile{
		DID:         did.String(),
		Handle:      handle,
		DisplayName: resp.DisplayName,
		AvatarURL:   ThumbnailAvatar(resp.Avatar),
	})
}

// classifyFailure maps a getProfile error to Deactivated when the XRPC error
// name or message mentions deactivation, and NotFound otherwise.
func classifyFailure(err error) Outcome {
	var apiErr *atclient.APIError
	if errors.As(err, &apiErr) {
		if mentionsDeactivation(apiErr.Name) || mentionsDeactivation(apiErr.Message) {
			return Deactivated()
		}
	}
	return NotFound()
}

func mentionsDeactivation(s string) bool {
	return strings.Contains(strings.ToLower(s), "deactivated")
}

// ThumbnailAvatar rewrites a full size CDN avatar URL to its thumbnail variant
func ThumbnailAvatar(avatar string) string {
	return strings.Replace(avatar, fullAvatarSegment, thumbAvatarSegment, 1)
}
