package profiles

import (
	"context"

	"github.com/bluesky-social/indigo/atproto/syntax"
)

// State is the terminal outcome of a profile lookup
type State string

const (
	StateActive      State = "active"
	StateDeactivated State = "deactivated"
	StateNotFound    State = "notFound"
)

// Profile is the public profile of an active account
type Profile struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName,omitempty"`
	// AvatarURL is always the thumbnail variant
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Outcome is Active (with Profile set), Deactivated or NotFound. Deactivated
// and NotFound are distinct and must not be merged by callers.
type Outcome struct {
	State   State    `json:"state"`
	Profile *Profile `json:"profile,omitempty"`
}

func Active(p Profile) Outcome { return Outcome{State: StateActive, Profile: &p} }

func Deactivated() Outcome { return Outcome{State: StateDeactivated} }

func NotFound() Outcome { return Outcome{State: StateNotFound} }

// IsActive reports whether the outcome carries a profile
func (o Outcome) IsActive() bool {
	return o.State == StateActive && o.Profile != nil
}

// Fetcher looks up the public profile for a DID. It never fails: every
// error is folded into a Deactivated or NotFound outcome.
type Fetcher interface {
	Fetch(ctx context.Context, did syntax.DID) Outcome
}
