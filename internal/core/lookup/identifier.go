package lookup

import (
	"fmt"
	"net/url"
	"strings"

	"Internect/internal/atproto/identity"

	"github.com/bluesky-social/indigo/atproto/syntax"
)

// Kind says whether an identifier was reduced to a DID or a handle
type Kind string

const (
	KindDID    Kind = "did"
	KindHandle Kind = "handle"
)

// Source records the shape the identifier was supplied in
type Source string

const (
	SourceDirect     Source = "direct"
	SourceATURI      Source = "at-uri"
	SourceProfileURL Source = "profile-url"
)

// ProfileURLPrefixes are the profile page prefixes unwrapped by Classify
var ProfileURLPrefixes = []string{
	"https://bsky.app/profile/",
}

const atURIScheme = "at://"

// Identifier is a classified lookup input. AT-URIs and profile URLs are
// already reduced to the DID or handle they carry.
type Identifier struct {
	Kind   Kind
	Source Source
	Raw    string

	// Set when Kind is KindDID
	DID    syntax.DID
	Method identity.Method

	// Set when Kind is KindHandle, normalized to lower case
	Handle syntax.Handle
}

// String returns the DID or handle
func (id Identifier) String() string {
	if id.Kind == KindDID {
		return id.DID.String()
	}
	return id.Handle.String()
}

// ClassifyReason enumerates why an input could not be classified
type ClassifyReason string

const (
	ReasonEmpty          ClassifyReason = "empty"
	ReasonInvalidDID     ClassifyReason = "invalidDID"
	ReasonRecordURI      ClassifyReason = "recordURI"
	ReasonInvalidATURI   ClassifyReason = "invalidATURI"
	ReasonUnsupportedURL ClassifyReason = "unsupportedURL"
	ReasonUnrecognized   ClassifyReason = "unrecognized"
)

// ClassifyError is returned by Classify for unusable input
type ClassifyError struct {
	Input  string
	Reason ClassifyReason
}

func (e *ClassifyError) Error() string {
	return e.Message()
}

// Message is the user-facing explanation for the failure
func (e *ClassifyError) Message() string {
	switch e.Reason {
	case ReasonEmpty:
		return "Please enter a handle."
	case ReasonInvalidDID:
		return fmt.Sprintf("%s is an invalid DID", e.Input)
	case ReasonRecordURI:
		return "Record URIs are not yet supported."
	case ReasonInvalidATURI:
		return "Invalid AT URI."
	case ReasonUnsupportedURL:
		return "That Bluesky URL is not supported."
	default:
		return "Invalid input. Not sure what you're on about."
	}
}

// Classify turns raw user input into an Identifier. The checks run in a
// fixed order: DID, handle, AT-URI, profile URL.
func Classify(raw string) (Identifier, error) {
	input := strings.TrimSpace(raw)
	input = strings.TrimPrefix(input, "@")

	if input == "" {
		return Identifier{}, &ClassifyError{Input: raw, Reason: ReasonEmpty}
	}

	if id, ok, err := classifyBare(input); ok {
		if err != nil {
			return Identifier{}, err
		}
		id.Raw = raw
		id.Source = SourceDirect
		return id, nil
	}

	if strings.HasPrefix(input, atURIScheme) {
		id, err := classifyATURI(input)
		if err != nil {
			return Identifier{}, err
		}
		id.Raw = raw
		return id, nil
	}

	for _, prefix := range ProfileURLPrefixes {
		if strings.HasPrefix(input, prefix) {
			id, err := classifyProfileURL(input, prefix)
			if err != nil {
				return Identifier{}, err
			}
			id.Raw = raw
			return id, nil
		}
	}

	return Identifier{}, &ClassifyError{Input: raw, Reason: ReasonUnrecognized}
}

// classifyBare applies the DID and handle rules. matched is false when s is
// neither DID-shaped nor handle-shaped.
func classifyBare(s string) (id Identifier, matched bool, err error) {
	if strings.HasPrefix(s, "did:") {
		// Only the method is checked here. A malformed method-specific part
		// is left to the document fetch, which reports it as not found.
		parts := strings.SplitN(s, ":", 3)
		if len(parts) < 3 || parts[1] == "" {
			return Identifier{}, true, &ClassifyError{Input: s, Reason: ReasonInvalidDID}
		}
		did := syntax.DID(s)
		return Identifier{
			Kind:   KindDID,
			DID:    did,
			Method: identity.MethodOf(did),
		}, true, nil
	}

	handle, err := syntax.ParseHandle(s)
	if err == nil {
		return Identifier{
			Kind:   KindHandle,
			Handle: handle.Normalize(),
		}, true, nil
	}

	return Identifier{}, false, nil
}

// classifyATURI accepts at://{authority} with no collection or record path
func classifyATURI(s string) (Identifier, error) {
	rest := strings.TrimPrefix(s, atURIScheme)
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}

	authority, path, _ := strings.Cut(rest, "/")
	if strings.Trim(path, "/") != "" {
		return Identifier{}, &ClassifyError{Input: s, Reason: ReasonRecordURI}
	}
	if authority == "" {
		return Identifier{}, &ClassifyError{Input: s, Reason: ReasonInvalidATURI}
	}

	id, ok, err := classifyBare(authority)
	if !ok || err != nil {
		return Identifier{}, &ClassifyError{Input: s, Reason: ReasonInvalidATURI}
	}
	id.Source = SourceATURI
	return id, nil
}

// classifyProfileURL unwraps {prefix}{actor}, tolerating one trailing slash
// and ignoring any query or fragment
func classifyProfileURL(s, prefix string) (Identifier, error) {
	rest := strings.TrimPrefix(s, prefix)
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	segment := strings.TrimSuffix(rest, "/")
	if segment == "" || strings.Contains(segment, "/") {
		return Identifier{}, &ClassifyError{Input: s, Reason: ReasonUnsupportedURL}
	}

	if decoded, err := url.PathUnescape(segment); err == nil {
		segment = decoded
	}

	id, ok, err := classifyBare(segment)
	if !ok {
		return Identifier{}, &ClassifyError{Input: s, Reason: ReasonUnrecognized}
	}
	if err != nil {
		return Identifier{}, err
	}
	id.Source = SourceProfileURL
	return id, nil
}

// ProfileURL returns the canonical profile page for an identifier
func ProfileURL(id Identifier) string {
	return ProfileURLPrefixes[0] + id.String()
}
