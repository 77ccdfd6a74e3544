package lookup

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"Internect/internal/atproto/identity"
)

// SharedHostSuffix marks PDS hosts run by the network's shared infrastructure
const SharedHostSuffix = "host.bsky.network"

// PDSReference is the personal data server a DID document points at
type PDSReference struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint string `json:"serviceEndpoint"`
	IsSharedHost    bool   `json:"isSharedHost"`
	Label           string `json:"label"`
}

// ExtractPDS returns the last AtprotoPersonalDataServer service in doc, or
// nil when there is none.
func ExtractPDS(doc *identity.DIDDocument) *PDSReference {
	if doc == nil {
		return nil
	}

	var match *identity.Service
	for i := range doc.Service {
		if doc.Service[i].Type == identity.PDSServiceType {
			match = &doc.Service[i]
		}
	}
	if match == nil {
		return nil
	}

	ref := &PDSReference{
		ID:              match.ID,
		Type:            match.Type,
		ServiceEndpoint: match.ServiceEndpoint,
		Label:           match.ServiceEndpoint,
	}

	if u, err := url.Parse(match.ServiceEndpoint); err == nil {
		host := u.Hostname()
		if strings.HasSuffix(host, SharedHostSuffix) {
			first, _, _ := strings.Cut(host, ".")
			ref.IsSharedHost = true
			ref.Label = capitalize(first)
		}
	}

	return ref
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
