package identity

import (
	"encoding/json"
	"strings"

	"github.com/bluesky-social/indigo/atproto/syntax"
)

// Method is the DID method tag. It alone decides which resolution strategy
// produces a document and whether an audit log can exist.
type Method string

const (
	MethodPLC   Method = "plc"
	MethodWeb   Method = "web"
	MethodOther Method = "other"
)

// PDSServiceType is the service type that identifies a personal data server
// entry in a DID document.
const PDSServiceType = "AtprotoPersonalDataServer"

// MethodOf returns the method tag for a DID
func MethodOf(did syntax.DID) Method {
	switch did.Method() {
	case "plc":
		return MethodPLC
	case "web":
		return MethodWeb
	default:
		return MethodOther
	}
}

// Supported reports whether a resolution strategy exists for the method
func (m Method) Supported() bool {
	return m == MethodPLC || m == MethodWeb
}

// HasHistory reports whether documents of this method come with an audit log.
// Only the PLC directory keeps operation history.
func (m Method) HasHistory() bool {
	return m == MethodPLC
}

// DIDDocument represents an AT Protocol DID document
type DIDDocument struct {
	Context            json.RawMessage      `json:"@context,omitempty"`
	ID                 string               `json:"id"`
	AlsoKnownAs        []string             `json:"alsoKnownAs,omitempty"`
	VerificationMethod []VerificationMethod `json:"verificationMethod,omitempty"`
	Service            []Service            `json:"service,omitempty"`
}

// VerificationMethod is a public key entry in a DID document
type VerificationMethod struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller"`
	PublicKeyMultibase string `json:"publicKeyMultibase,omitempty"`
}

// Service represents a service entry in a DID document
type Service struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint string `json:"serviceEndpoint"`
}

// DeclaredHandle returns the first at:// alias of the document, without the
// scheme. Empty when the document declares none.
func (d *DIDDocument) DeclaredHandle() string {
	for _, aka := range d.AlsoKnownAs {
		if strings.HasPrefix(aka, "at://") {
			return strings.TrimPrefix(aka, "at://")
		}
	}
	return ""
}

// Resolution is the result of fetching a DID: its document, and for methods
// with history, its operation audit log (oldest first).
type Resolution struct {
	Document   *DIDDocument
	AuditLog   []AuditRecord
	HasHistory bool
}
