package identity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
)

// OperationType tags the variant of a PLC operation
type OperationType string

const (
	OpCreate    OperationType = "create"
	OpUpdate    OperationType = "plc_operation"
	OpTombstone OperationType = "plc_tombstone"
)

// Operation is one of *CreateOperation, *UpdateOperation or *TombstoneOperation.
type Operation interface {
	Type() OperationType
	// Prev returns the CID of the operation this one follows, empty for the
	// genesis operation.
	Prev() string
}

// CreateOperation is the legacy genesis operation format
type CreateOperation struct {
	OpType      OperationType `json:"type"`
	SigningKey  string        `json:"signingKey"`
	RecoveryKey string        `json:"recoveryKey"`
	Handle      string        `json:"handle"`
	Service     string        `json:"service"`
	PrevCID     *string       `json:"prev"`
	Sig         string        `json:"sig"`
}

func (o *CreateOperation) Type() OperationType { return OpCreate }

func (o *CreateOperation) Prev() string {
	if o.PrevCID == nil {
		return ""
	}
	return *o.PrevCID
}

// UpdateOperation is a regular plc_operation, which may also be a genesis
// operation when PrevCID is nil.
type UpdateOperation struct {
	OpType              OperationType               `json:"type"`
	RotationKeys        []string                    `json:"rotationKeys"`
	VerificationMethods map[string]string           `json:"verificationMethods"`
	AlsoKnownAs         []string                    `json:"alsoKnownAs"`
	Services            map[string]OperationService `json:"services"`
	PrevCID             *string                     `json:"prev"`
	Sig                 string                      `json:"sig"`
}

// OperationService is a service entry inside a plc_operation
type OperationService struct {
	Type     string `json:"type"`
	Endpoint string `json:"endpoint"`
}

func (o *UpdateOperation) Type() OperationType { return OpUpdate }

func (o *UpdateOperation) Prev() string {
	if o.PrevCID == nil {
		return ""
	}
	return *o.PrevCID
}

// TombstoneOperation deactivates a DID
type TombstoneOperation struct {
	OpType  OperationType `json:"type"`
	PrevCID string        `json:"prev"`
	Sig     string        `json:"sig"`
}

func (o *TombstoneOperation) Type() OperationType { return OpTombstone }

func (o *TombstoneOperation) Prev() string { return o.PrevCID }

// AuditRecord is one entry of a DID's PLC audit log
type AuditRecord struct {
	DID       string    `json:"did"`
	CID       string    `json:"cid"`
	CreatedAt time.Time `json:"createdAt"`
	Nullified bool      `json:"nullified"`
	Operation Operation `json:"operation"`
}

// UnmarshalJSON decodes the operation into its concrete variant based on the
// "type" field.
func (r *AuditRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		DID       string          `json:"did"`
		CID       string          `json:"cid"`
		CreatedAt time.Time       `json:"createdAt"`
		Nullified bool            `json:"nullified"`
		Operation json.RawMessage `json:"operation"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	op, err := decodeOperation(raw.Operation)
	if err != nil {
		return fmt.Errorf("audit record %s: %w", raw.CID, err)
	}

	r.DID = raw.DID
	r.CID = raw.CID
	r.CreatedAt = raw.CreatedAt
	r.Nullified = raw.Nullified
	r.Operation = op
	return nil
}

func decodeOperation(data json.RawMessage) (Operation, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("missing operation")
	}

	var head struct {
		Type OperationType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("invalid operation: %w", err)
	}

	var op Operation
	switch head.Type {
	case OpCreate:
		op = &CreateOperation{}
	case OpUpdate:
		op = &UpdateOperation{}
	case OpTombstone:
		op = &TombstoneOperation{}
	default:
		return nil, fmt.Errorf("unknown operation type %q", head.Type)
	}

	if err := json.Unmarshal(data, op); err != nil {
		return nil, fmt.Errorf("invalid %s operation: %w", head.Type, err)
	}
	return op, nil
}

// Summary returns a one-line description of what the operation did
func (r AuditRecord) Summary() string {
	switch op := r.Operation.(type) {
	case *CreateOperation:
		return "Created - " + op.Handle
	case *UpdateOperation:
		aliases := make([]string, 0, len(op.AlsoKnownAs))
		for _, aka := range op.AlsoKnownAs {
			aliases = append(aliases, strings.TrimPrefix(aka, "at://"))
		}
		if len(aliases) == 0 {
			return "Updated"
		}
		return strings.Join(aliases, ", ")
	case *TombstoneOperation:
		return "Deleted"
	default:
		return ""
	}
}

// FirstSeen returns the timestamp of the oldest audit entry
func FirstSeen(log []AuditRecord) (time.Time, bool) {
	if len(log) == 0 {
		return time.Time{}, false
	}
	return log[0].CreatedAt, true
}

// validateAuditLog checks the invariants the rest of the system relies on:
// every entry belongs to did, carries a parseable CID unique within the log,
// and has a decoded operation.
func validateAuditLog(did string, log []AuditRecord) error {
	seen := make(map[string]struct{}, len(log))
	for i, rec := range log {
		if rec.DID != "" && rec.DID != did {
			return fmt.Errorf("audit entry %d belongs to %s", i, rec.DID)
		}
		if _, err := cid.Decode(rec.CID); err != nil {
			return fmt.Errorf("audit entry %d has invalid cid %q: %w", i, rec.CID, err)
		}
		if _, dup := seen[rec.CID]; dup {
			return fmt.Errorf("audit entry %d repeats cid %s", i, rec.CID)
		}
		seen[rec.CID] = struct{}{}
		if rec.Operation == nil {
			return fmt.Errorf("audit entry %d has no operation", i)
		}
	}
	return nil
}
