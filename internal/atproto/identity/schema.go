package identity

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const didDocumentSchema = `{
  "type": "object",
  "required": ["id"],
  "properties": {
    "id": {"type": "string", "pattern": "^did:"},
    "alsoKnownAs": {"type": "array", "items": {"type": "string"}},
    "verificationMethod": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type"],
        "properties": {
          "id": {"type": "string"},
          "type": {"type": "string"},
          "controller": {"type": "string"},
          "publicKeyMultibase": {"type": "string"}
        }
      }
    },
    "service": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type", "serviceEndpoint"],
        "properties": {
          "id": {"type": "string"},
          "type": {"type": "string"},
          "serviceEndpoint": {"type": "string"}
        }
      }
    }
  }
}`

const auditLogSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["did", "cid", "createdAt", "operation"],
    "properties": {
      "did": {"type": "string"},
      "cid": {"type": "string", "minLength": 1},
      "createdAt": {"type": "string", "format": "date-time"},
      "nullified": {"type": "boolean"},
      "operation": {
        "type": "object",
        "required": ["type"],
        "properties": {
          "type": {"enum": ["create", "plc_operation", "plc_tombstone"]}
        }
      }
    }
  }
}`

var (
	documentSchema = mustSchema(didDocumentSchema)
	auditSchema    = mustSchema(auditLogSchema)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("identity: invalid embedded schema: %v", err))
	}
	return s
}

// validateShape checks a raw upstream body against a schema before it is
// decoded, so a structurally wrong answer is rejected as a whole.
func validateShape(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("failed to validate response: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return fmt.Errorf("malformed response: %s", strings.Join(errorMessages, "; "))
	}

	return nil
}
