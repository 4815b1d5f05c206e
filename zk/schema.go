package zk

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// proofSchema is the structural shape every submission must satisfy before
// cryptographic verification is attempted.
const proofSchema = `{
	"type": "object",
	"required": ["pi_a", "pi_b", "pi_c"],
	"properties": {
		"pi_a": {
			"type": "array",
			"minItems": 2,
			"items": {"type": "string"}
		},
		"pi_b": {
			"type": "array",
			"minItems": 2,
			"items": {
				"type": "array",
				"minItems": 2,
				"items": {"type": "string"}
			}
		},
		"pi_c": {
			"type": "array",
			"minItems": 2,
			"items": {"type": "string"}
		}
	}
}`

var proofSchemaLoader = gojsonschema.NewStringLoader(proofSchema)

// CheckProofSchema validates the raw proof object against the expected
// groth16 shape. It returns a single error naming every violated field.
func CheckProofSchema(raw map[string]interface{}) error {
	result, err := gojsonschema.Validate(proofSchemaLoader, gojsonschema.NewGoLoader(raw))
	if err != nil {
		return fmt.Errorf("failed to run schema validation: %v", err)
	}
	if result.Valid() {
		return nil
	}

	var fields []string
	for _, desc := range result.Errors() {
		fields = append(fields, desc.String())
	}
	return fmt.Errorf("invalid proof schema: %s", strings.Join(fields, "; "))
}
