// Package schema renders JSON schemas for the analyzer's config structs.
package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

// Reflect builds the schema for t with every definition inlined.
func Reflect[T any](t T) *jsonschema.Schema {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true

	return r.Reflect(t)
}

// ToJSONSchema converts a struct to a JSON schema
func ToJSONSchema[T any](t T) (string, error) {
	jsonSchemaBytes, err := json.Marshal(Reflect(t))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to marshal json schema", err)
	}

	return string(jsonSchemaBytes), nil
}

// ToJSONSchemaIndent is ToJSONSchema with two-space indentation.
func ToJSONSchemaIndent[T any](t T) (string, error) {
	jsonSchemaBytes, err := json.MarshalIndent(Reflect(t), "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to marshal json schema", err)
	}

	return string(jsonSchemaBytes), nil
}
