package validate

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Schema wraps a compiled JSON Schema for one tool's arguments. Schemas are
// compiled once at registry construction, so a malformed schema fails at
// startup rather than on the first call.
type Schema struct {
	compiled *gojsonschema.Schema
}

func Compile(raw []byte) (*Schema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return &Schema{compiled: schema}, nil
}

// MustCompile is Compile for schemas fixed at build time.
func MustCompile(raw []byte) *Schema {
	schema, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return schema
}

// ArgumentError reports the first schema violation found in a set of tool
// arguments.
type ArgumentError struct {
	Field  string
	Detail string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Detail)
}

// Check validates raw tool arguments against the schema. It returns nil when
// the arguments conform, and an *ArgumentError naming the first violated
// field otherwise.
func (s *Schema) Check(arguments []byte) error {
	result, err := s.compiled.Validate(gojsonschema.NewBytesLoader(arguments))
	if err != nil {
		return fmt.Errorf("validating arguments: %w", err)
	}
	if result.Valid() {
		return nil
	}
	first := result.Errors()[0]
	return &ArgumentError{Field: fieldOf(first), Detail: first.Description()}
}

// fieldOf prefers the offending property name over the context path, so a
// missing required field reports "location" rather than "(root)".
func fieldOf(err gojsonschema.ResultError) string {
	if prop, ok := err.Details()["property"].(string); ok {
		return prop
	}
	return err.Field()
}
