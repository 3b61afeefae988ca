package tool

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

var reflector = jsonschema.Reflector{
	AllowAdditionalProperties: false,
	DoNotReference:            true,
}

// SchemaFor generates the JSON schema of the struct type T.
//
// Field names come from json tags; fields without omitempty are required.
// Descriptions and enums use jsonschema tags:
//
//	type ReadArgs struct {
//	    Path  string `json:"file_path" jsonschema:"description=File to read"`
//	    Limit int    `json:"limit,omitempty" jsonschema:"description=Maximum lines"`
//	}
func SchemaFor[T any]() (json.RawMessage, error) {
	var v T
	schema := reflector.Reflect(v)
	// The draft URI is noise to model providers.
	schema.Version = ""
	return json.Marshal(schema)
}

// MustSchemaFor is like SchemaFor but panics on error.
func MustSchemaFor[T any]() json.RawMessage {
	s, err := SchemaFor[T]()
	if err != nil {
		panic(err)
	}
	return s
}
