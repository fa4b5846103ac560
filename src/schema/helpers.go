package schema

import (
	jsonschema "github.com/swaggest/jsonschema-go"
)

// String returns a schema for a string field.
func String(description string) *jsonschema.Schema {
	return typed(jsonschema.String, description)
}

// Integer returns a schema for an integer field.
func Integer(description string) *jsonschema.Schema {
	return typed(jsonschema.Integer, description)
}

// Enum returns a schema for a string field restricted to values.
func Enum(description string, values []string) *jsonschema.Schema {
	s := String(description)
	s.Enum = make([]interface{}, len(values))
	for i, v := range values {
		s.Enum[i] = v
	}
	return s
}

// Object returns a schema for an object with the given properties. Extra
// properties are rejected.
func Object(properties map[string]*jsonschema.Schema, required []string) *jsonschema.Schema {
	props := make(map[string]jsonschema.SchemaOrBool, len(properties))
	for name, prop := range properties {
		props[name] = jsonschema.SchemaOrBool{TypeObject: prop}
	}

	s := typed(jsonschema.Object, "")
	s.Properties = props
	s.Required = required
	s.AdditionalProperties = &jsonschema.SchemaOrBool{TypeBoolean: ptr(false)}
	return s
}

func typed(t jsonschema.SimpleType, description string) *jsonschema.Schema {
	s := &jsonschema.Schema{Type: &jsonschema.Type{SimpleTypes: &t}}
	if description != "" {
		s.Description = &description
	}
	return s
}

func ptr[T any](v T) *T { return &v }
