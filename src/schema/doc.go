// Package schema builds the JSON Schema documents sent with tool
// definitions.
//
//	params := schema.Object(map[string]*jsonschema.Schema{
//		"language": schema.Enum("The programming language", []string{"python", "shell"}),
//		"code":     schema.String("The code to execute"),
//	}, []string{"language", "code"})
package schema
