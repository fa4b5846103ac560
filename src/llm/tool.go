package llm

import (
	"github.com/elee1766/interpreter/src/aisdk"
	"github.com/elee1766/interpreter/src/schema"
	jsonschema "github.com/swaggest/jsonschema-go"
)

// ExecuteToolName is the function the model calls to run code.
const ExecuteToolName = "execute"

type executeArgs struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// ExecuteTool describes the execute function for the given languages.
func ExecuteTool(languages []string) *aisdk.ChatTool {
	language := schema.String("The programming language")
	if len(languages) > 0 {
		language = schema.Enum("The programming language", languages)
	}
	params := schema.Object(map[string]*jsonschema.Schema{
		"language": language,
		"code":     schema.String("The code to execute"),
	}, []string{"language", "code"})

	return aisdk.NewFunctionTool(ExecuteToolName,
		"Executes code on the user's machine and returns the output", params)
}
