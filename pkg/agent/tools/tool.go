package tools

import (
	"context"
	"encoding/xml"
)

// Tool is one browser capability. The repl reads calls to it from stdin as
// <tool> elements such as:
//
//	<tool>
//	  <tool_name>computer_click</tool_name>
//	  <arguments><x>120</x><y>48</y><button>left</button></arguments>
//	</tool>
type Tool interface {
	// Name is the value matched against <tool_name>, e.g. "computer_click".
	Name() string
	Description() string
	// Schema is the JSON schema of the tool's arguments, printed by the
	// repl's tools listing.
	Schema() map[string]interface{}
	// Execute runs the tool on an <arguments> document. The metadata map may be nil.
	Execute(ctx context.Context, argumentsXML []byte) (string, map[string]interface{}, error)
}

// ToolCall is one <tool> element read from the repl.
type ToolCall struct {
	XMLName   xml.Name       `xml:"tool"`
	ToolName  string         `xml:"tool_name"`
	Arguments ArgumentsBlock `xml:"arguments"`
}

// ArgumentsBlock keeps the body of <arguments> unparsed until a tool decodes it.
type ArgumentsBlock struct {
	InnerXML []byte `xml:",innerxml"`
}

// ArgumentsXML returns the call's arguments as a standalone <arguments> document.
func (tc *ToolCall) ArgumentsXML() []byte {
	doc := make([]byte, 0, len(tc.Arguments.InnerXML)+len("<arguments></arguments>"))
	doc = append(doc, "<arguments>"...)
	doc = append(doc, tc.Arguments.InnerXML...)
	return append(doc, "</arguments>"...)
}

// BaseToolSchema creates a common JSON schema structure for a tool
// with the given properties and required fields
func BaseToolSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// NumberProperty describes a numeric schema property.
func NumberProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": description,
	}
}

// StringProperty describes a string schema property.
func StringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}
