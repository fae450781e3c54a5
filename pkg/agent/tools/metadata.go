package tools

import (
	"context"
	"fmt"
)

// ToolResult is the outcome of one tool invocation, shaped for JSON output.
type ToolResult struct {
	Tool     string                 `json:"tool"`
	Output   string                 `json:"output,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// OK reports whether the invocation succeeded.
func (r *ToolResult) OK() bool {
	return r.Error == ""
}

// Lookup resolves a tool by name.
type Lookup interface {
	Get(name string) (Tool, bool)
}

// Invoke resolves call against tools and executes it. Failures are reported
// in the result rather than returned, so a caller can keep going after a bad call.
func Invoke(ctx context.Context, tools Lookup, call *ToolCall) *ToolResult {
	if err := ValidateToolCall(call); err != nil {
		return &ToolResult{Error: err.Error()}
	}

	result := &ToolResult{Tool: call.ToolName}
	tool, ok := tools.Get(call.ToolName)
	if !ok {
		result.Error = fmt.Sprintf("unknown tool '%s'", call.ToolName)
		return result
	}

	output, metadata, err := tool.Execute(ctx, call.ArgumentsXML())
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Output = output
	result.Metadata = metadata
	return result
}
