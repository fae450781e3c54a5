package computer

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/entrhq/pilot/pkg/agent/tools"
	"github.com/entrhq/pilot/pkg/computer"
)

const (
	defaultWaitMs = 1000
	maxWaitMs     = 60000
)

// WaitTool pauses before the next action.
type WaitTool struct {
	computer computer.Computer
}

// NewWaitTool creates a new wait tool.
func NewWaitTool(c computer.Computer) *WaitTool {
	return &WaitTool{computer: c}
}

// Name returns the tool name.
func (t *WaitTool) Name() string {
	return "computer_wait"
}

// Description returns the tool description.
func (t *WaitTool) Description() string {
	return "Wait for the page to change, for example after a click starts loading something."
}

// Schema returns the tool's JSON schema.
func (t *WaitTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"ms": map[string]interface{}{
				"type":        "integer",
				"description": fmt.Sprintf("Milliseconds to wait (default %d, max %d)", defaultWaitMs, maxWaitMs),
			},
		},
		nil,
	)
}

// Execute waits.
func (t *WaitTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		Ms      *int     `xml:"ms"`
	}
	if err := parse(argsXML, &input); err != nil {
		return "", nil, err
	}

	ms := defaultWaitMs
	if input.Ms != nil {
		ms = *input.Ms
	}
	if ms < 0 || ms > maxWaitMs {
		return "", nil, fmt.Errorf("ms must be between 0 and %d", maxWaitMs)
	}

	if err := t.computer.Wait(ctx, time.Duration(ms)*time.Millisecond); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Waited %dms", ms), nil, nil
}
