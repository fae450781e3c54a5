package computer

import (
	"context"
	"encoding/xml"

	"github.com/entrhq/pilot/pkg/agent/tools"
	"github.com/entrhq/pilot/pkg/computer"
)

// ScreenshotTool captures the visible viewport.
type ScreenshotTool struct {
	computer computer.Computer
}

// NewScreenshotTool creates a new screenshot tool.
func NewScreenshotTool(c computer.Computer) *ScreenshotTool {
	return &ScreenshotTool{computer: c}
}

// Name returns the tool name.
func (t *ScreenshotTool) Name() string {
	return "computer_screenshot"
}

// Description returns the tool description.
func (t *ScreenshotTool) Description() string {
	return "Capture the visible part of the active page as a base64-encoded PNG. " + screenNote(t.computer)
}

// Schema returns the tool's JSON schema.
func (t *ScreenshotTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(map[string]interface{}{}, nil)
}

// Execute takes the screenshot. The image is the whole result text.
func (t *ScreenshotTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	if len(argsXML) > 0 {
		var input struct {
			XMLName xml.Name `xml:"arguments"`
		}
		if err := parse(argsXML, &input); err != nil {
			return "", nil, err
		}
	}

	shot, err := t.computer.Screenshot()
	if err != nil {
		return "", nil, err
	}

	v := t.computer.Dimensions()
	return shot, map[string]interface{}{
		"mime_type": "image/png",
		"encoding":  "base64",
		"width":     v.Width,
		"height":    v.Height,
	}, nil
}
