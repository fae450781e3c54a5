package computer

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/entrhq/pilot/pkg/agent/tools"
	"github.com/entrhq/pilot/pkg/computer"
)

// ClickTool clicks at a viewport coordinate.
type ClickTool struct {
	computer computer.Computer
}

// NewClickTool creates a new click tool.
func NewClickTool(c computer.Computer) *ClickTool {
	return &ClickTool{computer: c}
}

// Name returns the tool name.
func (t *ClickTool) Name() string {
	return "computer_click"
}

// Description returns the tool description.
func (t *ClickTool) Description() string {
	return "Click at a viewport coordinate. The 'back' and 'forward' buttons navigate history instead of clicking; 'wheel' scrolls down at the point. " +
		screenNote(t.computer)
}

// Schema returns the tool's JSON schema.
func (t *ClickTool) Schema() map[string]interface{} {
	props := coordinateProperties()
	props["button"] = tools.StringProperty("Mouse button: 'left' (default), 'right', 'middle', 'back', 'forward' or 'wheel'. Other names click with the left button.")
	return tools.BaseToolSchema(props, []string{"x", "y"})
}

// Execute performs the click.
func (t *ClickTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		X       *int     `xml:"x"`
		Y       *int     `xml:"y"`
		Button  string   `xml:"button"`
	}
	if err := parse(argsXML, &input); err != nil {
		return "", nil, err
	}

	p, err := requirePoint(input.X, input.Y)
	if err != nil {
		return "", nil, err
	}

	button := computer.Button(strings.ToLower(strings.TrimSpace(input.Button)))
	if button == "" {
		button = computer.ButtonLeft
	}

	if err := t.computer.Click(p.X, p.Y, button); err != nil {
		return "", nil, err
	}

	return fmt.Sprintf("Clicked %s button at (%d, %d)\nCurrent URL: %s", button, p.X, p.Y, t.computer.CurrentURL()),
		map[string]interface{}{"x": p.X, "y": p.Y, "button": string(button)}, nil
}

// DoubleClickTool double-clicks at a viewport coordinate.
type DoubleClickTool struct {
	computer computer.Computer
}

// NewDoubleClickTool creates a new double-click tool.
func NewDoubleClickTool(c computer.Computer) *DoubleClickTool {
	return &DoubleClickTool{computer: c}
}

// Name returns the tool name.
func (t *DoubleClickTool) Name() string {
	return "computer_double_click"
}

// Description returns the tool description.
func (t *DoubleClickTool) Description() string {
	return "Double-click with the left button at a viewport coordinate. " + screenNote(t.computer)
}

// Schema returns the tool's JSON schema.
func (t *DoubleClickTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(coordinateProperties(), []string{"x", "y"})
}

// Execute performs the double click.
func (t *DoubleClickTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		X       *int     `xml:"x"`
		Y       *int     `xml:"y"`
	}
	if err := parse(argsXML, &input); err != nil {
		return "", nil, err
	}

	p, err := requirePoint(input.X, input.Y)
	if err != nil {
		return "", nil, err
	}
	if err := t.computer.DoubleClick(p.X, p.Y); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Double-clicked at (%d, %d)", p.X, p.Y), nil, nil
}
