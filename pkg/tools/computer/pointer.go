package computer

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/entrhq/pilot/pkg/agent/tools"
	"github.com/entrhq/pilot/pkg/computer"
)

// MoveTool moves the pointer without clicking.
type MoveTool struct {
	computer computer.Computer
}

// NewMoveTool creates a new move tool.
func NewMoveTool(c computer.Computer) *MoveTool {
	return &MoveTool{computer: c}
}

// Name returns the tool name.
func (t *MoveTool) Name() string {
	return "computer_move"
}

// Description returns the tool description.
func (t *MoveTool) Description() string {
	return "Move the mouse pointer to a viewport coordinate, for example to reveal hover menus. " + screenNote(t.computer)
}

// Schema returns the tool's JSON schema.
func (t *MoveTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(coordinateProperties(), []string{"x", "y"})
}

// Execute moves the pointer.
func (t *MoveTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
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
	if err := t.computer.Move(p.X, p.Y); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Moved pointer to (%d, %d)", p.X, p.Y), nil, nil
}

// ScrollTool scrolls the page under a viewport coordinate.
type ScrollTool struct {
	computer computer.Computer
}

// NewScrollTool creates a new scroll tool.
func NewScrollTool(c computer.Computer) *ScrollTool {
	return &ScrollTool{computer: c}
}

// Name returns the tool name.
func (t *ScrollTool) Name() string {
	return "computer_scroll"
}

// Description returns the tool description.
func (t *ScrollTool) Description() string {
	return "Move the pointer to a viewport coordinate and scroll by the given pixel deltas. Positive scroll_y scrolls down, positive scroll_x scrolls right. " +
		screenNote(t.computer)
}

// Schema returns the tool's JSON schema.
func (t *ScrollTool) Schema() map[string]interface{} {
	props := coordinateProperties()
	props["scroll_x"] = tools.NumberProperty("Horizontal scroll distance in pixels (default 0)")
	props["scroll_y"] = tools.NumberProperty("Vertical scroll distance in pixels (default 0)")
	return tools.BaseToolSchema(props, []string{"x", "y"})
}

// Execute scrolls.
func (t *ScrollTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		X       *int     `xml:"x"`
		Y       *int     `xml:"y"`
		ScrollX int      `xml:"scroll_x"`
		ScrollY int      `xml:"scroll_y"`
	}
	if err := parse(argsXML, &input); err != nil {
		return "", nil, err
	}

	p, err := requirePoint(input.X, input.Y)
	if err != nil {
		return "", nil, err
	}
	if err := t.computer.Scroll(p.X, p.Y, input.ScrollX, input.ScrollY); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Scrolled by (%d, %d) at (%d, %d)", input.ScrollX, input.ScrollY, p.X, p.Y), nil, nil
}

// DragTool drags the pointer along a path with the left button held.
type DragTool struct {
	computer computer.Computer
}

// NewDragTool creates a new drag tool.
func NewDragTool(c computer.Computer) *DragTool {
	return &DragTool{computer: c}
}

// Name returns the tool name.
func (t *DragTool) Name() string {
	return "computer_drag"
}

// Description returns the tool description.
func (t *DragTool) Description() string {
	return "Press the left button at the first point of a path, move through the remaining points and release at the last one. " +
		screenNote(t.computer)
}

// Schema returns the tool's JSON schema.
func (t *DragTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "array",
				"description": "Ordered points, each written as <point><x>..</x><y>..</y></point>",
				"items": tools.BaseToolSchema(coordinateProperties(), []string{"x", "y"}),
			},
		},
		[]string{"path"},
	)
}

// Execute performs the drag. An empty path does nothing.
func (t *DragTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		Points  []struct {
			X *int `xml:"x"`
			Y *int `xml:"y"`
		} `xml:"path>point"`
	}
	if err := parse(argsXML, &input); err != nil {
		return "", nil, err
	}

	path := make([]computer.Point, 0, len(input.Points))
	for i, raw := range input.Points {
		p, err := requirePoint(raw.X, raw.Y)
		if err != nil {
			return "", nil, fmt.Errorf("point %d: %w", i, err)
		}
		path = append(path, p)
	}

	if err := t.computer.Drag(path); err != nil {
		return "", nil, err
	}
	if len(path) == 0 {
		return "Empty path, nothing dragged", nil, nil
	}

	last := path[len(path)-1]
	return fmt.Sprintf("Dragged from (%d, %d) to (%d, %d) through %d points", path[0].X, path[0].Y, last.X, last.Y, len(path)),
		map[string]interface{}{"points": len(path)}, nil
}
