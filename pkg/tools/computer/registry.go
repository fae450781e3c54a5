package computer

import (
	"sort"

	"github.com/entrhq/pilot/pkg/agent/tools"
	"github.com/entrhq/pilot/pkg/computer"
)

// ToolRegistry builds the tool set for one computer and looks tools up by name.
type ToolRegistry struct {
	computer computer.Computer
	tools    []tools.Tool
	byName   map[string]tools.Tool
}

// NewToolRegistry creates a new computer tool registry.
func NewToolRegistry(c computer.Computer) *ToolRegistry {
	return &ToolRegistry{
		computer: c,
		tools:    make([]tools.Tool, 0),
		byName:   make(map[string]tools.Tool),
	}
}

// RegisterTools creates and returns all computer tools. Repeated calls return
// the same tools.
func (r *ToolRegistry) RegisterTools() []tools.Tool {
	if len(r.tools) > 0 {
		return r.tools
	}

	// Screen and pointer
	r.add(
		NewScreenshotTool(r.computer),
		NewClickTool(r.computer),
		NewDoubleClickTool(r.computer),
		NewMoveTool(r.computer),
		NewScrollTool(r.computer),
		NewDragTool(r.computer),
	)

	// Keyboard and timing
	r.add(
		NewTypeTool(r.computer),
		NewKeypressTool(r.computer),
		NewWaitTool(r.computer),
	)

	// Navigation
	r.add(
		NewNavigateTool(r.computer),
		NewBackTool(r.computer),
		NewForwardTool(r.computer),
		NewVisitTool(r.computer),
		NewOpenTabTool(r.computer),
	)

	return r.tools
}

func (r *ToolRegistry) add(ts ...tools.Tool) {
	for _, t := range ts {
		r.tools = append(r.tools, t)
		r.byName[t.Name()] = t
	}
}

// GetTools returns the current set of registered tools.
func (r *ToolRegistry) GetTools() []tools.Tool {
	return r.tools
}

// Get looks a registered tool up by name.
func (r *ToolRegistry) Get(name string) (tools.Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Names returns the registered tool names in sorted order.
func (r *ToolRegistry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
