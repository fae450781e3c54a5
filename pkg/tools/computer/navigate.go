package computer

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/entrhq/pilot/pkg/agent/tools"
	"github.com/entrhq/pilot/pkg/computer"
)

func urlProperties() map[string]interface{} {
	return map[string]interface{}{
		"url": tools.StringProperty("Absolute URL to load (e.g., 'https://example.com')"),
	}
}

// parseURL reads and validates the url argument.
func parseURL(argsXML []byte) (string, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		URL     string   `xml:"url"`
	}
	if err := parse(argsXML, &input); err != nil {
		return "", err
	}

	raw := strings.TrimSpace(input.URL)
	if raw == "" {
		return "", fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return "", fmt.Errorf("invalid url: %s (must be absolute, including the scheme)", raw)
	}
	return raw, nil
}

// NavigateTool loads a URL in the active page without waiting for it.
type NavigateTool struct {
	computer computer.Computer
}

// NewNavigateTool creates a new navigate tool.
func NewNavigateTool(c computer.Computer) *NavigateTool {
	return &NavigateTool{computer: c}
}

// Name returns the tool name.
func (t *NavigateTool) Name() string {
	return "navigate"
}

// Description returns the tool description.
func (t *NavigateTool) Description() string {
	return "Load a URL in the active page. Navigation failures are not reported; take a screenshot to see where the page ended up."
}

// Schema returns the tool's JSON schema.
func (t *NavigateTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(urlProperties(), []string{"url"})
}

// Execute navigates.
func (t *NavigateTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	target, err := parseURL(argsXML)
	if err != nil {
		return "", nil, err
	}
	t.computer.Goto(target)
	return fmt.Sprintf("Navigation to %s requested\nCurrent URL: %s", target, t.computer.CurrentURL()), nil, nil
}

// HistoryTool moves through the active page's history.
type HistoryTool struct {
	computer computer.Computer
	forward  bool
}

// NewBackTool creates the go_back tool.
func NewBackTool(c computer.Computer) *HistoryTool {
	return &HistoryTool{computer: c}
}

// NewForwardTool creates the go_forward tool.
func NewForwardTool(c computer.Computer) *HistoryTool {
	return &HistoryTool{computer: c, forward: true}
}

// Name returns the tool name.
func (t *HistoryTool) Name() string {
	if t.forward {
		return "go_forward"
	}
	return "go_back"
}

// Description returns the tool description.
func (t *HistoryTool) Description() string {
	if t.forward {
		return "Go forward one page in the active tab's history."
	}
	return "Go back one page in the active tab's history."
}

// Schema returns the tool's JSON schema.
func (t *HistoryTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(map[string]interface{}{}, nil)
}

// Execute moves through history.
func (t *HistoryTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	step := t.computer.Back
	if t.forward {
		step = t.computer.Forward
	}
	if err := step(); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Current URL: %s", t.computer.CurrentURL()), nil, nil
}

// VisitTool loads a URL, waits for it to settle and reports the page title.
type VisitTool struct {
	computer computer.Computer
}

// NewVisitTool creates a new navigate_to_url tool.
func NewVisitTool(c computer.Computer) *VisitTool {
	return &VisitTool{computer: c}
}

// Name returns the tool name.
func (t *VisitTool) Name() string {
	return "navigate_to_url"
}

// Description returns the tool description.
func (t *VisitTool) Description() string {
	return "Load a URL in the active page, wait for it to settle and return the page title."
}

// Schema returns the tool's JSON schema.
func (t *VisitTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(urlProperties(), []string{"url"})
}

// Execute visits the URL.
func (t *VisitTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	target, err := parseURL(argsXML)
	if err != nil {
		return "", nil, err
	}
	title, err := t.computer.Visit(ctx, target)
	if err != nil {
		return "", nil, err
	}
	return pageResult("Navigated to", target, title, t.computer.CurrentURL())
}

// OpenTabTool opens a URL in a new tab that becomes the active page.
type OpenTabTool struct {
	computer computer.Computer
}

// NewOpenTabTool creates a new open_in_new_tab tool.
func NewOpenTabTool(c computer.Computer) *OpenTabTool {
	return &OpenTabTool{computer: c}
}

// Name returns the tool name.
func (t *OpenTabTool) Name() string {
	return "open_in_new_tab"
}

// Description returns the tool description.
func (t *OpenTabTool) Description() string {
	return "Open a URL in a new tab, switch to it, wait for it to settle and return the page title. Later actions apply to the new tab."
}

// Schema returns the tool's JSON schema.
func (t *OpenTabTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(urlProperties(), []string{"url"})
}

// Execute opens the tab.
func (t *OpenTabTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	target, err := parseURL(argsXML)
	if err != nil {
		return "", nil, err
	}
	title, err := t.computer.OpenTab(ctx, target)
	if err != nil {
		return "", nil, err
	}
	return pageResult("Opened new tab at", target, title, t.computer.CurrentURL())
}

func pageResult(verb, target, title, current string) (string, map[string]interface{}, error) {
	result := fmt.Sprintf(`%s %s

Page Details:
- Title: %s
- Current URL: %s`, verb, target, title, current)

	return result, map[string]interface{}{"title": title, "url": current}, nil
}
