package computer

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/entrhq/pilot/pkg/agent/tools"
	"github.com/entrhq/pilot/pkg/computer"
)

// TypeTool types text into the focused element.
type TypeTool struct {
	computer computer.Computer
}

// NewTypeTool creates a new type tool.
func NewTypeTool(c computer.Computer) *TypeTool {
	return &TypeTool{computer: c}
}

// Name returns the tool name.
func (t *TypeTool) Name() string {
	return "computer_type"
}

// Description returns the tool description.
func (t *TypeTool) Description() string {
	return "Type text into the focused element, one key at a time. Click the target field first."
}

// Schema returns the tool's JSON schema.
func (t *TypeTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"text": tools.StringProperty("Text to type. Wrap in CDATA when it contains markup characters"),
		},
		[]string{"text"},
	)
}

// Execute types the text.
func (t *TypeTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		Text    string   `xml:"text"`
	}
	if err := parse(argsXML, &input); err != nil {
		return "", nil, err
	}
	if input.Text == "" {
		return "", nil, fmt.Errorf("text is required")
	}

	if err := t.computer.Type(input.Text); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Typed %d characters", len([]rune(input.Text))), nil, nil
}

// KeypressTool presses a key chord.
type KeypressTool struct {
	computer computer.Computer
}

// NewKeypressTool creates a new keypress tool.
func NewKeypressTool(c computer.Computer) *KeypressTool {
	return &KeypressTool{computer: c}
}

// Name returns the tool name.
func (t *KeypressTool) Name() string {
	return "computer_keypress"
}

// Description returns the tool description.
func (t *KeypressTool) Description() string {
	return "Press keys as a chord: every key goes down in order, then all are released in reverse. " +
		"Common names such as 'ctrl', 'enter', 'esc' and 'arrowleft' are understood case-insensitively."
}

// Schema returns the tool's JSON schema.
func (t *KeypressTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"keys": map[string]interface{}{
				"type":        "array",
				"description": "Key names, each written as <key>..</key> (e.g., <key>ctrl</key><key>a</key>)",
				"items":       map[string]interface{}{"type": "string"},
			},
		},
		[]string{"keys"},
	)
}

// Execute presses the chord.
func (t *KeypressTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		Keys    []string `xml:"keys>key"`
	}
	if err := parse(argsXML, &input); err != nil {
		return "", nil, err
	}

	keys := make([]string, 0, len(input.Keys))
	for _, k := range input.Keys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "", nil, fmt.Errorf("at least one key is required")
	}

	if err := t.computer.Keypress(keys); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Pressed %s", strings.Join(computer.MapKeys(keys), "+")), nil, nil
}
