package tools

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// maxCallText caps how much repl input is scanned for tool calls at once.
const maxCallText = 10 << 20

var (
	callPattern = regexp.MustCompile(`(?s)<tool>.*?</tool>`)

	// entityPrefix matches an XML entity reference at the start of its input.
	entityPrefix = regexp.MustCompile(`^&(?:amp|lt|gt|quot|apos|#[0-9]+|#x[0-9a-fA-F]+);`)
)

// ParseToolCalls returns the tool calls in text in the order they appear.
// It stops at the first call that fails to parse or validate and returns the
// calls before it along with the error. Text outside <tool> elements is ignored.
func ParseToolCalls(text string) ([]*ToolCall, error) {
	if len(text) > maxCallText {
		return nil, fmt.Errorf("tool call input exceeds %d bytes", maxCallText)
	}

	var calls []*ToolCall
	for _, raw := range callPattern.FindAllString(text, -1) {
		call, err := decodeCall(raw)
		if err != nil {
			return calls, err
		}
		calls = append(calls, call)
	}
	return calls, nil
}

// ParseToolCall returns the first tool call in text and the text that
// surrounds it.
func ParseToolCall(text string) (*ToolCall, string, error) {
	if len(text) > maxCallText {
		return nil, text, fmt.Errorf("tool call input exceeds %d bytes", maxCallText)
	}

	span := callPattern.FindStringIndex(text)
	if span == nil {
		return nil, text, errors.New("no tool call found")
	}
	call, err := decodeCall(text[span[0]:span[1]])
	if err != nil {
		return nil, text, err
	}
	return call, strings.TrimSpace(text[:span[0]] + text[span[1]:]), nil
}

func decodeCall(raw string) (*ToolCall, error) {
	call := &ToolCall{}
	if err := UnmarshalLenient([]byte(raw), call); err != nil {
		return nil, fmt.Errorf("malformed tool call %q: %w", abbreviate(raw, 120), err)
	}
	call.ToolName = strings.TrimSpace(call.ToolName)
	if err := ValidateToolCall(call); err != nil {
		return nil, err
	}
	return call, nil
}

// ValidateToolCall checks that call names a tool and that its arguments are
// well-formed XML.
func ValidateToolCall(call *ToolCall) error {
	if call == nil {
		return errors.New("tool call is nil")
	}
	if strings.TrimSpace(call.ToolName) == "" {
		return errors.New("tool_name is required")
	}
	if _, err := call.ArgumentFields(); err != nil {
		return fmt.Errorf("arguments for %s are not well-formed: %w", call.ToolName, err)
	}
	return nil
}

// UnmarshalLenient unmarshals data into v. If that fails it retries once with
// bare ampersands escaped, since typed URLs often carry an unescaped &.
func UnmarshalLenient(data []byte, v interface{}) error {
	err := xml.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if bytes.IndexByte(data, '&') < 0 {
		return err
	}
	return xml.Unmarshal(escapeBareAmpersands(data), v)
}

// escapeBareAmpersands rewrites every & that does not start an entity reference.
func escapeBareAmpersands(data []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(data) + 16)
	for i, c := range data {
		if c == '&' && !entityPrefix.Match(data[i:]) {
			buf.WriteString("&amp;")
			continue
		}
		buf.WriteByte(c)
	}
	return buf.Bytes()
}

// ArgumentFields returns the trimmed text of each direct child of the
// arguments element. Empty and nested elements are left out.
func (tc *ToolCall) ArgumentFields() (map[string]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(tc.ArgumentsXML()))
	fields := make(map[string]string)
	var text strings.Builder
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return fields, nil
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 2 {
				text.Reset()
			}
		case xml.CharData:
			if depth == 2 {
				text.Write(t)
			}
		case xml.EndElement:
			if depth == 2 {
				if v := strings.TrimSpace(text.String()); v != "" {
					fields[t.Name.Local] = v
				}
			}
			depth--
		}
	}
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
