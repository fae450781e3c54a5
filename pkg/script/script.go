// Package script replays YAML action scripts against a computer.
//
// A script is a named list of steps, each naming one action of the computer
// surface:
//
//	name: search
//	steps:
//	  - action: visit
//	    url: https://duckduckgo.com
//	  - action: click
//	    x: 512
//	    y: 300
//	  - action: type
//	    text: playwright
//	  - action: keypress
//	    keys: [enter]
//	  - action: screenshot
//	    save: results.png
package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/pilot/pkg/computer"
)

// Action names a step kind.
type Action string

const (
	ActionScreenshot  Action = "screenshot"
	ActionClick       Action = "click"
	ActionDoubleClick Action = "double_click"
	ActionMove        Action = "move"
	ActionScroll      Action = "scroll"
	ActionType        Action = "type"
	ActionWait        Action = "wait"
	ActionKeypress    Action = "keypress"
	ActionDrag        Action = "drag"
	ActionGoto        Action = "goto"
	ActionBack        Action = "back"
	ActionForward     Action = "forward"
	ActionVisit       Action = "visit"
	ActionOpenTab     Action = "open_tab"
)

// Script is the YAML structure of an action script.
type Script struct {
	// Name identifies the script in logs and reports
	Name string `yaml:"name"`

	// Description is free text
	Description string `yaml:"description,omitempty"`

	// SourcePath is the file the script was loaded from (set by Load)
	SourcePath string `yaml:"-"`

	// Steps run in order; the first failing step stops the script
	Steps []Step `yaml:"steps"`
}

// Step is one action. Only the fields its action uses may be set.
type Step struct {
	Action Action           `yaml:"action"`
	X      *int             `yaml:"x,omitempty"`
	Y      *int             `yaml:"y,omitempty"`
	Button computer.Button  `yaml:"button,omitempty"`
	Text   string           `yaml:"text,omitempty"`
	Keys   []string         `yaml:"keys,omitempty"`
	Path   []computer.Point `yaml:"path,omitempty"`
	URL    string           `yaml:"url,omitempty"`
	Ms     int              `yaml:"ms,omitempty"`
	DX     int              `yaml:"dx,omitempty"`
	DY     int              `yaml:"dy,omitempty"`
	Save   string           `yaml:"save,omitempty"`
}

// Load reads and validates a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.SourcePath = path
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}

// Parse decodes and validates a script. Unknown fields are rejected.
func Parse(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("script is empty")
		}
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every step for the fields its action needs.
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("script has no steps")
	}
	for i := range s.Steps {
		if err := s.Steps[i].validate(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, s.Steps[i].Action, err)
		}
	}
	return nil
}

func (st *Step) validate() error {
	switch st.Action {
	case ActionClick, ActionDoubleClick, ActionMove, ActionScroll:
		if st.X == nil || st.Y == nil {
			return fmt.Errorf("x and y are required")
		}
	case ActionType:
		if st.Text == "" {
			return fmt.Errorf("text is required")
		}
	case ActionKeypress:
		if len(st.Keys) == 0 {
			return fmt.Errorf("keys are required")
		}
	case ActionWait:
		if st.Ms < 0 {
			return fmt.Errorf("ms must not be negative")
		}
	case ActionGoto, ActionVisit, ActionOpenTab:
		if strings.TrimSpace(st.URL) == "" {
			return fmt.Errorf("url is required")
		}
	case ActionScreenshot, ActionDrag, ActionBack, ActionForward:
	case "":
		return fmt.Errorf("action is required")
	default:
		return fmt.Errorf("unknown action")
	}

	if st.Save != "" && st.Action != ActionScreenshot {
		return fmt.Errorf("save is only valid for screenshot")
	}
	return nil
}
