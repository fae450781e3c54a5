package script

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/entrhq/pilot/pkg/computer"
	"github.com/entrhq/pilot/pkg/logging"
	"github.com/entrhq/pilot/pkg/security/workspace"
)

// defaultWait applies to wait steps without ms.
const defaultWait = time.Second

// StepResult records one executed step.
type StepResult struct {
	Index    int           `json:"index"`
	Action   Action        `json:"action"`
	Output   string        `json:"output,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report is the outcome of a script run.
type Report struct {
	Script string       `json:"script"`
	Steps  []StepResult `json:"steps"`
	Error  string       `json:"error,omitempty"`
}

// Runner executes scripts against one computer.
type Runner struct {
	computer  computer.Computer
	log       *logging.Logger
	outputDir string
}

// NewRunner creates a runner. Screenshots are saved below outputDir, which
// defaults to the working directory; save paths leading elsewhere are refused.
func NewRunner(c computer.Computer, log *logging.Logger, outputDir string) *Runner {
	if log == nil {
		log = logging.Nop()
	}
	if outputDir == "" {
		outputDir = "."
	}
	return &Runner{computer: c, log: log, outputDir: outputDir}
}

// Run validates s, then executes every step in order and stops at the first
// failure. The report covers the steps that completed.
func (r *Runner) Run(ctx context.Context, s *Script) (*Report, error) {
	report := &Report{Script: s.Name}
	if err := s.Validate(); err != nil {
		err = fmt.Errorf("script %s is invalid: %w", s.Name, err)
		report.Error = err.Error()
		return report, err
	}
	r.log.Infof("Running script %s (%d steps)", s.Name, len(s.Steps))

	for i := range s.Steps {
		if err := ctx.Err(); err != nil {
			report.Error = err.Error()
			return report, err
		}

		step := &s.Steps[i]
		start := time.Now()
		output, err := r.runStep(ctx, step)
		if err != nil {
			err = fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
			r.log.Errorf("Script %s failed: %v", s.Name, err)
			report.Error = err.Error()
			return report, err
		}

		result := StepResult{Index: i + 1, Action: step.Action, Output: output, Duration: time.Since(start)}
		r.log.Debugf("Step %d (%s) done in %s", result.Index, result.Action, result.Duration)
		report.Steps = append(report.Steps, result)
	}

	r.log.Infof("Script %s finished", s.Name)
	return report, nil
}

func (r *Runner) runStep(ctx context.Context, st *Step) (string, error) {
	c := r.computer

	switch st.Action {
	case ActionScreenshot:
		shot, err := c.Screenshot()
		if err != nil {
			return "", err
		}
		if st.Save == "" {
			return fmt.Sprintf("%d bytes of base64 PNG", len(shot)), nil
		}
		return r.saveScreenshot(shot, st.Save)

	case ActionClick:
		button := st.Button
		if button == "" {
			button = computer.ButtonLeft
		}
		return "", c.Click(*st.X, *st.Y, button)

	case ActionDoubleClick:
		return "", c.DoubleClick(*st.X, *st.Y)

	case ActionMove:
		return "", c.Move(*st.X, *st.Y)

	case ActionScroll:
		return "", c.Scroll(*st.X, *st.Y, st.DX, st.DY)

	case ActionType:
		return "", c.Type(st.Text)

	case ActionWait:
		d := defaultWait
		if st.Ms > 0 {
			d = time.Duration(st.Ms) * time.Millisecond
		}
		return "", c.Wait(ctx, d)

	case ActionKeypress:
		return "", c.Keypress(st.Keys)

	case ActionDrag:
		return "", c.Drag(st.Path)

	case ActionGoto:
		c.Goto(st.URL)
		return c.CurrentURL(), nil

	case ActionBack:
		return "", c.Back()

	case ActionForward:
		return "", c.Forward()

	case ActionVisit:
		return c.Visit(ctx, st.URL)

	case ActionOpenTab:
		return c.OpenTab(ctx, st.URL)
	}

	return "", fmt.Errorf("unknown action")
}

func (r *Runner) saveScreenshot(shot, name string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(shot)
	if err != nil {
		return "", fmt.Errorf("failed to decode screenshot: %w", err)
	}

	if err := os.MkdirAll(r.outputDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	guard, err := workspace.NewGuard(r.outputDir)
	if err != nil {
		return "", err
	}
	path, err := guard.Resolve(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to save screenshot: %w", err)
	}

	r.log.Infof("Saved screenshot to %s", path)
	return path, nil
}
