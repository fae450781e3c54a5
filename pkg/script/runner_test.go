package script

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/entrhq/pilot/pkg/computer"
	"github.com/entrhq/pilot/pkg/logging"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

type fakeComputer struct {
	calls  []string
	failOn string
	shot   string
}

func (f *fakeComputer) record(name, format string, args ...interface{}) error {
	f.calls = append(f.calls, name+" "+fmt.Sprintf(format, args...))
	if name == f.failOn {
		return errors.New(name + " failed")
	}
	return nil
}

func (f *fakeComputer) Screenshot() (string, error) {
	if err := f.record("screenshot", ""); err != nil {
		return "", err
	}
	if f.shot != "" {
		return f.shot, nil
	}
	return base64.StdEncoding.EncodeToString(pngBytes), nil
}

func (f *fakeComputer) Click(x, y int, b computer.Button) error {
	return f.record("click", "%d,%d,%s", x, y, b)
}
func (f *fakeComputer) DoubleClick(x, y int) error { return f.record("double_click", "%d,%d", x, y) }
func (f *fakeComputer) Move(x, y int) error        { return f.record("move", "%d,%d", x, y) }
func (f *fakeComputer) Scroll(x, y, dx, dy int) error {
	return f.record("scroll", "%d,%d,%d,%d", x, y, dx, dy)
}
func (f *fakeComputer) Type(text string) error { return f.record("type", "%s", text) }
func (f *fakeComputer) Wait(ctx context.Context, d time.Duration) error {
	return f.record("wait", "%s", d)
}
func (f *fakeComputer) Keypress(keys []string) error   { return f.record("keypress", "%v", keys) }
func (f *fakeComputer) Drag(path []computer.Point) error { return f.record("drag", "%v", path) }
func (f *fakeComputer) Goto(url string)                 { _ = f.record("goto", "%s", url) }
func (f *fakeComputer) Back() error                     { return f.record("back", "") }
func (f *fakeComputer) Forward() error                  { return f.record("forward", "") }
func (f *fakeComputer) Visit(ctx context.Context, url string) (string, error) {
	return "Title of " + url, f.record("visit", "%s", url)
}
func (f *fakeComputer) OpenTab(ctx context.Context, url string) (string, error) {
	return "Tab " + url, f.record("open_tab", "%s", url)
}
func (f *fakeComputer) CurrentURL() string            { return "https://current.test/" }
func (f *fakeComputer) Dimensions() computer.Viewport { return computer.DefaultViewport() }

func intp(v int) *int { return &v }

func TestRunner_Run(t *testing.T) {
	fake := &fakeComputer{}
	dir := t.TempDir()
	runner := NewRunner(fake, nil, dir)

	s := &Script{Name: "all", Steps: []Step{
		{Action: ActionVisit, URL: "https://a.test"},
		{Action: ActionClick, X: intp(1), Y: intp(2)},
		{Action: ActionClick, X: intp(1), Y: intp(2), Button: computer.ButtonWheel},
		{Action: ActionDoubleClick, X: intp(3), Y: intp(4)},
		{Action: ActionMove, X: intp(5), Y: intp(6)},
		{Action: ActionScroll, X: intp(7), Y: intp(8), DY: 300},
		{Action: ActionType, Text: "hello"},
		{Action: ActionWait},
		{Action: ActionWait, Ms: 20},
		{Action: ActionKeypress, Keys: []string{"ctrl", "c"}},
		{Action: ActionDrag, Path: []computer.Point{{X: 1, Y: 1}}},
		{Action: ActionGoto, URL: "https://b.test"},
		{Action: ActionBack},
		{Action: ActionForward},
		{Action: ActionOpenTab, URL: "https://c.test"},
		{Action: ActionScreenshot},
	}}

	report, err := runner.Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"visit https://a.test",
		"click 1,2,left",
		"click 1,2,wheel",
		"double_click 3,4",
		"move 5,6",
		"scroll 7,8,0,300",
		"type hello",
		"wait 1s",
		"wait 20ms",
		"keypress [ctrl c]",
		"drag [{1 1}]",
		"goto https://b.test",
		"back ",
		"forward ",
		"open_tab https://c.test",
		"screenshot ",
	}, fake.calls)

	assert.Equal(t, "all", report.Script)
	assert.Empty(t, report.Error)
	require.Len(t, report.Steps, 16)
	assert.Equal(t, 1, report.Steps[0].Index)
	assert.Equal(t, "Title of https://a.test", report.Steps[0].Output)
	assert.Equal(t, "https://current.test/", report.Steps[11].Output)
	assert.Equal(t, "Tab https://c.test", report.Steps[14].Output)
	assert.Equal(t, "12 bytes of base64 PNG", report.Steps[15].Output)
}

func TestRunner_StopsAtFirstFailure(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	fake := &fakeComputer{failOn: "click"}
	runner := NewRunner(fake, logging.FromZap("script", zap.New(core)), "")

	s := &Script{Name: "broken", Steps: []Step{
		{Action: ActionBack},
		{Action: ActionClick, X: intp(1), Y: intp(1)},
		{Action: ActionForward},
	}}

	report, err := runner.Run(context.Background(), s)
	require.Error(t, err)
	assert.EqualError(t, err, "step 2 (click): click failed")
	assert.Equal(t, err.Error(), report.Error)
	assert.Len(t, report.Steps, 1)
	assert.Equal(t, []string{"back ", "click 1,1,left"}, fake.calls)

	assert.Equal(t, 1, logs.FilterMessage("Script broken failed: step 2 (click): click failed").Len())
}

func TestRunner_CancelledContext(t *testing.T) {
	fake := &fakeComputer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewRunner(fake, nil, "").Run(ctx, &Script{Name: "x", Steps: []Step{{Action: ActionBack}}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Steps)
	assert.Empty(t, fake.calls)
}

func TestRunner_RejectsInvalidScript(t *testing.T) {
	tests := []struct {
		name    string
		script  *Script
		wantErr string
	}{
		{"click without coordinates", &Script{Name: "built", Steps: []Step{{Action: ActionClick}}}, "x and y are required"},
		{"scroll missing y", &Script{Name: "built", Steps: []Step{{Action: ActionScroll, X: intp(1)}}}, "x and y are required"},
		{"no steps", &Script{Name: "empty"}, "script has no steps"},
		{"bad second step", &Script{Name: "built", Steps: []Step{{Action: ActionBack}, {Action: ActionType}}}, "step 2 (type): text is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeComputer{}
			var report *Report
			var err error
			require.NotPanics(t, func() {
				report, err = NewRunner(fake, nil, "").Run(context.Background(), tt.script)
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, err.Error(), report.Error)
			assert.Empty(t, report.Steps)
			assert.Empty(t, fake.calls)
		})
	}
}

func TestRunner_SaveScreenshot(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	t.Run("relative path under output dir", func(t *testing.T) {
		runner := NewRunner(&fakeComputer{}, nil, dir)
		report, err := runner.Run(context.Background(), &Script{Steps: []Step{{Action: ActionScreenshot, Save: "shots/a.png"}}})
		require.NoError(t, err)

		path := filepath.Join(dir, "shots", "a.png")
		assert.Equal(t, path, report.Steps[0].Output)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, pngBytes, data)
	})

	t.Run("absolute path inside output dir", func(t *testing.T) {
		path := filepath.Join(dir, "abs.png")
		runner := NewRunner(&fakeComputer{}, nil, dir)
		_, err := runner.Run(context.Background(), &Script{Steps: []Step{{Action: ActionScreenshot, Save: path}}})
		require.NoError(t, err)
		assert.FileExists(t, path)
	})

	t.Run("path escaping output dir", func(t *testing.T) {
		runner := NewRunner(&fakeComputer{}, nil, dir)
		for _, save := range []string{"../escape.png", filepath.Join(t.TempDir(), "elsewhere.png")} {
			_, err := runner.Run(context.Background(), &Script{Steps: []Step{{Action: ActionScreenshot, Save: save}}})
			require.Error(t, err, save)
			assert.Contains(t, err.Error(), "outside the output directory")
		}
	})

	t.Run("invalid base64", func(t *testing.T) {
		runner := NewRunner(&fakeComputer{shot: "%%%"}, nil, dir)
		_, err := runner.Run(context.Background(), &Script{Steps: []Step{{Action: ActionScreenshot, Save: "bad.png"}}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode screenshot")
	})
}
