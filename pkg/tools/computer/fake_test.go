package computer

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/pilot/pkg/computer"
)

// fakeComputer records every action as a string.
type fakeComputer struct {
	calls []string
	url   string
	title string
	err   error
}

var _ computer.Computer = (*fakeComputer)(nil)

func newFakeComputer() *fakeComputer {
	return &fakeComputer{url: "https://start.test/", title: "Start"}
}

func (f *fakeComputer) record(format string, args ...interface{}) error {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return f.err
}

func (f *fakeComputer) Screenshot() (string, error) {
	if err := f.record("screenshot"); err != nil {
		return "", err
	}
	return "iVBORw0KGgo=", nil
}

func (f *fakeComputer) Click(x, y int, button computer.Button) error {
	return f.record("click %d,%d %s", x, y, button)
}

func (f *fakeComputer) DoubleClick(x, y int) error {
	return f.record("dblclick %d,%d", x, y)
}

func (f *fakeComputer) Move(x, y int) error {
	return f.record("move %d,%d", x, y)
}

func (f *fakeComputer) Scroll(x, y, dx, dy int) error {
	return f.record("scroll %d,%d by %d,%d", x, y, dx, dy)
}

func (f *fakeComputer) Type(text string) error {
	return f.record("type %q", text)
}

func (f *fakeComputer) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.record("wait %s", d)
}

func (f *fakeComputer) Keypress(keys []string) error {
	return f.record("keypress %v", keys)
}

func (f *fakeComputer) Drag(path []computer.Point) error {
	return f.record("drag %v", path)
}

func (f *fakeComputer) Goto(url string) {
	_ = f.record("goto %s", url)
	f.url = url
}

func (f *fakeComputer) Back() error {
	return f.record("back")
}

func (f *fakeComputer) Forward() error {
	return f.record("forward")
}

func (f *fakeComputer) Visit(ctx context.Context, url string) (string, error) {
	if err := f.record("visit %s", url); err != nil {
		return "", err
	}
	f.url = url
	return f.title, nil
}

func (f *fakeComputer) OpenTab(ctx context.Context, url string) (string, error) {
	if err := f.record("open tab %s", url); err != nil {
		return "", err
	}
	f.url = url
	return f.title, nil
}

func (f *fakeComputer) CurrentURL() string {
	return f.url
}

func (f *fakeComputer) Dimensions() computer.Viewport {
	return computer.DefaultViewport()
}
