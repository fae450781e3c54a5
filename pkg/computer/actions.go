package computer

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

var _ Computer = (*Session)(nil)

// Screenshot captures the visible viewport as a base64 PNG.
func (s *Session) Screenshot() (shot string, err error) {
	defer func(start time.Time) { observeAction("screenshot", start, err) }(time.Now())

	page, err := s.page("screenshot")
	if err != nil {
		return "", err
	}

	png, err := page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(false),
		Type:     playwright.ScreenshotTypePng,
		Timeout:  playwright.Float(0),
	})
	if err != nil {
		s.log.Errorf("Screenshot failed: %v", err)
		return "", fmt.Errorf("failed to take screenshot: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

// Click presses button at (x, y). The back and forward buttons navigate history,
// the wheel button scrolls down one notch at the point, anything unrecognized is
// treated as a left click.
func (s *Session) Click(x, y int, button Button) (err error) {
	defer func(start time.Time) { observeAction("click", start, err) }(time.Now())

	page, err := s.page("click")
	if err != nil {
		return err
	}

	switch button {
	case ButtonBack:
		return goBack(page)
	case ButtonForward:
		return goForward(page)
	case ButtonWheel:
		return wheelAt(page, x, y, 0, DefaultWheelDelta)
	}

	if err := page.Mouse().Click(float64(x), float64(y), playwright.MouseClickOptions{
		Button: mouseButton(button),
	}); err != nil {
		return fmt.Errorf("click at (%d, %d) failed: %w", x, y, err)
	}
	return nil
}

func mouseButton(b Button) *playwright.MouseButton {
	switch b {
	case ButtonRight:
		return playwright.MouseButtonRight
	case ButtonMiddle:
		return playwright.MouseButtonMiddle
	default:
		return playwright.MouseButtonLeft
	}
}

// DoubleClick double-clicks the left button at (x, y).
func (s *Session) DoubleClick(x, y int) (err error) {
	defer func(start time.Time) { observeAction("double_click", start, err) }(time.Now())

	page, err := s.page("double_click")
	if err != nil {
		return err
	}
	if err := page.Mouse().Dblclick(float64(x), float64(y)); err != nil {
		return fmt.Errorf("double click at (%d, %d) failed: %w", x, y, err)
	}
	return nil
}

// Move moves the pointer to (x, y).
func (s *Session) Move(x, y int) (err error) {
	defer func(start time.Time) { observeAction("move", start, err) }(time.Now())

	page, err := s.page("move")
	if err != nil {
		return err
	}
	if err := page.Mouse().Move(float64(x), float64(y)); err != nil {
		return fmt.Errorf("move to (%d, %d) failed: %w", x, y, err)
	}
	return nil
}

// Scroll moves the pointer to (x, y) and turns the wheel by (dx, dy).
func (s *Session) Scroll(x, y, dx, dy int) (err error) {
	defer func(start time.Time) { observeAction("scroll", start, err) }(time.Now())

	page, err := s.page("scroll")
	if err != nil {
		return err
	}
	return wheelAt(page, x, y, dx, dy)
}

func wheelAt(page playwright.Page, x, y, dx, dy int) error {
	mouse := page.Mouse()
	if err := mouse.Move(float64(x), float64(y)); err != nil {
		return fmt.Errorf("move to (%d, %d) failed: %w", x, y, err)
	}
	if err := mouse.Wheel(float64(dx), float64(dy)); err != nil {
		return fmt.Errorf("wheel by (%d, %d) failed: %w", dx, dy, err)
	}
	return nil
}

// Type sends text as individual keystrokes.
func (s *Session) Type(text string) (err error) {
	defer func(start time.Time) { observeAction("type", start, err) }(time.Now())

	page, err := s.page("type")
	if err != nil {
		return err
	}
	if err := page.Keyboard().Type(text); err != nil {
		return fmt.Errorf("typing failed: %w", err)
	}
	return nil
}

// Wait pauses for d or until ctx is done.
func (s *Session) Wait(ctx context.Context, d time.Duration) (err error) {
	defer func(start time.Time) { observeAction("wait", start, err) }(time.Now())

	s.mustBeReady("wait")
	return sleep(ctx, d)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Keypress holds keys down in order and releases them in reverse, so
// ["ctrl", "c"] behaves as a chord.
func (s *Session) Keypress(keys []string) (err error) {
	defer func(start time.Time) { observeAction("keypress", start, err) }(time.Now())

	page, err := s.page("keypress")
	if err != nil {
		return err
	}

	keyboard := page.Keyboard()
	mapped := MapKeys(keys)
	for i, key := range mapped {
		if err := keyboard.Down(key); err != nil {
			// let go of what is already held
			for j := i - 1; j >= 0; j-- {
				held := mapped[j]
				bestEffort(s.log, "release key", func() error { return keyboard.Up(held) })
			}
			return fmt.Errorf("key down %q failed: %w", key, err)
		}
	}
	for i := len(mapped) - 1; i >= 0; i-- {
		if err := keyboard.Up(mapped[i]); err != nil {
			// keys below the failed one are still down
			for j := i - 1; j >= 0; j-- {
				held := mapped[j]
				bestEffort(s.log, "release key", func() error { return keyboard.Up(held) })
			}
			return fmt.Errorf("key up %q failed: %w", mapped[i], err)
		}
	}
	return nil
}

// Drag presses the left button at the first point, moves through the rest and
// releases. An empty path does nothing.
func (s *Session) Drag(path []Point) (err error) {
	defer func(start time.Time) { observeAction("drag", start, err) }(time.Now())

	page, err := s.page("drag")
	if err != nil {
		return err
	}
	if len(path) == 0 {
		return nil
	}

	mouse := page.Mouse()
	if err := mouse.Move(float64(path[0].X), float64(path[0].Y)); err != nil {
		return fmt.Errorf("drag start failed: %w", err)
	}
	if err := mouse.Down(); err != nil {
		return fmt.Errorf("drag press failed: %w", err)
	}
	for _, pt := range path[1:] {
		if err := mouse.Move(float64(pt.X), float64(pt.Y)); err != nil {
			bestEffort(s.log, "release drag", func() error { return mouse.Up() })
			return fmt.Errorf("drag move to (%d, %d) failed: %w", pt.X, pt.Y, err)
		}
	}
	if err := mouse.Up(); err != nil {
		return fmt.Errorf("drag release failed: %w", err)
	}
	return nil
}

// Goto navigates the active page. Failures are logged, never returned.
func (s *Session) Goto(url string) {
	start := time.Now()
	page, err := s.page("goto")
	if err != nil {
		s.log.Warnf("Cannot navigate to %s: %v", url, err)
		observeAction("goto", start, err)
		return
	}
	bestEffort(s.log, "goto", func() error {
		if _, err := page.Goto(url); err != nil {
			return fmt.Errorf("navigating to %s: %w", url, err)
		}
		return nil
	})
	observeAction("goto", start, nil)
}

// Back goes one step back in the active page's history.
func (s *Session) Back() (err error) {
	defer func(start time.Time) { observeAction("back", start, err) }(time.Now())

	page, err := s.page("back")
	if err != nil {
		return err
	}
	return goBack(page)
}

// Forward goes one step forward in the active page's history.
func (s *Session) Forward() (err error) {
	defer func(start time.Time) { observeAction("forward", start, err) }(time.Now())

	page, err := s.page("forward")
	if err != nil {
		return err
	}
	return goForward(page)
}

func goBack(page playwright.Page) error {
	if _, err := page.GoBack(); err != nil {
		return fmt.Errorf("history back failed: %w", err)
	}
	return nil
}

func goForward(page playwright.Page) error {
	if _, err := page.GoForward(); err != nil {
		return fmt.Errorf("history forward failed: %w", err)
	}
	return nil
}

// Visit navigates the active page to url, lets it settle and returns its title.
func (s *Session) Visit(ctx context.Context, url string) (title string, err error) {
	defer func(start time.Time) { observeAction("visit", start, err) }(time.Now())

	page, err := s.page("visit")
	if err != nil {
		return "", err
	}
	if _, err := page.Goto(url); err != nil {
		return "", fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return s.settle(ctx, page)
}

// OpenTab opens url in a new tab, which becomes the active page, and returns
// its title once settled.
func (s *Session) OpenTab(ctx context.Context, url string) (title string, err error) {
	defer func(start time.Time) { observeAction("open_tab", start, err) }(time.Now())

	if _, err := s.page("open_tab"); err != nil {
		return "", err
	}

	page, err := s.context.NewPage()
	if err != nil {
		return "", fmt.Errorf("failed to open tab: %w", err)
	}
	s.pages.adopt(page)

	if err := page.BringToFront(); err != nil {
		return "", fmt.Errorf("failed to focus tab: %w", err)
	}
	if _, err := page.Goto(url); err != nil {
		return "", fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return s.settle(ctx, page)
}

func (s *Session) settle(ctx context.Context, page playwright.Page) (string, error) {
	if err := sleep(ctx, s.opts.SettleDelay); err != nil {
		return "", err
	}
	title, err := page.Title()
	if err != nil {
		return "", fmt.Errorf("failed to read title: %w", err)
	}
	return title, nil
}

// CurrentURL returns the URL of the active page.
func (s *Session) CurrentURL() string {
	page, err := s.page("current_url")
	if err != nil {
		return ""
	}
	return page.URL()
}

// Title returns the title of the active page.
func (s *Session) Title() (string, error) {
	page, err := s.page("title")
	if err != nil {
		return "", err
	}
	return page.Title()
}
