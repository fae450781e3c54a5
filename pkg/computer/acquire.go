package computer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pilot/pkg/logging"
)

// Acquisition is a browser with a context and a page ready for the session to use.
type Acquisition struct {
	Browser playwright.Browser
	Context playwright.BrowserContext
	Page    playwright.Page

	// Attached is true when the browser was already running before the session.
	Attached bool
}

// Acquirer obtains a browser for a session. Open only sees this interface, so
// attach-or-launch is one composition among several.
type Acquirer interface {
	Acquire(ctx context.Context, chromium playwright.BrowserType, vp Viewport) (*Acquisition, error)
}

// internalSchemes are browser-owned pages an agent should never be handed.
var internalSchemes = []string{"chrome://", "chrome-extension://", "chrome-untrusted://"}

func isInternalURL(u string) bool {
	for _, scheme := range internalSchemes {
		if strings.HasPrefix(u, scheme) {
			return true
		}
	}
	return false
}

// AttachAcquirer connects to a Chromium already listening for DevTools on localhost.
type AttachAcquirer struct {
	Port    int
	Timeout time.Duration
}

// Endpoint returns the DevTools URL Acquire connects to.
func (a AttachAcquirer) Endpoint() string {
	port := a.Port
	if port == 0 {
		port = DefaultDebugPort
	}
	return fmt.Sprintf("http://localhost:%d", port)
}

// Acquire connects, takes the browser's first context and its first ordinary page.
// When every open page is internal a new blank page is created instead.
func (a AttachAcquirer) Acquire(ctx context.Context, chromium playwright.BrowserType, vp Viewport) (*Acquisition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout, err := a.connectTimeout(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	browser, err := chromium.ConnectOverCDP(a.Endpoint(), playwright.BrowserTypeConnectOverCDPOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", a.Endpoint(), err)
	}

	acq, err := a.adopt(browser, vp)
	if err != nil {
		_ = browser.Close()
		return nil, err
	}
	return acq, nil
}

// connectTimeout bounds the connection by a.Timeout and the context deadline.
// The driver treats 0 as "no timeout", so the result is at least one millisecond.
func (a AttachAcquirer) connectTimeout(ctx context.Context, now time.Time) (time.Duration, error) {
	timeout := a.Timeout
	if timeout == 0 {
		timeout = DefaultAttachTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		remaining := deadline.Sub(now)
		if remaining <= 0 {
			return 0, context.DeadlineExceeded
		}
		if remaining < timeout {
			timeout = remaining
		}
	}
	if timeout < time.Millisecond {
		timeout = time.Millisecond
	}
	return timeout, nil
}

func (a AttachAcquirer) adopt(browser playwright.Browser, vp Viewport) (*Acquisition, error) {
	contexts := browser.Contexts()
	if len(contexts) == 0 {
		return nil, errors.New("attached browser has no contexts")
	}
	bctx := contexts[0]

	var page playwright.Page
	for _, p := range bctx.Pages() {
		if !isInternalURL(p.URL()) {
			page = p
			break
		}
	}

	if page == nil {
		var err error
		page, err = bctx.NewPage()
		if err != nil {
			return nil, fmt.Errorf("failed to create page: %w", err)
		}
		if _, err := page.Goto(blankURL); err != nil {
			return nil, fmt.Errorf("failed to load blank page: %w", err)
		}
	}

	if err := page.SetViewportSize(vp.Width, vp.Height); err != nil {
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	return &Acquisition{Browser: browser, Context: bctx, Page: page, Attached: true}, nil
}

// LaunchAcquirer starts a new Chromium with a fresh context.
type LaunchAcquirer struct {
	Headless bool
	Args     []string
}

// Acquire launches the browser, creates a context sized to vp and opens one page.
func (l LaunchAcquirer) Acquire(ctx context.Context, chromium playwright.BrowserType, vp Viewport) (*Acquisition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.Headless),
		Args:     l.Args,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: vp.Width, Height: vp.Height},
	})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := page.SetViewportSize(vp.Width, vp.Height); err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	return &Acquisition{Browser: browser, Context: bctx, Page: page}, nil
}

// FallbackAcquirer tries Primary and, if it fails for any reason, Fallback.
// A Primary failure is logged and never returned.
type FallbackAcquirer struct {
	Primary  Acquirer
	Fallback Acquirer
	Logger   *logging.Logger
}

func (f FallbackAcquirer) Acquire(ctx context.Context, chromium playwright.BrowserType, vp Viewport) (*Acquisition, error) {
	log := f.Logger
	if log == nil {
		log = logging.Nop()
	}

	acq, err := f.Primary.Acquire(ctx, chromium, vp)
	if err == nil {
		return acq, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	log.Infof("Primary browser acquisition failed, falling back: %v", err)
	bestEffortFailures.WithLabelValues("attach").Inc()

	return f.Fallback.Acquire(ctx, chromium, vp)
}

// DefaultAcquirer attaches to a browser on port and launches a headed one
// when nothing is listening.
func DefaultAcquirer(port int, log *logging.Logger) Acquirer {
	return FallbackAcquirer{
		Primary:  AttachAcquirer{Port: port},
		Fallback: LaunchAcquirer{Headless: false},
		Logger:   log,
	}
}
