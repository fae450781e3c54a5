package computer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pilot/pkg/logging"
	"github.com/entrhq/pilot/pkg/security/blocklist"
)

// Options configures a Session.
type Options struct {
	// DebugPort is the DevTools port tried before launching a browser.
	DebugPort int

	// InitialURL is loaded once the browser is acquired. Empty skips it.
	InitialURL string

	// ShowCursor draws a visible pointer into every top-level document.
	ShowCursor bool

	// Viewport is applied to every page the session uses.
	Viewport Viewport

	// SettleDelay is waited after Visit and OpenTab navigate.
	SettleDelay time.Duration

	// Blocklist decides which requests are aborted. Nil allows everything.
	Blocklist *blocklist.Policy

	// Acquirer defaults to DefaultAcquirer(DebugPort).
	Acquirer Acquirer

	// StartDriver defaults to StartPlaywright.
	StartDriver DriverFactory

	Logger *logging.Logger
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		DebugPort:   DefaultDebugPort,
		InitialURL:  DefaultInitialURL,
		ShowCursor:  true,
		Viewport:    DefaultViewport(),
		SettleDelay: DefaultSettleDelay,
	}
}

func (o Options) withDefaults() Options {
	if o.DebugPort == 0 {
		o.DebugPort = DefaultDebugPort
	}
	if o.Viewport.Width <= 0 || o.Viewport.Height <= 0 {
		o.Viewport = DefaultViewport()
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	if o.Acquirer == nil {
		o.Acquirer = DefaultAcquirer(o.DebugPort, o.Logger.Named("acquire"))
	}
	if o.StartDriver == nil {
		o.StartDriver = StartPlaywright
	}
	return o
}

// Session is one browser under agent control.
type Session struct {
	id   string
	opts Options
	log  *logging.Logger

	mu    sync.Mutex
	state State

	driver   Driver
	browser  playwright.Browser
	context  playwright.BrowserContext
	attached bool
	pages    *pageTracker

	closeOnce sync.Once
}

// Open starts the driver, acquires a browser and prepares it for actions.
// If any step fails, whatever was already started is released and the error
// is returned.
func Open(ctx context.Context, opts Options) (*Session, error) {
	opts = opts.withDefaults()
	s := &Session{
		id:   uuid.New().String(),
		opts: opts,
		log:  opts.Logger,
	}

	if err := s.start(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}
	return s, nil
}

// Use opens a session, runs fn with it and closes it, whatever fn returns.
func Use(ctx context.Context, opts Options, fn func(*Session) error) error {
	s, err := Open(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func (s *Session) start(ctx context.Context) error {
	s.setState(StateStarting)
	s.log.Debugf("Starting session %s", s.id)

	driver, err := s.opts.StartDriver(ctx)
	if err != nil {
		return fmt.Errorf("failed to start driver: %w", err)
	}
	s.driver = driver

	if err := ctx.Err(); err != nil {
		return err
	}

	acq, err := s.opts.Acquirer.Acquire(ctx, driver.Chromium(), s.opts.Viewport)
	if err != nil {
		return fmt.Errorf("failed to acquire browser: %w", err)
	}
	s.browser = acq.Browser
	s.context = acq.Context
	s.attached = acq.Attached

	s.pages = newPageTracker(acq.Context, s.opts.Viewport, s.log.Named("pages"))
	s.pages.seed(acq.Page)
	s.pages.subscribe()

	if s.opts.ShowCursor {
		err := acq.Context.AddInitScript(playwright.Script{
			Content: playwright.String(cursorOverlayScript),
		})
		if err != nil {
			return fmt.Errorf("failed to install cursor overlay: %w", err)
		}
	}

	if err := acq.Context.Route("**/*", s.intercept); err != nil {
		return fmt.Errorf("failed to install request interception: %w", err)
	}

	if s.opts.InitialURL != "" && !isInternalURL(acq.Page.URL()) {
		s.log.Infof("Navigating to initial URL: %s", s.opts.InitialURL)
		bestEffort(s.log, "initial navigation", func() error {
			_, err := acq.Page.Goto(s.opts.InitialURL)
			return err
		})
	}

	s.setState(StateReady)
	s.log.Infof("Session %s ready (attached=%t)", s.id, s.attached)
	return nil
}

// intercept runs on the driver's goroutine for every request in the context.
func (s *Session) intercept(route playwright.Route) {
	target := route.Request().URL()
	decision := s.opts.Blocklist.Decide(target)
	requestsTotal.WithLabelValues(decision.String()).Inc()

	if decision == blocklist.Abort {
		s.log.Infof("Blocked request: %s", target)
		bestEffort(s.log, "abort request", func() error { return route.Abort() })
		return
	}
	bestEffort(s.log, "continue request", func() error { return route.Continue() })
}

// Close releases the browser and the driver. It is safe to call more than once
// and on a session whose startup failed part way.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		s.setState(StateClosing)
		if s.browser != nil {
			bestEffort(s.log, "close browser", func() error { return s.browser.Close() })
		}
		if s.driver != nil {
			bestEffort(s.log, "stop driver", s.driver.Stop)
		}
		s.setState(StateClosed)
		s.log.Debugf("Session %s closed", s.id)
	})
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

// Attached reports whether the session adopted an already running browser.
func (s *Session) Attached() bool {
	return s.attached
}

// Dimensions returns the fixed viewport size.
func (s *Session) Dimensions() Viewport {
	return s.opts.Viewport
}

var errNoActivePage = errors.New("no active page")

// mustBeReady panics when an action is attempted outside the Ready state.
func (s *Session) mustBeReady(action string) {
	if state := s.State(); state != StateReady {
		panic(fmt.Sprintf("computer: %s called on %s session", action, state))
	}
}

// page applies pending page events and returns the page actions should target.
func (s *Session) page(action string) (playwright.Page, error) {
	s.mustBeReady(action)
	if err := s.pages.sync(); err != nil {
		return nil, err
	}
	p := s.pages.current()
	if p == nil {
		return nil, errNoActivePage
	}
	return p, nil
}

// Pages returns the URLs of the open pages, oldest first.
func (s *Session) Pages() ([]string, error) {
	if _, err := s.page("pages"); err != nil {
		return nil, err
	}
	open := s.pages.open()
	urls := make([]string, 0, len(open))
	for _, p := range open {
		urls = append(urls, p.URL())
	}
	return urls, nil
}
