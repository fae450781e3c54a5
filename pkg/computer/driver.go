package computer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/playwright-community/playwright-go"
)

const installTimeout = 5 * time.Minute

// Driver is a running browser automation driver.
type Driver interface {
	Chromium() playwright.BrowserType
	Stop() error
}

// DriverFactory starts a Driver. Open calls it once per session.
type DriverFactory func(ctx context.Context) (Driver, error)

type playwrightDriver struct {
	pw *playwright.Playwright
}

func (d *playwrightDriver) Chromium() playwright.BrowserType {
	return d.pw.Chromium
}

func (d *playwrightDriver) Stop() error {
	return d.pw.Stop()
}

// StartPlaywright makes sure the Chromium build is installed and starts the
// playwright driver. Driver output is discarded so it never mixes with ours.
func StartPlaywright(ctx context.Context) (Driver, error) {
	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if err := install(ctx, opts); err != nil {
		return nil, err
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	return &playwrightDriver{pw: pw}, nil
}

func install(ctx context.Context, opts *playwright.RunOptions) error {
	installCtx, cancel := context.WithTimeout(ctx, installTimeout)
	defer cancel()

	// Install blocks without a context, so race it against ours.
	done := make(chan error, 1)
	go func() {
		if err := playwright.Install(opts); err != nil {
			done <- fmt.Errorf("failed to install playwright: %w", err)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-installCtx.Done():
		return fmt.Errorf("waiting for playwright installation: %w", installCtx.Err())
	}
}
