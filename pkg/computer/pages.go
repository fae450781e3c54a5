package computer

import (
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pilot/pkg/logging"
)

type pageEventKind int

const (
	pageOpened pageEventKind = iota
	pageClosed
)

type pageEvent struct {
	kind pageEventKind
	page playwright.Page
}

// pageTracker owns the session's notion of the active page.
//
// Driver callbacks only append to queue. Everything else is read and written by
// the goroutine driving the session, inside sync and activate.
type pageTracker struct {
	mu    sync.Mutex
	queue []pageEvent

	context  playwright.BrowserContext
	viewport Viewport
	log      *logging.Logger

	pages  []playwright.Page // open pages, oldest first
	known  map[playwright.Page]struct{}
	sized  map[playwright.Page]struct{}
	active playwright.Page
}

func newPageTracker(bctx playwright.BrowserContext, vp Viewport, log *logging.Logger) *pageTracker {
	return &pageTracker{
		context:  bctx,
		viewport: vp,
		log:      log,
		known:    make(map[playwright.Page]struct{}),
		sized:    make(map[playwright.Page]struct{}),
	}
}

// seed records the pages the context already has and makes first active.
// first has been sized by the acquirer.
func (t *pageTracker) seed(first playwright.Page) {
	for _, p := range t.context.Pages() {
		if p != first {
			t.observe(p)
		}
	}
	t.observe(first)
	t.sized[first] = struct{}{}
	t.active = first
}

// subscribe starts feeding page-opened events into the queue.
func (t *pageTracker) subscribe() {
	t.context.OnPage(func(p playwright.Page) {
		t.enqueue(pageOpened, p)
	})
}

func (t *pageTracker) enqueue(kind pageEventKind, p playwright.Page) {
	t.mu.Lock()
	t.queue = append(t.queue, pageEvent{kind: kind, page: p})
	t.mu.Unlock()
}

func (t *pageTracker) pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

// observe starts tracking p and reports whether it was new.
func (t *pageTracker) observe(p playwright.Page) bool {
	if _, ok := t.known[p]; ok {
		return false
	}
	t.known[p] = struct{}{}
	t.pages = append(t.pages, p)
	p.OnClose(func(closed playwright.Page) {
		t.enqueue(pageClosed, closed)
	})
	return true
}

// sync applies queued events in arrival order until the queue is empty.
// Handling an event may itself enqueue more, e.g. creating a blank page.
func (t *pageTracker) sync() error {
	for {
		t.mu.Lock()
		events := t.queue
		t.queue = nil
		t.mu.Unlock()

		if len(events) == 0 {
			return nil
		}

		for _, ev := range events {
			var err error
			switch ev.kind {
			case pageOpened:
				t.handleOpened(ev.page)
			case pageClosed:
				err = t.handleClosed(ev.page)
			}
			if err != nil {
				return err
			}
		}
	}
}

func (t *pageTracker) handleOpened(p playwright.Page) {
	if !t.observe(p) {
		return
	}
	if p.IsClosed() {
		t.remove(p)
		return
	}
	t.log.Debugf("New page opened: %s", p.URL())
	t.activate(p, reasonOpened)
}

func (t *pageTracker) handleClosed(p playwright.Page) error {
	if _, ok := t.known[p]; !ok {
		return nil
	}
	t.remove(p)
	if p != t.active {
		return nil
	}

	for i := len(t.pages) - 1; i >= 0; i-- {
		if candidate := t.pages[i]; !candidate.IsClosed() {
			t.log.Debugf("Active page closed, switching to %s", candidate.URL())
			t.activate(candidate, reasonClosed)
			return nil
		}
	}

	t.log.Warnf("Last page closed, opening a blank page")
	blank, err := t.context.NewPage()
	if err != nil {
		t.active = nil
		return fmt.Errorf("failed to open replacement page: %w", err)
	}
	t.observe(blank)
	t.activate(blank, reasonBlank)
	return nil
}

// adopt tracks a page the session created itself and makes it active.
func (t *pageTracker) adopt(p playwright.Page) {
	t.observe(p)
	t.activate(p, reasonExplicit)
}

func (t *pageTracker) remove(p playwright.Page) {
	for i, candidate := range t.pages {
		if candidate == p {
			t.pages = append(t.pages[:i], t.pages[i+1:]...)
			break
		}
	}
	delete(t.sized, p)
}

// activate points the session at p, sizing it the first time it is used.
func (t *pageTracker) activate(p playwright.Page, reason string) {
	t.active = p
	pageReassignmentsTotal.WithLabelValues(reason).Inc()

	if _, ok := t.sized[p]; ok {
		return
	}
	bestEffort(t.log, "set viewport", func() error {
		if err := p.SetViewportSize(t.viewport.Width, t.viewport.Height); err != nil {
			return err
		}
		t.sized[p] = struct{}{}
		return nil
	})
}

// current returns the active page. Callers must sync first.
func (t *pageTracker) current() playwright.Page {
	return t.active
}

// open returns the tracked open pages, oldest first.
func (t *pageTracker) open() []playwright.Page {
	out := make([]playwright.Page, len(t.pages))
	copy(out, t.pages)
	return out
}
