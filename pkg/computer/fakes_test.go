package computer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// recorder collects driver calls from every fake in call order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type fakeMouse struct {
	playwright.Mouse
	page *fakePage
}

func (m *fakeMouse) Click(x, y float64, opts ...playwright.MouseClickOptions) error {
	button := "default"
	if len(opts) > 0 && opts[0].Button != nil {
		button = string(*opts[0].Button)
	}
	m.page.record("click %g,%g %s", x, y, button)
	return m.page.mouseErr
}

func (m *fakeMouse) Dblclick(x, y float64, opts ...playwright.MouseDblclickOptions) error {
	m.page.record("dblclick %g,%g", x, y)
	return m.page.mouseErr
}

func (m *fakeMouse) Move(x, y float64, opts ...playwright.MouseMoveOptions) error {
	m.page.record("move %g,%g", x, y)
	return m.page.mouseErr
}

func (m *fakeMouse) Down(opts ...playwright.MouseDownOptions) error {
	m.page.record("down")
	return m.page.mouseErr
}

func (m *fakeMouse) Up(opts ...playwright.MouseUpOptions) error {
	m.page.record("up")
	return m.page.mouseErr
}

func (m *fakeMouse) Wheel(dx, dy float64) error {
	m.page.record("wheel %g,%g", dx, dy)
	return m.page.mouseErr
}

type fakeKeyboard struct {
	playwright.Keyboard
	page *fakePage
}

func (k *fakeKeyboard) Down(key string) error {
	k.page.record("keydown %s", key)
	if key == k.page.failKeyDown {
		return errors.New("key rejected")
	}
	return nil
}

func (k *fakeKeyboard) Up(key string) error {
	k.page.record("keyup %s", key)
	if key == k.page.failKeyUp {
		return errors.New("key stuck")
	}
	return nil
}

func (k *fakeKeyboard) Type(text string, opts ...playwright.KeyboardTypeOptions) error {
	k.page.record("type %s", text)
	return nil
}

type fakePage struct {
	playwright.Page
	name string
	rec  *recorder
	ctx  *fakeContext

	url     string
	title   string
	closed  bool
	onClose []func(playwright.Page)

	gotoErr     error
	historyErr  error
	shotErr     error
	viewportErr error
	mouseErr    error
	failKeyDown string
	failKeyUp   string
	lastShot    playwright.PageScreenshotOptions
}

func (p *fakePage) record(format string, args ...interface{}) {
	p.rec.add(p.name+": "+format, args...)
}

func (p *fakePage) URL() string { return p.url }

func (p *fakePage) Title() (string, error) { return p.title, nil }

func (p *fakePage) IsClosed() bool { return p.closed }

func (p *fakePage) OnClose(fn func(playwright.Page)) {
	p.onClose = append(p.onClose, fn)
}

func (p *fakePage) Mouse() playwright.Mouse { return &fakeMouse{page: p} }

func (p *fakePage) Keyboard() playwright.Keyboard { return &fakeKeyboard{page: p} }

func (p *fakePage) SetViewportSize(width, height int) error {
	p.record("viewport %dx%d", width, height)
	return p.viewportErr
}

func (p *fakePage) Goto(url string, opts ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.record("goto %s", url)
	if p.gotoErr != nil {
		return nil, p.gotoErr
	}
	p.url = url
	return nil, nil
}

func (p *fakePage) GoBack(opts ...playwright.PageGoBackOptions) (playwright.Response, error) {
	p.record("back")
	return nil, p.historyErr
}

func (p *fakePage) GoForward(opts ...playwright.PageGoForwardOptions) (playwright.Response, error) {
	p.record("forward")
	return nil, p.historyErr
}

func (p *fakePage) Screenshot(opts ...playwright.PageScreenshotOptions) ([]byte, error) {
	p.record("screenshot")
	if len(opts) > 0 {
		p.lastShot = opts[0]
	}
	if p.shotErr != nil {
		return nil, p.shotErr
	}
	return []byte("png-bytes"), nil
}

func (p *fakePage) BringToFront() error {
	p.record("front")
	return nil
}

// close simulates the user or the site closing the tab.
func (p *fakePage) close() {
	p.closed = true
	if p.ctx != nil {
		p.ctx.removePage(p)
	}
	for _, fn := range p.onClose {
		fn(p)
	}
}

type fakeContext struct {
	playwright.BrowserContext
	rec *recorder

	pages    []*fakePage
	onPage   []func(playwright.Page)
	scripts  []string
	route    func(playwright.Route)
	routeURL interface{}
	created  int

	newPageErr error
	scriptErr  error
	routeErr   error
}

func (c *fakeContext) Pages() []playwright.Page {
	out := make([]playwright.Page, 0, len(c.pages))
	for _, p := range c.pages {
		out = append(out, p)
	}
	return out
}

func (c *fakeContext) addPage(name, url string) *fakePage {
	p := &fakePage{name: name, rec: c.rec, ctx: c, url: url, title: name + " title"}
	c.pages = append(c.pages, p)
	return p
}

func (c *fakeContext) removePage(p *fakePage) {
	for i, candidate := range c.pages {
		if candidate == p {
			c.pages = append(c.pages[:i], c.pages[i+1:]...)
			return
		}
	}
}

// NewPage creates a page and raises the page event, as the driver does.
func (c *fakeContext) NewPage() (playwright.Page, error) {
	if c.newPageErr != nil {
		return nil, c.newPageErr
	}
	c.created++
	p := c.addPage(fmt.Sprintf("new%d", c.created), blankURL)
	c.rec.add("context: new page %s", p.name)
	c.emitPage(p)
	return p, nil
}

// popup simulates a page opened by the site itself.
func (c *fakeContext) popup(name, url string) *fakePage {
	p := c.addPage(name, url)
	c.emitPage(p)
	return p
}

func (c *fakeContext) emitPage(p *fakePage) {
	for _, fn := range c.onPage {
		fn(p)
	}
}

func (c *fakeContext) OnPage(fn func(playwright.Page)) {
	c.onPage = append(c.onPage, fn)
}

func (c *fakeContext) AddInitScript(script playwright.Script) error {
	if c.scriptErr != nil {
		return c.scriptErr
	}
	if script.Content != nil {
		c.scripts = append(c.scripts, *script.Content)
	}
	return nil
}

func (c *fakeContext) Route(url interface{}, handler func(playwright.Route), times ...int) error {
	if c.routeErr != nil {
		return c.routeErr
	}
	c.routeURL = url
	c.route = handler
	return nil
}

type fakeBrowser struct {
	playwright.Browser
	rec      *recorder
	contexts []*fakeContext
	closed   int

	newContextErr error
	closeErr      error
}

func (b *fakeBrowser) Contexts() []playwright.BrowserContext {
	out := make([]playwright.BrowserContext, 0, len(b.contexts))
	for _, c := range b.contexts {
		out = append(out, c)
	}
	return out
}

func (b *fakeBrowser) NewContext(opts ...playwright.BrowserNewContextOptions) (playwright.BrowserContext, error) {
	if b.newContextErr != nil {
		return nil, b.newContextErr
	}
	vp := "none"
	if len(opts) > 0 && opts[0].Viewport != nil {
		vp = fmt.Sprintf("%dx%d", opts[0].Viewport.Width, opts[0].Viewport.Height)
	}
	b.rec.add("browser: new context %s", vp)
	c := &fakeContext{rec: b.rec}
	b.contexts = append(b.contexts, c)
	return c, nil
}

func (b *fakeBrowser) Close(opts ...playwright.BrowserCloseOptions) error {
	b.closed++
	b.rec.add("browser: close")
	return b.closeErr
}

type fakeBrowserType struct {
	playwright.BrowserType
	rec *recorder

	attachBrowser *fakeBrowser
	attachErr     error
	launchBrowser *fakeBrowser
	launchErr     error

	endpoint    string
	connectOpts playwright.BrowserTypeConnectOverCDPOptions
	launchOpts  playwright.BrowserTypeLaunchOptions
}

func (bt *fakeBrowserType) ConnectOverCDP(endpoint string, opts ...playwright.BrowserTypeConnectOverCDPOptions) (playwright.Browser, error) {
	bt.endpoint = endpoint
	if len(opts) > 0 {
		bt.connectOpts = opts[0]
	}
	bt.rec.add("driver: connect %s", endpoint)
	if bt.attachErr != nil {
		return nil, bt.attachErr
	}
	if bt.attachBrowser == nil {
		return nil, errors.New("connection refused")
	}
	return bt.attachBrowser, nil
}

func (bt *fakeBrowserType) Launch(opts ...playwright.BrowserTypeLaunchOptions) (playwright.Browser, error) {
	bt.rec.add("driver: launch")
	if len(opts) > 0 {
		bt.launchOpts = opts[0]
	}
	if bt.launchErr != nil {
		return nil, bt.launchErr
	}
	if bt.launchBrowser == nil {
		bt.launchBrowser = &fakeBrowser{rec: bt.rec}
	}
	return bt.launchBrowser, nil
}

type fakeDriver struct {
	chromium *fakeBrowserType
	stopped  int
	stopErr  error
}

func (d *fakeDriver) Chromium() playwright.BrowserType { return d.chromium }

func (d *fakeDriver) Stop() error {
	d.stopped++
	d.chromium.rec.add("driver: stop")
	return d.stopErr
}

func (d *fakeDriver) factory() DriverFactory {
	return func(ctx context.Context) (Driver, error) { return d, nil }
}

type fakeRequest struct {
	playwright.Request
	url string
}

func (r *fakeRequest) URL() string { return r.url }

type fakeRoute struct {
	playwright.Route
	req       *fakeRequest
	aborted   bool
	continued bool
	err       error
}

func (r *fakeRoute) Request() playwright.Request { return r.req }

func (r *fakeRoute) Abort(errorCode ...string) error {
	r.aborted = true
	return r.err
}

func (r *fakeRoute) Continue(opts ...playwright.RouteContinueOptions) error {
	r.continued = true
	return r.err
}

func newRoute(url string) *fakeRoute {
	return &fakeRoute{req: &fakeRequest{url: url}}
}

// env is a driver whose attach attempt fails, so sessions launch a browser
// with a single page named "main".
type env struct {
	rec     *recorder
	driver  *fakeDriver
	browser *fakeBrowser
	ctx     *fakeContext
	page    *fakePage
}

func newLaunchEnv() *env {
	rec := &recorder{}
	ctx := &fakeContext{rec: rec}
	page := ctx.addPage("main", blankURL)
	browser := &fakeBrowser{rec: rec, contexts: []*fakeContext{ctx}}
	chromium := &fakeBrowserType{rec: rec, launchBrowser: browser}
	return &env{
		rec:     rec,
		driver:  &fakeDriver{chromium: chromium},
		browser: browser,
		ctx:     ctx,
		page:    page,
	}
}

// acquirer hands out the prepared browser, context and page directly.
func (e *env) acquirer() Acquirer {
	return acquirerFunc(func(ctx context.Context, chromium playwright.BrowserType, vp Viewport) (*Acquisition, error) {
		return &Acquisition{Browser: e.browser, Context: e.ctx, Page: e.page}, nil
	})
}

func (e *env) options() Options {
	return Options{
		Viewport:    DefaultViewport(),
		Acquirer:    e.acquirer(),
		StartDriver: e.driver.factory(),
	}
}

type acquirerFunc func(ctx context.Context, chromium playwright.BrowserType, vp Viewport) (*Acquisition, error)

func (f acquirerFunc) Acquire(ctx context.Context, chromium playwright.BrowserType, vp Viewport) (*Acquisition, error) {
	return f(ctx, chromium, vp)
}
