package rod

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fwojciec/pagecheck"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure BrowserManager implements pagecheck.Browser at compile time.
var _ pagecheck.Browser = (*BrowserManager)(nil)

// DefaultMaxPages is the default number of pages before browser recycling.
const DefaultMaxPages = 75

// BrowserManager manages browser lifecycle with automatic recycling to prevent
// memory accumulation. Chrome accumulates memory over time and the baseline
// never returns to initial levels even with proper page cleanup.
//
// A browser is only recycled once every tab it opened has been closed, so
// running page checks are never cut short.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	options  pagecheck.LaunchOptions
	maxPages int64

	mu        sync.Mutex
	browser   *rod.Browser
	launcher  *launcher.Launcher
	pageCount int64
	openPages int
	closed    atomic.Bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets the maximum number of pages before the browser is recycled.
// Defaults to 75 if not specified.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// WithLaunchOptions sets the browser launch flags.
func WithLaunchOptions(opts pagecheck.LaunchOptions) ManagerOption {
	return func(bm *BrowserManager) {
		bm.options = opts
	}
}

// Launch starts a headless Chrome configured by opts. It satisfies
// pagecheck.LaunchFunc.
func Launch(opts pagecheck.LaunchOptions) (pagecheck.Browser, error) {
	return NewBrowserManager(WithLaunchOptions(opts))
}

// NewBrowserManager creates a new BrowserManager that launches a headless Chrome browser.
// Close must be called when the BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(bm)
	}

	if err := bm.launchBrowser(); err != nil {
		return nil, err
	}

	return bm, nil
}

// NewPage opens a new tab. The returned page must be closed by the caller.
func (bm *BrowserManager) NewPage(ctx context.Context) (pagecheck.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := bm.acquire()
	if err != nil {
		return nil, err
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		bm.release()
		return nil, fmt.Errorf("opening tab: %w", err)
	}

	return newPage(page.Context(context.Background()), bm.release), nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	if !bm.closed.CompareAndSwap(false, true) {
		return nil
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()

	return bm.closeBrowser()
}

// acquire returns the current browser and counts a new open tab, recycling
// first when the page budget is spent and no tab is open.
func (bm *BrowserManager) acquire() (*rod.Browser, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed.Load() || bm.browser == nil {
		return nil, pagecheck.Errorf(pagecheck.EINVALID, "browser is closed")
	}
	if bm.pageCount >= bm.maxPages && bm.openPages == 0 {
		bm.recycleBrowser()
	}

	bm.pageCount++
	bm.openPages++
	return bm.browser, nil
}

func (bm *BrowserManager) release() {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.openPages > 0 {
		bm.openPages--
	}
}

// launchBrowser starts a new browser instance with stability flags.
func (bm *BrowserManager) launchBrowser() error {
	lnchr := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		NoSandbox(bm.options.DisableSandbox).
		Leakless(true).
		Headless(true)
	if bm.options.IgnoreHTTPSErrors {
		lnchr = lnchr.Set("ignore-certificate-errors")
	}

	u, err := lnchr.Launch()
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return fmt.Errorf("connecting to browser: %w", err)
	}

	bm.browser = browser
	bm.launcher = lnchr
	return nil
}

// closeBrowser shuts down the current browser and launcher.
// Must be called with mu held.
func (bm *BrowserManager) closeBrowser() error {
	var err error
	if bm.browser != nil {
		err = bm.browser.Close()
		bm.browser = nil
	}
	if bm.launcher != nil {
		bm.launcher.Kill()
		bm.launcher = nil
	}
	return err
}

// recycleBrowser starts a fresh browser and closes the old one.
// If launching the new browser fails, the old browser is kept.
// Must be called with mu held.
func (bm *BrowserManager) recycleBrowser() {
	oldBrowser := bm.browser
	oldLauncher := bm.launcher
	bm.browser = nil
	bm.launcher = nil

	if err := bm.launchBrowser(); err != nil {
		bm.browser = oldBrowser
		bm.launcher = oldLauncher
		return
	}

	if oldBrowser != nil {
		_ = oldBrowser.Close()
	}
	if oldLauncher != nil {
		oldLauncher.Kill()
	}
	bm.pageCount = 0
}

// LauncherPID returns the process ID of the browser launcher.
// This method exists for testing purposes to verify proper cleanup.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.launcher == nil {
		return 0
	}
	return bm.launcher.PID()
}
