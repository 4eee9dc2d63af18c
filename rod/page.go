package rod

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fwojciec/pagecheck"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Page implements pagecheck.Page at compile time.
var _ pagecheck.Page = (*Page)(nil)

// Page is a browser tab driven over the DevTools protocol.
type Page struct {
	page    *rod.Page
	ctx     context.Context
	cancel  context.CancelFunc
	release func()

	mu     sync.Mutex
	router *rod.HijackRouter
	closed bool
}

func newPage(page *rod.Page, release func()) *Page {
	ctx, cancel := context.WithCancel(context.Background())
	return &Page{
		page:    page.Context(ctx),
		ctx:     ctx,
		cancel:  cancel,
		release: release,
	}
}

// Intercept routes every request of the tab through fn. Requests for which
// fn returns true are failed as blocked by the client.
func (p *Page) Intercept(fn pagecheck.InterceptFunc) error {
	router := p.page.HijackRequests()
	err := router.Add("*", "", func(h *rod.Hijack) {
		req := pagecheck.Request{
			URL:          h.Request.URL().String(),
			Method:       h.Request.Method(),
			ResourceType: string(h.Request.Type()),
		}
		if fn(req) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		return fmt.Errorf("adding request route: %w", err)
	}

	p.mu.Lock()
	p.router = router
	p.mu.Unlock()

	go router.Run()
	return nil
}

// Listen starts delivering the tab's events to handler until the page is
// closed. Handler is called from a single goroutine.
func (p *Page) Listen(handler pagecheck.EventHandler) {
	t := newTranslator(p.page.FrameID, handler, p.describe)
	go p.page.EachEvent(
		t.crashed,
		t.exceptionThrown,
		t.requestWillBeSent,
		t.responseReceived,
		t.loadingFinished,
		t.loadingFailed,
		t.consoleAPICalled,
		t.dialogOpening,
	)()
}

// Navigate opens url and waits until the network is almost idle.
func (p *Page) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx)
	wait := page.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)

	if err := page.Navigate(url); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var navErr *rod.NavigationError
		if errors.As(err, &navErr) {
			return pagecheck.Errorf(pagecheck.ENAVIGATION, "%s", navErr.Reason)
		}
		return fmt.Errorf("navigating to %s: %w", url, err)
	}

	wait()
	return ctx.Err()
}

// HTML returns the serialized DOM of the tab.
func (p *Page) HTML() (string, error) {
	return p.page.HTML()
}

// DismissDialog cancels the dialog currently open in the tab.
func (p *Page) DismissDialog() error {
	return proto.PageHandleJavaScriptDialog{Accept: false}.Call(p.page)
}

// Close stops interception and event delivery and closes the tab.
// Close is safe to call multiple times.
func (p *Page) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	router := p.router
	p.mu.Unlock()

	defer p.release()

	var errs []error
	if router != nil {
		errs = append(errs, router.Stop())
	}
	p.cancel()
	errs = append(errs, p.page.Context(context.Background()).Close())
	return errors.Join(errs...)
}

func (p *Page) describe(obj *proto.RuntimeRemoteObject) (string, error) {
	v, err := p.page.ObjectToJSON(obj)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}
