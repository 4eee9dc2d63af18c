package mock

import (
	"context"

	"github.com/fwojciec/pagecheck"
)

// Compile-time interface verification.
var (
	_ pagecheck.Browser     = (*Browser)(nil)
	_ pagecheck.Page        = (*Page)(nil)
	_ pagecheck.HostLimiter = (*HostLimiter)(nil)
)

// Browser is a mock implementation of pagecheck.Browser.
type Browser struct {
	NewPageFn func(ctx context.Context) (pagecheck.Page, error)
	CloseFn   func() error
}

func (b *Browser) NewPage(ctx context.Context) (pagecheck.Page, error) {
	return b.NewPageFn(ctx)
}

func (b *Browser) Close() error {
	return b.CloseFn()
}

// Page is a mock implementation of pagecheck.Page.
type Page struct {
	InterceptFn     func(fn pagecheck.InterceptFunc) error
	ListenFn        func(handler pagecheck.EventHandler)
	NavigateFn      func(ctx context.Context, url string) error
	HTMLFn          func() (string, error)
	DismissDialogFn func() error
	CloseFn         func() error
}

func (p *Page) Intercept(fn pagecheck.InterceptFunc) error {
	return p.InterceptFn(fn)
}

func (p *Page) Listen(handler pagecheck.EventHandler) {
	p.ListenFn(handler)
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	return p.NavigateFn(ctx, url)
}

func (p *Page) HTML() (string, error) {
	return p.HTMLFn()
}

func (p *Page) DismissDialog() error {
	return p.DismissDialogFn()
}

func (p *Page) Close() error {
	return p.CloseFn()
}

// HostLimiter is a mock implementation of pagecheck.HostLimiter.
type HostLimiter struct {
	WaitFn func(ctx context.Context, pageURL string) error
}

func (l *HostLimiter) Wait(ctx context.Context, pageURL string) error {
	return l.WaitFn(ctx, pageURL)
}
