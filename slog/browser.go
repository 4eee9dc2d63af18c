package slog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fwojciec/pagecheck"
)

// Ensure the logging wrappers implement their interfaces.
var (
	_ pagecheck.Browser = (*LoggingBrowser)(nil)
	_ pagecheck.Page    = (*LoggingPage)(nil)
)

// LoggingBrowser wraps a Browser with debug logging of page lifecycles.
type LoggingBrowser struct {
	next   pagecheck.Browser
	logger *slog.Logger
}

// NewLoggingBrowser creates a new LoggingBrowser.
func NewLoggingBrowser(next pagecheck.Browser, logger *slog.Logger) *LoggingBrowser {
	return &LoggingBrowser{next: next, logger: logger}
}

// NewPage delegates to the wrapped browser and wraps the page.
func (b *LoggingBrowser) NewPage(ctx context.Context) (pagecheck.Page, error) {
	page, err := b.next.NewPage(ctx)
	if err != nil {
		b.logger.Debug("open page", "err", err)
		return nil, err
	}
	return &LoggingPage{next: page, logger: b.logger}, nil
}

// Close delegates to the wrapped browser.
func (b *LoggingBrowser) Close() error {
	err := b.next.Close()
	b.logger.Debug("close browser", "err", err)
	return err
}

// LoggingPage wraps a Page with debug logging of navigations and events.
type LoggingPage struct {
	next   pagecheck.Page
	logger *slog.Logger

	// url is read from event handlers running on the browser's goroutines.
	mu  sync.Mutex
	url string
}

func (p *LoggingPage) setURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

func (p *LoggingPage) currentURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Intercept delegates to the wrapped page and logs aborted requests.
func (p *LoggingPage) Intercept(fn pagecheck.InterceptFunc) error {
	return p.next.Intercept(func(req pagecheck.Request) bool {
		abort := fn(req)
		if abort {
			p.logger.Debug("abort request",
				"url", req.URL,
				"type", req.ResourceType,
			)
		}
		return abort
	})
}

// Listen delegates to the wrapped page.
func (p *LoggingPage) Listen(handler pagecheck.EventHandler) {
	p.next.Listen(func(event pagecheck.Event) {
		if crash, ok := event.(pagecheck.CrashEvent); ok {
			p.logger.Warn("page crashed", "url", p.currentURL(), "message", crash.Message)
		}
		handler(event)
	})
}

// Navigate logs the navigation with its duration.
func (p *LoggingPage) Navigate(ctx context.Context, url string) (err error) {
	p.setURL(url)
	defer func(begin time.Time) {
		p.logger.Info("navigate",
			"url", url,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.Navigate(ctx, url)
}

// HTML delegates to the wrapped page.
func (p *LoggingPage) HTML() (html string, err error) {
	defer func() {
		p.logger.Debug("read html",
			"url", p.currentURL(),
			"bytes", len(html),
			"err", err,
		)
	}()
	return p.next.HTML()
}

// DismissDialog delegates to the wrapped page.
func (p *LoggingPage) DismissDialog() error {
	p.logger.Debug("dismiss dialog", "url", p.currentURL())
	return p.next.DismissDialog()
}

// Close delegates to the wrapped page.
func (p *LoggingPage) Close() error {
	return p.next.Close()
}
