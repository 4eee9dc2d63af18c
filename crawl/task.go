package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/fwojciec/pagecheck"
	"github.com/fwojciec/pagecheck/goquery"
)

// failedToLoadPrefix starts console messages the browser logs for failed
// resources. Those failures are already reported by the network listeners.
const failedToLoadPrefix = "Failed to load resource"

// Default request block lists.
var (
	// DefaultBlockedHosts lists third-party hosts whose requests are aborted.
	DefaultBlockedHosts = []string{
		"www.google-analytics.com",
		"www.googletagmanager.com",
		"cdn.cookielaw.org",
		"ckeditor.com/dashboard",
	}

	// DefaultBlockedPaths lists path fragments of large assets irrelevant to
	// error detection.
	DefaultBlockedPaths = []string{
		"/assets/sample-video.mp4",
	}
)

// PageTask checks one page: it intercepts requests, listens for every error
// category, navigates, follows links while depth remains and filters the
// collected errors through the page's own ignore patterns.
type PageTask struct {
	// BaseURL is the crawl scope. Only links starting with it are followed.
	BaseURL string

	// Exclusions drops any discovered link containing one of the substrings.
	Exclusions []string

	// BlockedHosts and BlockedPaths abort matching requests.
	BlockedHosts []string
	BlockedPaths []string

	// IgnoreSucceededPOST drops request failures reported for POST requests
	// that already received a successful response.
	IgnoreSucceededPOST bool

	Discovered *Discovered
	Queue      func(QueueItem)
	Logger     *slog.Logger
}

// Run implements TaskFunc. It returns *pagecheck.PageErrors when errors that
// are not ignored were observed.
func (t *PageTask) Run(ctx context.Context, page pagecheck.Page, item QueueItem) error {
	logger := t.logger().With("url", item.URL)

	if err := page.Intercept(t.intercept); err != nil {
		return fmt.Errorf("enabling request interception: %w", err)
	}

	collector := &collector{pageURL: item.URL}
	page.Listen(func(event pagecheck.Event) {
		t.handleEvent(page, collector, event)
	})

	if err := page.Navigate(ctx, item.URL); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !strings.HasPrefix(pagecheck.ErrorMessage(err), pagecheck.NetworkErrorPrefix) {
			collector.add(pagecheck.NavigationError, navigationMessage(err), "")
		}
	}

	var html string
	if item.RemainingDepth != 0 {
		var err error
		if html, err = page.HTML(); err != nil {
			logger.Debug("reading page HTML", "err", err)
		} else {
			t.queueLinks(html, item, logger)
		}
	}

	errs := collector.errors()
	if len(errs) == 0 {
		return nil
	}

	if html == "" {
		html, _ = page.HTML()
	}
	if content, ok := goquery.MetaContent(html, goquery.IgnorePatternsMeta); ok {
		MarkIgnored(errs, ParseIgnorePatterns(content))
	}

	if remaining := Unignored(errs); len(remaining) > 0 {
		return &pagecheck.PageErrors{URL: item.URL, Errors: remaining}
	}
	return nil
}

// intercept aborts media, blocked hosts and blocked paths.
func (t *PageTask) intercept(req pagecheck.Request) bool {
	if req.ResourceType == pagecheck.ResourceMedia {
		return true
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		return false
	}
	hostPath := u.Host + u.Path
	for _, host := range t.BlockedHosts {
		if u.Host == host || strings.HasPrefix(hostPath, host) {
			return true
		}
	}
	for _, path := range t.BlockedPaths {
		if strings.Contains(u.Path, path) {
			return true
		}
	}
	return false
}

func (t *PageTask) handleEvent(page pagecheck.Page, c *collector, event pagecheck.Event) {
	switch e := event.(type) {
	case pagecheck.DialogEvent:
		if err := page.DismissDialog(); err != nil {
			t.logger().Debug("dismissing dialog", "url", c.pageURL, "err", err)
		}
	case pagecheck.CrashEvent:
		c.add(pagecheck.PageCrash, e.Message, "")
	case pagecheck.ExceptionEvent:
		c.add(pagecheck.UncaughtException, e.Message, "")
	case pagecheck.RequestFailedEvent:
		if e.Aborted {
			return
		}
		if t.IgnoreSucceededPOST && e.Method == "POST" && e.Status > 0 && e.Status < 400 {
			return
		}
		c.addResourceFailure(pagecheck.RequestFailure, e.Navigation, e.URL, e.ErrorText)
	case pagecheck.ResponseEvent:
		if e.Status < 400 {
			return
		}
		c.addResourceFailure(pagecheck.ResponseFailure, e.Navigation, e.URL, fmt.Sprintf("HTTP code: %d", e.Status))
	case pagecheck.ConsoleEvent:
		if e.Level != "error" {
			return
		}
		message := strings.TrimSpace(strings.Join(e.Args, " "))
		if message == "" || strings.HasPrefix(message, failedToLoadPrefix) {
			return
		}
		line, _, _ := strings.Cut(message, "\n")
		c.add(pagecheck.ConsoleError, line, "")
	}
}

// queueLinks queues every link of html that is in scope and not yet discovered.
func (t *PageTask) queueLinks(html string, item QueueItem, logger *slog.Logger) {
	links, err := goquery.ExtractLinks(html, item.URL, goquery.SkipAttribute)
	if err != nil {
		logger.Debug("extracting links", "err", err)
		return
	}
	for _, link := range links {
		if !strings.HasPrefix(link, t.BaseURL) {
			continue
		}
		if t.excluded(link) {
			continue
		}
		if !t.Discovered.Add(link) {
			continue
		}
		t.Queue(QueueItem{
			URL:            link,
			ParentURL:      item.URL,
			RemainingDepth: item.RemainingDepth - 1,
		})
	}
}

func (t *PageTask) excluded(link string) bool {
	for _, exclusion := range t.Exclusions {
		if exclusion != "" && strings.Contains(link, exclusion) {
			return true
		}
	}
	return false
}

func (t *PageTask) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return t.Logger
}

// navigationMessage returns the message of a navigation failure.
func navigationMessage(err error) string {
	var e *pagecheck.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// collector accumulates the errors of one page task attempt. Event handlers
// may run concurrently.
type collector struct {
	pageURL string

	mu   sync.Mutex
	errs []*pagecheck.CrawlError
}

func (c *collector) add(category pagecheck.ErrorCategory, message, resourceURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, &pagecheck.CrawlError{
		PageURL:           c.pageURL,
		Category:          category,
		Message:           message,
		FailedResourceURL: resourceURL,
	})
}

// addResourceFailure records a failed request or response. Failures of the
// page's own navigation request are navigation errors.
func (c *collector) addResourceFailure(category pagecheck.ErrorCategory, navigation bool, resourceURL, reason string) {
	if navigation {
		c.add(pagecheck.NavigationError, fmt.Sprintf("Failed to open page: %s (%s)", resourceURL, reason), resourceURL)
		return
	}
	c.add(category, fmt.Sprintf("Failed to load resource: %s (%s)", resourceHost(resourceURL), reason), resourceURL)
}

func (c *collector) errors() []*pagecheck.CrawlError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*pagecheck.CrawlError(nil), c.errs...)
}

// resourceHost returns host and path of a resource URL, or the raw URL when
// it cannot be parsed. Query strings are dropped so that cache-busting
// parameters do not split error groups.
func resourceHost(resourceURL string) string {
	u, err := url.Parse(resourceURL)
	if err != nil || u.Host == "" {
		return resourceURL
	}
	return u.Host + u.Path
}
