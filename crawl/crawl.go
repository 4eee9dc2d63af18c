// Package crawl provides the crawl orchestration: the worker pool of browser
// tabs, the per-page task, and the error registry and ignore-pattern logic
// shared by both.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/fwojciec/pagecheck"
	"github.com/google/uuid"
)

// Crawl defaults.
const (
	// DefaultTimeout bounds a single page task attempt.
	DefaultTimeout = 15 * time.Second

	// Unlimited depth follows links without a depth limit.
	Unlimited = -1

	// SeedParent is the parent URL recorded for the start URL.
	SeedParent = "(seed)"
)

// DefaultConcurrency returns half of the logical CPUs, at least 1.
func DefaultConcurrency() int {
	return max(1, runtime.NumCPU()/2)
}

// Options configures a crawl run.
type Options struct {
	// URL is the start page. Only links sharing its base URL are followed.
	URL string

	// Depth limits how many links away from URL the crawl goes.
	// Unlimited (negative) follows links without limit.
	Depth int

	// Exclusions drops any discovered link containing one of the substrings.
	Exclusions []string

	// Timeout bounds each page task attempt. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Concurrency is the number of pages checked at once.
	// Defaults to DefaultConcurrency.
	Concurrency int

	// RetryDelays holds the wait before each retry of a failing page.
	// Defaults to DefaultRetryDelays.
	RetryDelays []time.Duration

	DisableBrowserSandbox bool
	IgnoreHTTPSErrors     bool
}

// DefaultOptions returns Options for url with every default applied.
func DefaultOptions(url string) Options {
	return Options{
		URL:         url,
		Depth:       Unlimited,
		Timeout:     DefaultTimeout,
		Concurrency: DefaultConcurrency(),
		RetryDelays: DefaultRetryDelays(),
	}
}

// Result holds the outcome of a crawl run.
type Result struct {
	RunID    string
	URL      string
	Errors   *Registry
	Visited  int
	Failed   int
	Duration time.Duration
}

// ProgressEvent reports progress during a crawl run.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	URL       string
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// Crawler checks every page of a site for runtime errors.
type Crawler struct {
	Launch      pagecheck.LaunchFunc
	RateLimiter pagecheck.HostLimiter
	Logger      *slog.Logger

	// BlockedHosts and BlockedPaths default to DefaultBlockedHosts and
	// DefaultBlockedPaths when nil.
	BlockedHosts []string
	BlockedPaths []string
}

// Run crawls the site at opts.URL and returns the errors found. The progress
// callback, if provided, receives events as crawling proceeds.
// An error is returned only when the crawl could not run at all.
func (c *Crawler) Run(ctx context.Context, opts Options, progress ProgressFunc) (*Result, error) {
	if !pagecheck.IsURLValid(opts.URL) {
		return nil, pagecheck.Errorf(pagecheck.EINVALID, "invalid start URL %q: expected an http or https URL", opts.URL)
	}
	baseURL, err := pagecheck.BaseURL(opts.URL)
	if err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency()
	}
	if opts.RetryDelays == nil {
		opts.RetryDelays = DefaultRetryDelays()
	}
	if progress == nil {
		progress = func(ProgressEvent) {}
	}

	runID := uuid.NewString()
	logger := c.logger().With("run", runID)
	begin := time.Now()

	browser, err := c.Launch(pagecheck.LaunchOptions{
		DisableSandbox:    opts.DisableBrowserSandbox,
		IgnoreHTTPSErrors: opts.IgnoreHTTPSErrors,
	})
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	cluster := NewCluster(ctx, browser, ClusterConfig{
		Concurrency: opts.Concurrency,
		Timeout:     opts.Timeout,
		RetryDelays: opts.RetryDelays,
	})
	defer cluster.Close()

	registry := NewRegistry()
	discovered := NewDiscovered()
	var completed, failed atomic.Int64

	cluster.OnTaskError(func(err error, item QueueItem, willRetry bool) {
		if willRetry {
			logger.Debug("retrying page", "url", item.URL, "err", err)
			return
		}
		if ctx.Err() != nil {
			return
		}
		failed.Add(1)

		var pageErrs *pagecheck.PageErrors
		if errors.As(err, &pageErrs) {
			for _, e := range pageErrs.Errors {
				registry.Record(e)
			}
		} else {
			registry.Record(&pagecheck.CrawlError{
				PageURL:  item.URL,
				Category: pagecheck.PageCrash,
				Message:  err.Error(),
			})
		}
		progress(ProgressEvent{
			Type:      ProgressFailed,
			Completed: int(completed.Add(1)),
			Total:     discovered.Len(),
			URL:       item.URL,
			Error:     err,
		})
	})

	task := &PageTask{
		BaseURL:             baseURL,
		Exclusions:          opts.Exclusions,
		BlockedHosts:        c.BlockedHosts,
		BlockedPaths:        c.BlockedPaths,
		IgnoreSucceededPOST: true,
		Discovered:          discovered,
		Queue:               cluster.Queue,
		Logger:              logger,
	}
	if task.BlockedHosts == nil {
		task.BlockedHosts = DefaultBlockedHosts
	}
	if task.BlockedPaths == nil {
		task.BlockedPaths = DefaultBlockedPaths
	}

	if c.RateLimiter != nil {
		cluster.BeforeAttempt(func(ctx context.Context, item QueueItem) error {
			return c.RateLimiter.Wait(ctx, item.URL)
		})
	}
	cluster.Task(func(ctx context.Context, page pagecheck.Page, item QueueItem) error {
		if err := task.Run(ctx, page, item); err != nil {
			return err
		}
		progress(ProgressEvent{
			Type:      ProgressCompleted,
			Completed: int(completed.Add(1)),
			Total:     discovered.Len(),
			URL:       item.URL,
		})
		return nil
	})

	progress(ProgressEvent{Type: ProgressStarted, Total: 1, URL: opts.URL})
	logger.Info("crawl started",
		"url", opts.URL,
		"depth", opts.Depth,
		"concurrency", opts.Concurrency,
		"timeout", opts.Timeout,
	)

	discovered.Add(baseURL)
	cluster.Queue(QueueItem{
		URL:            opts.URL,
		ParentURL:      SeedParent,
		RemainingDepth: opts.Depth,
	})

	idleErr := cluster.Idle(ctx)
	if err := cluster.Close(); err != nil {
		logger.Warn("closing browser", "err", err)
	}
	if idleErr != nil {
		return nil, idleErr
	}

	result := &Result{
		RunID:    runID,
		URL:      opts.URL,
		Errors:   registry,
		Visited:  discovered.Len(),
		Failed:   int(failed.Load()),
		Duration: time.Since(begin),
	}

	progress(ProgressEvent{
		Type:      ProgressFinished,
		Completed: result.Visited,
		Total:     result.Visited,
	})
	logger.Info("crawl finished",
		"visited", result.Visited,
		"failed", result.Failed,
		"groups", registry.Len(),
		"duration", result.Duration,
	)

	return result, nil
}

func (c *Crawler) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}
