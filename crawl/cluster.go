package crawl

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/pagecheck"
	"golang.org/x/sync/semaphore"
)

// QueueItem is one URL waiting to be checked.
type QueueItem struct {
	URL            string
	ParentURL      string
	RemainingDepth int
}

// TaskFunc checks a single queued URL in a freshly opened page.
type TaskFunc func(ctx context.Context, page pagecheck.Page, item QueueItem) error

// BeforeAttemptFunc runs ahead of every task attempt, before a concurrency
// slot is taken and before the attempt timeout starts. A non-nil error fails
// the attempt.
type BeforeAttemptFunc func(ctx context.Context, item QueueItem) error

// TaskErrorFunc is called whenever a task attempt fails.
type TaskErrorFunc func(err error, item QueueItem, willRetry bool)

// ClusterConfig configures a Cluster.
type ClusterConfig struct {
	// Concurrency is the maximum number of tasks running at once.
	Concurrency int

	// Timeout bounds each task attempt.
	Timeout time.Duration

	// RetryDelays holds the wait before each retry of a failed task.
	// Its length is the retry limit.
	RetryDelays []time.Duration
}

// ErrTaskTimeout is returned for a task attempt that exceeded its timeout.
var ErrTaskTimeout = pagecheck.Errorf(pagecheck.EINTERNAL, "task timed out")

// Cluster runs queued tasks on a bounded pool of browser tabs. Every attempt
// gets its own tab, closed when the attempt ends.
//
// Queue may be called from inside a running task. Cluster is safe for
// concurrent use.
type Cluster struct {
	browser pagecheck.Browser
	config  ClusterConfig
	sem     *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool

	mu            sync.RWMutex
	task          TaskFunc
	beforeAttempt BeforeAttemptFunc
	onTaskError   TaskErrorFunc
}

// NewCluster creates a Cluster that opens tabs in browser. Canceling ctx
// stops all queued and running tasks.
func NewCluster(ctx context.Context, browser pagecheck.Browser, config ClusterConfig) *Cluster {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Cluster{
		browser: browser,
		config:  config,
		sem:     semaphore.NewWeighted(int64(config.Concurrency)),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Task sets the function run for every queued item.
func (c *Cluster) Task(fn TaskFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.task = fn
}

// BeforeAttempt sets the function run ahead of every attempt, such as a rate
// limiter wait.
func (c *Cluster) BeforeAttempt(fn BeforeAttemptFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.beforeAttempt = fn
}

// OnTaskError sets the function called when a task attempt fails.
func (c *Cluster) OnTaskError(fn TaskErrorFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTaskError = fn
}

// Queue schedules item. It never blocks. Items queued after Close are dropped.
func (c *Cluster) Queue(item QueueItem) {
	if c.closed.Load() {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(item)
	}()
}

// Idle blocks until every queued task has finished, including tasks queued
// while waiting.
func (c *Cluster) Idle(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work, cancels running tasks and closes the browser.
// Close is safe to call multiple times.
func (c *Cluster) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.cancel()
	c.wg.Wait()
	return c.browser.Close()
}

func (c *Cluster) run(item QueueItem) {
	c.mu.RLock()
	task, before, onTaskError := c.task, c.beforeAttempt, c.onTaskError
	c.mu.RUnlock()

	if task == nil {
		return
	}

	attempt := func(ctx context.Context) error {
		if before != nil {
			if err := before(ctx, item); err != nil {
				return err
			}
		}
		return c.attempt(ctx, task, item)
	}
	onErr := func(err error, _ int, willRetry bool) {
		if onTaskError != nil {
			onTaskError(err, item, willRetry)
		}
	}
	_ = RetryWithDelays(c.ctx, attempt, onErr, c.config.RetryDelays)
}

// attempt runs task once in a new tab, holding one concurrency slot.
func (c *Cluster) attempt(ctx context.Context, task TaskFunc, item QueueItem) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	page, err := c.browser.NewPage(ctx)
	if err != nil {
		return fmt.Errorf("opening page: %w", err)
	}
	defer page.Close()

	// A task that ignores ctx outlives its attempt. It is still counted in
	// wg so Idle and Close wait for it and its Queue calls stay ordered.
	done := make(chan error, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		done <- task(ctx, page, item)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if c.ctx.Err() != nil {
			return c.ctx.Err()
		}
		return fmt.Errorf("%w after %s: %s", ErrTaskTimeout, c.config.Timeout, item.URL)
	}
}
