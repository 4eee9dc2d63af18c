package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"sync"

	"github.com/fwojciec/pagecheck"
	"github.com/fwojciec/pagecheck/crawl"
	"github.com/fwojciec/pagecheck/report"
	pcslog "github.com/fwojciec/pagecheck/slog"
)

// CheckCmd crawls a site and reports the errors found.
type CheckCmd struct {
	Options    crawl.Options
	Rate       float64
	Silent     bool
	ReportPath string
}

// Run executes the check command. It returns ErrPageErrorsFound when the
// crawl completed with errors.
func (c *CheckCmd) Run(deps *Dependencies) error {
	launch := deps.Launch
	logger := deps.Logger

	crawler := &crawl.Crawler{
		Launch: func(opts pagecheck.LaunchOptions) (pagecheck.Browser, error) {
			browser, err := launch(opts)
			if err != nil {
				return nil, err
			}
			return pcslog.NewLoggingBrowser(browser, logger), nil
		},
		Logger: logger,
	}
	if c.Rate > 0 {
		crawler.RateLimiter = crawl.NewHostLimiter(c.Rate)
	}

	var progress crawl.ProgressFunc
	if !c.Silent {
		progress = newProgressPrinter(deps.Stdout).print
	}

	res, err := crawler.Run(deps.Ctx, c.Options, progress)
	if err != nil {
		if pagecheck.ErrorCode(err) == pagecheck.EINVALID {
			return fmt.Errorf("error: %s", pagecheck.ErrorMessage(err))
		}
		if deps.Ctx.Err() == nil {
			fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed")
		}
		return err
	}

	if err := report.NewTextWriter(deps.Stdout).Write(res); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if c.ReportPath != "" {
		if err := writeReportFile(c.ReportPath, res); err != nil {
			return err
		}
		fmt.Fprintf(deps.Stdout, "Report written to %s\n", c.ReportPath)
	}

	if !res.Errors.Empty() {
		return ErrPageErrorsFound
	}
	return nil
}

func writeReportFile(path string, res *crawl.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing report file: %w", cerr)
		}
	}()
	if err := report.NewMarkdownWriter(f).Write(res); err != nil {
		return fmt.Errorf("writing report file: %w", err)
	}
	return nil
}

// progressPrinter renders crawl progress on a single terminal line.
// Progress events arrive from concurrent page tasks.
type progressPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out}
}

func (p *progressPrinter) print(e crawl.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Type {
	case crawl.ProgressStarted:
		fmt.Fprintf(p.out, "Checking %s\n", e.URL)
	case crawl.ProgressCompleted, crawl.ProgressFailed:
		mark := " "
		if e.Type == crawl.ProgressFailed {
			mark = "✖"
		}
		fmt.Fprintf(p.out, "\r[%d/%d] %s %s", e.Completed, e.Total, mark, truncateURL(e.URL, 40))
	case crawl.ProgressFinished:
		// Clear progress line
		fmt.Fprintf(p.out, "\r%80s\r", "")
		fmt.Fprintf(p.out, "Checked %d pages\n\n", e.Completed)
	}
}

// truncateURL shortens a URL for display by showing only the path.
// This makes progress more useful when many URLs share the same host prefix.
func truncateURL(rawURL string, maxLen int) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		if len(rawURL) <= maxLen {
			return rawURL
		}
		return rawURL[:maxLen-3] + "..."
	}

	path := parsed.Path
	if path == "" {
		path = "/"
	}

	if len(path) <= maxLen {
		return path
	}

	return "..." + path[len(path)-maxLen+3:]
}
