package main

import (
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/pagecheck/crawl"
)

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	URL                   string          `arg:"" required:"" help:"Start URL of the site to check"`
	Depth                 int             `short:"d" default:"-1" help:"Maximum link depth from the start URL (-1 for unlimited)"`
	Exclusions            []string        `short:"e" help:"Skip links containing any of these substrings"`
	Timeout               time.Duration   `short:"t" default:"15s" help:"Timeout for checking a single page"`
	Concurrency           int             `short:"c" help:"Pages checked at once (default: half the CPUs)"`
	Retries               int             `default:"3" help:"Retries for a page that keeps failing"`
	RetryDelay            time.Duration   `default:"1s" help:"Wait between retries of a page"`
	Rate                  float64         `help:"Maximum page visits per second per host (0 for no limit)"`
	DisableBrowserSandbox bool            `help:"Launch Chrome without its sandbox (needed in some containers)"`
	IgnoreHTTPSErrors     bool            `name:"ignore-https-errors" help:"Ignore TLS certificate errors"`
	Silent                bool            `short:"s" help:"Hide the progress display"`
	Debug                 bool            `help:"Log browser activity to stderr"`
	Report                string          `short:"r" type:"path" help:"Also write a Markdown report to this file"`
	Config                kong.ConfigFlag `help:"Load flag defaults from a YAML file"`
}

// Check returns the check command configured from the parsed flags.
func (c *CLI) Check() *CheckCmd {
	opts := crawl.DefaultOptions(c.URL)
	opts.Depth = c.Depth
	opts.Exclusions = c.Exclusions
	opts.Timeout = c.Timeout
	if c.Concurrency > 0 {
		opts.Concurrency = c.Concurrency
	}
	opts.RetryDelays = crawl.FixedDelays(max(0, c.Retries), c.RetryDelay)
	opts.DisableBrowserSandbox = c.DisableBrowserSandbox
	opts.IgnoreHTTPSErrors = c.IgnoreHTTPSErrors

	return &CheckCmd{
		Options:    opts,
		Rate:       c.Rate,
		Silent:     c.Silent,
		ReportPath: c.Report,
	}
}
