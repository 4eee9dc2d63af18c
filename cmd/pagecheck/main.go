package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/pagecheck"
	"github.com/fwojciec/pagecheck/rod"
)

// ErrPageErrorsFound is returned when the crawl finished but found errors.
// The report has already been printed, so main exits without a message.
var ErrPageErrorsFound = errors.New("errors found")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if errors.Is(err, ErrPageErrorsFound) {
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Launch starts the browser. Tests replace it to avoid Chrome.
	Launch pagecheck.LaunchFunc
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		Launch: rod.Launch,
	}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("pagecheck"),
		kong.Description("Crawl a documentation site in headless Chrome and report runtime errors"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Configuration(LoadConfig),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no arguments provided")
	}

	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	if _, err := parser.Parse(args); err != nil {
		return err
	}

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Launch: m.Launch,
		Logger: newLogger(cli.Debug, stderr),
	}

	return cli.Check().Run(deps)
}

// Dependencies holds what the check command needs at runtime.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Launch pagecheck.LaunchFunc
	Logger *slog.Logger
}

// newLogger returns a debug text logger on w, or a discarding logger.
func newLogger(debug bool, w io.Writer) *slog.Logger {
	if !debug {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
