package pagecheck

import "context"

// NetworkErrorPrefix marks low-level network errors reported by the browser
// (e.g. "net::ERR_NAME_NOT_RESOLVED").
const NetworkErrorPrefix = "net::"

// Browser opens browser tabs.
type Browser interface {
	// NewPage opens a blank tab. The caller must Close it.
	NewPage(ctx context.Context) (Page, error)

	// Close releases browser resources.
	Close() error
}

// Page is a single browser tab.
//
// Intercept and Listen must be called before Navigate so that nothing fired
// during navigation is missed.
type Page interface {
	// Intercept enables request interception. fn decides for every request
	// whether it continues or is aborted.
	Intercept(fn InterceptFunc) error

	// Listen subscribes handler to runtime events of the page.
	// Handler may be called concurrently from multiple goroutines.
	Listen(handler EventHandler)

	// Navigate loads url and waits for the page to settle.
	// Low-level network failures are returned as ENAVIGATION errors whose
	// message starts with NetworkErrorPrefix.
	Navigate(ctx context.Context, url string) error

	// HTML returns the serialized DOM of the page in its current state.
	HTML() (string, error)

	// DismissDialog dismisses an open alert, confirm or prompt dialog.
	DismissDialog() error

	// Close closes the tab.
	Close() error
}

// Request describes an outgoing request seen by an interceptor.
type Request struct {
	URL          string
	Method       string
	ResourceType string
}

// Resource types reported for requests.
const (
	ResourceDocument = "Document"
	ResourceMedia    = "Media"
)

// InterceptFunc returns true when the request should be aborted.
type InterceptFunc func(req Request) (abort bool)

// EventHandler receives page events. Implementations dispatch with a type
// switch over the concrete event types below.
type EventHandler func(event Event)

// Event is a runtime signal emitted by a Page.
type Event interface {
	event()
}

// CrashEvent fires when the page's renderer crashes.
type CrashEvent struct {
	Message string
}

// ExceptionEvent fires for an exception not caught by page scripts.
type ExceptionEvent struct {
	Message string
}

// RequestFailedEvent fires when a request could not be completed.
type RequestFailedEvent struct {
	URL       string
	Method    string
	ErrorText string

	// Navigation is true for the request driving the main frame's own load.
	Navigation bool

	// Aborted is true when the request was aborted by an interceptor.
	Aborted bool

	// Status is the HTTP status received before the failure, or 0.
	Status int
}

// ResponseEvent fires for every response received by the page.
type ResponseEvent struct {
	URL        string
	Status     int
	Navigation bool
}

// ConsoleEvent fires when page scripts log to the console.
type ConsoleEvent struct {
	Level string
	Args  []string
}

// DialogEvent fires when the page opens an alert, confirm or prompt dialog.
type DialogEvent struct {
	Type    string
	Message string
}

func (CrashEvent) event()         {}
func (ExceptionEvent) event()     {}
func (RequestFailedEvent) event() {}
func (ResponseEvent) event()      {}
func (ConsoleEvent) event()       {}
func (DialogEvent) event()        {}

// HostLimiter throttles page visits per host.
type HostLimiter interface {
	// Wait blocks until pageURL's host may be visited again, or until ctx
	// is done.
	Wait(ctx context.Context, pageURL string) error
}

// LaunchOptions configures a browser launch.
type LaunchOptions struct {
	// DisableSandbox relaxes the browser's process sandbox, for CI
	// containers that cannot provide one.
	DisableSandbox bool

	// IgnoreHTTPSErrors accepts invalid and self-signed certificates.
	IgnoreHTTPSErrors bool
}

// LaunchFunc starts a browser.
type LaunchFunc func(opts LaunchOptions) (Browser, error)
