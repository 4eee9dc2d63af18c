package pagecheck

// ErrorCategory identifies one of the kinds of runtime failure the crawler
// detects on a page.
type ErrorCategory int

// Error categories in report order.
const (
	PageCrash ErrorCategory = iota + 1
	UncaughtException
	RequestFailure
	ResponseFailure
	ConsoleError
	NavigationError
)

type categoryInfo struct {
	tag         string
	description string
	event       string
}

var categories = map[ErrorCategory]categoryInfo{
	PageCrash: {
		tag:         "page-crash",
		description: "Page crash",
		event:       "Inspector.targetCrashed",
	},
	UncaughtException: {
		tag:         "uncaught-exception",
		description: "Uncaught exception",
		event:       "Runtime.exceptionThrown",
	},
	RequestFailure: {
		tag:         "request-failure",
		description: "Request failure",
		event:       "Network.loadingFailed",
	},
	ResponseFailure: {
		tag:         "response-failure",
		description: "Response failure",
		event:       "Network.responseReceived",
	},
	ConsoleError: {
		tag:         "console-error",
		description: "Console error",
		event:       "Runtime.consoleAPICalled",
	},
	NavigationError: {
		tag:         "navigation-error",
		description: "Navigation error",
	},
}

// Categories returns every error category in report order.
func Categories() []ErrorCategory {
	return []ErrorCategory{
		PageCrash,
		UncaughtException,
		RequestFailure,
		ResponseFailure,
		ConsoleError,
		NavigationError,
	}
}

// CategoryFromTag returns the category for a metadata type tag such as
// "console-error". The bool result is false for unknown tags.
func CategoryFromTag(tag string) (ErrorCategory, bool) {
	for c, info := range categories {
		if info.tag == tag {
			return c, true
		}
	}
	return 0, false
}

// Tag returns the type tag used for the category in page metadata.
func (c ErrorCategory) Tag() string {
	return categories[c].tag
}

// Description returns a human-readable name of the category.
func (c ErrorCategory) Description() string {
	if info, ok := categories[c]; ok {
		return info.description
	}
	return "Unknown error"
}

// Event returns the name of the browser protocol event the category is
// derived from. NavigationError has no underlying event.
func (c ErrorCategory) Event() string {
	return categories[c].event
}

// String implements fmt.Stringer.
func (c ErrorCategory) String() string {
	return c.Description()
}
