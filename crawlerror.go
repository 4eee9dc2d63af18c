package pagecheck

import (
	"fmt"
	"strings"
)

// CrawlError is a single failure observed while visiting a page.
type CrawlError struct {
	PageURL  string
	Category ErrorCategory
	Message  string

	// FailedResourceURL is set for request and response failures.
	FailedResourceURL string

	// Ignored is set when a page's ignore patterns match the error.
	// Ignored errors are never reported.
	Ignored bool
}

// FirstLine returns the first line of the message, used as the grouping key.
func (e *CrawlError) FirstLine() string {
	line, _, _ := strings.Cut(e.Message, "\n")
	return line
}

// PageErrors aggregates the errors of one page task attempt that survived
// ignore-pattern filtering. A page task returns it to signal a retryable
// failure.
type PageErrors struct {
	URL    string
	Errors []*CrawlError
}

// Error implements the error interface.
func (e *PageErrors) Error() string {
	return fmt.Sprintf("%d error(s) on %s", len(e.Errors), e.URL)
}

// ErrorCollection groups every occurrence of one error, identified by its
// category and the first line of its message.
type ErrorCollection struct {
	Category ErrorCategory
	Message  string
	Details  string
	Pages    []string
}
