// Package report renders the outcome of a crawl run for people: a styled
// terminal summary and a Markdown document for CI artifacts.
package report

import (
	"fmt"
	"time"

	"github.com/fwojciec/pagecheck"
	"github.com/fwojciec/pagecheck/crawl"
)

// Writer renders a crawl result.
type Writer interface {
	Write(res *crawl.Result) error
}

// section is the error groups of one category.
type section struct {
	category    pagecheck.ErrorCategory
	collections []*pagecheck.ErrorCollection
}

// sections returns the categories with at least one group, in report order.
func sections(res *crawl.Result) []section {
	var out []section
	if res.Errors == nil {
		return out
	}
	for _, category := range pagecheck.Categories() {
		collections := res.Errors.Collections(category)
		if len(collections) == 0 {
			continue
		}
		out = append(out, section{category: category, collections: collections})
	}
	return out
}

func groupCount(n int) string {
	if n == 1 {
		return "1 group"
	}
	return fmt.Sprintf("%d groups", n)
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
