package crawl

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
	"github.com/fwojciec/pagecheck"
)

// IgnoreWildcard matches every error of its category.
const IgnoreWildcard = "*"

// IgnorePatterns maps a category to the set of patterns suppressing its
// errors on one page.
type IgnorePatterns map[pagecheck.ErrorCategory]map[string]struct{}

// ParseIgnorePatterns builds ignore patterns from the JSON content of a page's
// ignore-patterns meta tag. Keys are category tags and values are a string or
// an array of strings. Malformed JSON yields no patterns, and unknown tags are
// dropped.
func ParseIgnorePatterns(content string) IgnorePatterns {
	patterns := make(IgnorePatterns)

	var raw map[string]any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return patterns
	}

	for tag, value := range raw {
		category, ok := pagecheck.CategoryFromTag(tag)
		if !ok {
			continue
		}
		set := make(map[string]struct{})
		for _, pattern := range pagecheck.ToSlice[string](value) {
			if pattern == "" {
				continue
			}
			set[pattern] = struct{}{}
		}
		if len(set) == 0 {
			continue
		}
		patterns[category] = set
	}
	return patterns
}

// MarkIgnored sets Ignored on every error matched by patterns. A pattern
// matches when it is the wildcard, or a substring of the error message with
// ANSI escapes and control characters removed, or a substring of the failed
// resource URL.
func MarkIgnored(errs []*pagecheck.CrawlError, patterns IgnorePatterns) {
	for _, e := range errs {
		set, ok := patterns[e.Category]
		if !ok {
			continue
		}
		message := stripControl(e.Message)
		for pattern := range set {
			if pattern == IgnoreWildcard ||
				strings.Contains(message, pattern) ||
				(e.FailedResourceURL != "" && strings.Contains(e.FailedResourceURL, pattern)) {
				e.Ignored = true
				break
			}
		}
	}
}

// Unignored returns the errors not marked as ignored.
func Unignored(errs []*pagecheck.CrawlError) []*pagecheck.CrawlError {
	var out []*pagecheck.CrawlError
	for _, e := range errs {
		if !e.Ignored {
			out = append(out, e)
		}
	}
	return out
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, ansi.Strip(s))
}
