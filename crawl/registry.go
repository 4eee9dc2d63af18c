package crawl

import (
	"sort"
	"strings"
	"sync"

	"github.com/fwojciec/pagecheck"
)

// Registry groups crawl errors by category and first message line, tracking
// every distinct page each error occurred on.
// It is safe for concurrent use by multiple goroutines.
type Registry struct {
	mu     sync.Mutex
	groups map[pagecheck.ErrorCategory]map[string]*group
}

type group struct {
	details string
	pages   map[string]struct{}
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		groups: make(map[pagecheck.ErrorCategory]map[string]*group),
	}
}

// Record adds err to the registry. The first occurrence of a
// (category, first line) pair stores the rest of the message as details;
// every occurrence adds its page URL.
func (r *Registry) Record(err *pagecheck.CrawlError) {
	message, details, _ := strings.Cut(err.Message, "\n")

	r.mu.Lock()
	defer r.mu.Unlock()

	byMessage, ok := r.groups[err.Category]
	if !ok {
		byMessage = make(map[string]*group)
		r.groups[err.Category] = byMessage
	}
	g, ok := byMessage[message]
	if !ok {
		g = &group{
			details: details,
			pages:   make(map[string]struct{}),
		}
		byMessage[message] = g
	}
	g.pages[err.PageURL] = struct{}{}
}

// Collections returns the error groups of a category sorted by message.
// Pages within each group are sorted.
func (r *Registry) Collections(category pagecheck.ErrorCategory) []*pagecheck.ErrorCollection {
	r.mu.Lock()
	defer r.mu.Unlock()

	byMessage := r.groups[category]
	collections := make([]*pagecheck.ErrorCollection, 0, len(byMessage))
	for message, g := range byMessage {
		pages := make([]string, 0, len(g.pages))
		for page := range g.pages {
			pages = append(pages, page)
		}
		sort.Strings(pages)
		collections = append(collections, &pagecheck.ErrorCollection{
			Category: category,
			Message:  message,
			Details:  g.details,
			Pages:    pages,
		})
	}
	sort.Slice(collections, func(i, j int) bool {
		return collections[i].Message < collections[j].Message
	})
	return collections
}

// Len returns the number of error groups across all categories.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, byMessage := range r.groups {
		n += len(byMessage)
	}
	return n
}

// Empty reports whether no errors were recorded.
func (r *Registry) Empty() bool {
	return r.Len() == 0
}
