package crawl_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/fwojciec/pagecheck"
	"github.com/fwojciec/pagecheck/mock"
)

// fakePage describes how a URL behaves when visited in the fake site.
type fakePage struct {
	html        string
	events      []pagecheck.Event
	navigateErr error

	// failAttempts makes the first N visits emit an uncaught exception.
	failAttempts int
}

// fakeSite is an in-memory site served through mock browser pages.
type fakeSite struct {
	mu       sync.Mutex
	pages    map[string]*fakePage
	visits   map[string]int
	requests []pagecheck.Request
	aborted  []string
	opened   int
	closed   int
}

func newFakeSite(pages map[string]*fakePage) *fakeSite {
	return &fakeSite{
		pages:  pages,
		visits: make(map[string]int),
	}
}

func (s *fakeSite) launch(pagecheck.LaunchOptions) (pagecheck.Browser, error) {
	return s.browser(), nil
}

func (s *fakeSite) browser() *mock.Browser {
	return &mock.Browser{
		NewPageFn: func(ctx context.Context) (pagecheck.Page, error) {
			s.mu.Lock()
			s.opened++
			s.mu.Unlock()
			return s.newPage(), nil
		},
		CloseFn: func() error { return nil },
	}
}

func (s *fakeSite) newPage() *mock.Page {
	var intercept pagecheck.InterceptFunc
	var handler pagecheck.EventHandler
	var current *fakePage

	return &mock.Page{
		InterceptFn: func(fn pagecheck.InterceptFunc) error {
			intercept = fn
			return nil
		},
		ListenFn: func(h pagecheck.EventHandler) {
			handler = h
		},
		NavigateFn: func(ctx context.Context, url string) error {
			s.mu.Lock()
			s.visits[url]++
			attempt := s.visits[url]
			page, ok := s.pages[url]
			s.mu.Unlock()

			if !ok {
				handler(pagecheck.ResponseEvent{URL: url, Status: 404, Navigation: true})
				current = &fakePage{html: "<html><body>Not found</body></html>"}
				return nil
			}
			current = page

			if intercept != nil {
				req := pagecheck.Request{URL: url, Method: "GET", ResourceType: pagecheck.ResourceDocument}
				s.mu.Lock()
				s.requests = append(s.requests, req)
				s.mu.Unlock()
				if intercept(req) {
					s.mu.Lock()
					s.aborted = append(s.aborted, url)
					s.mu.Unlock()
				}
			}
			for _, e := range page.events {
				handler(e)
			}
			if attempt <= page.failAttempts {
				handler(pagecheck.ExceptionEvent{Message: fmt.Sprintf("flaky failure %d", attempt)})
			}
			return page.navigateErr
		},
		HTMLFn: func() (string, error) {
			if current == nil {
				return "", fmt.Errorf("no document")
			}
			return current.html, nil
		},
		DismissDialogFn: func() error { return nil },
		CloseFn: func() error {
			s.mu.Lock()
			s.closed++
			s.mu.Unlock()
			return nil
		},
	}
}

func (s *fakeSite) visitCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visits[url]
}

func (s *fakeSite) visitedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var urls []string
	for u := range s.visits {
		urls = append(urls, u)
	}
	return urls
}

// linksPage returns an HTML document linking to every href.
func linksPage(hrefs ...string) string {
	html := "<html><head></head><body>"
	for _, href := range hrefs {
		html += fmt.Sprintf(`<a href="%s">link</a>`, href)
	}
	return html + "</body></html>"
}
