package main_test

import (
	"context"
	"strings"
	"sync"

	"github.com/fwojciec/pagecheck"
	main "github.com/fwojciec/pagecheck/cmd/pagecheck"
	"github.com/fwojciec/pagecheck/mock"
)

// site serves in-memory pages through mock browser tabs.
type site struct {
	mu      sync.Mutex
	pages   map[string]string
	broken  map[string]bool
	visited []string
	options []pagecheck.LaunchOptions
}

func newSite(pages map[string]string) *site {
	return &site{pages: pages, broken: map[string]bool{}}
}

func (s *site) launch(opts pagecheck.LaunchOptions) (pagecheck.Browser, error) {
	s.mu.Lock()
	s.options = append(s.options, opts)
	s.mu.Unlock()
	return &mock.Browser{
		NewPageFn: func(ctx context.Context) (pagecheck.Page, error) {
			return s.newPage(), nil
		},
		CloseFn: func() error { return nil },
	}, nil
}

func (s *site) newPage() *mock.Page {
	var handler pagecheck.EventHandler
	var html string
	return &mock.Page{
		InterceptFn: func(fn pagecheck.InterceptFunc) error { return nil },
		ListenFn:    func(h pagecheck.EventHandler) { handler = h },
		NavigateFn: func(ctx context.Context, url string) error {
			s.mu.Lock()
			s.visited = append(s.visited, url)
			page, ok := s.pages[url]
			broken := s.broken[url]
			s.mu.Unlock()

			if !ok {
				handler(pagecheck.ResponseEvent{URL: url, Status: 404, Navigation: true})
				return nil
			}
			html = page
			if broken {
				handler(pagecheck.ResponseEvent{URL: strings.TrimSuffix(url, "/") + "/logo.png", Status: 404})
			}
			return nil
		},
		HTMLFn:          func() (string, error) { return html, nil },
		DismissDialogFn: func() error { return nil },
		CloseFn:         func() error { return nil },
	}
}

func (s *site) visitedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.visited...)
}

func newMain(s *site) *main.Main {
	m := main.NewMain()
	m.Launch = s.launch
	return m
}

func docsSite() *site {
	return newSite(map[string]string{
		"https://docs.example.com/": `<html><body>
			<a href="/guide/">Guide</a>
			<a href="/api/">API</a>
		</body></html>`,
		"https://docs.example.com/guide/": `<html><body><a href="/">Home</a></body></html>`,
		"https://docs.example.com/api/":   `<html><body></body></html>`,
	})
}
