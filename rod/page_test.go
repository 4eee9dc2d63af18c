//go:build integration

package rod_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/pagecheck"
	"github.com/fwojciec/pagecheck/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventLog struct {
	mu     sync.Mutex
	events []pagecheck.Event
}

func (l *eventLog) add(e pagecheck.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) snapshot() []pagecheck.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]pagecheck.Event(nil), l.events...)
}

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html><body>
<a href="/other.html">Other</a>
<img src="/missing.png">
<script src="/blocked.js"></script>
<script>
console.error("Broken widget", {id: 7});
setTimeout(function () { throw new TypeError("x is undefined"); }, 0);
</script>
</body></html>`))
	})
	mux.HandleFunc("/missing.png", http.NotFound)
	mux.HandleFunc("/blocked.js", func(w http.ResponseWriter, r *http.Request) {
		t.Error("blocked script was requested")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPage_ReportsErrorsAndBlocksRequests(t *testing.T) {
	t.Parallel()

	srv := newSite(t)
	browser, err := rod.Launch(pagecheck.LaunchOptions{})
	require.NoError(t, err)
	defer browser.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	page, err := browser.NewPage(ctx)
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.Intercept(func(req pagecheck.Request) bool {
		return req.URL == srv.URL+"/blocked.js"
	}))
	log := &eventLog{}
	page.Listen(log.add)

	require.NoError(t, page.Navigate(ctx, srv.URL+"/"))

	html, err := page.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, `href="/other.html"`)

	require.Eventually(t, func() bool {
		for _, e := range log.snapshot() {
			if _, ok := e.(pagecheck.ExceptionEvent); ok {
				return true
			}
		}
		return false
	}, 5*time.Second, 50*time.Millisecond)

	var sawMissing, sawBlocked, sawConsole bool
	for _, e := range log.snapshot() {
		switch e := e.(type) {
		case pagecheck.ResponseEvent:
			if e.URL == srv.URL+"/missing.png" {
				sawMissing = e.Status == http.StatusNotFound && !e.Navigation
			}
		case pagecheck.RequestFailedEvent:
			if e.URL == srv.URL+"/blocked.js" {
				sawBlocked = e.Aborted
			}
		case pagecheck.ConsoleEvent:
			if e.Level == "error" {
				sawConsole = len(e.Args) == 2 && e.Args[0] == "Broken widget"
			}
		}
	}
	assert.True(t, sawMissing, "missing image response")
	assert.True(t, sawBlocked, "aborted script request")
	assert.True(t, sawConsole, "console error")
}

func TestPage_NavigationErrorForUnreachableHost(t *testing.T) {
	t.Parallel()

	browser, err := rod.Launch(pagecheck.LaunchOptions{})
	require.NoError(t, err)
	defer browser.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	page, err := browser.NewPage(ctx)
	require.NoError(t, err)
	defer page.Close()

	err = page.Navigate(ctx, "http://127.0.0.1:1/")
	require.Error(t, err)
	assert.Equal(t, pagecheck.ENAVIGATION, pagecheck.ErrorCode(err))
	assert.Contains(t, pagecheck.ErrorMessage(err), pagecheck.NetworkErrorPrefix)
}

func TestPage_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	browser, err := rod.Launch(pagecheck.LaunchOptions{DisableSandbox: true})
	require.NoError(t, err)
	defer browser.Close()

	page, err := browser.NewPage(context.Background())
	require.NoError(t, err)

	require.NoError(t, page.Close())
	require.NoError(t, page.Close())
}
