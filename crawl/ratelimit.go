package crawl

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/fwojciec/pagecheck"
	"golang.org/x/time/rate"
)

var _ pagecheck.HostLimiter = (*HostLimiter)(nil)

// HostLimiter spaces out page visits to the same host. Visits are admitted
// at most perSecond times a second per host with no burst beyond a single
// visit. A non-positive rate admits every visit immediately.
type HostLimiter struct {
	perSecond rate.Limit

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewHostLimiter returns a HostLimiter admitting perSecond visits per host.
func NewHostLimiter(perSecond float64) *HostLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &HostLimiter{
		perSecond: limit,
		buckets:   make(map[string]*rate.Limiter),
	}
}

// Wait blocks until pageURL's host may be visited. URLs without a host are
// admitted immediately.
func (l *HostLimiter) Wait(ctx context.Context, pageURL string) error {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ctx.Err()
	}
	return l.bucket(strings.ToLower(u.Host)).Wait(ctx)
}

func (l *HostLimiter) bucket(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[host]
	if !ok {
		b = rate.NewLimiter(l.perSecond, 1)
		l.buckets[host] = b
	}
	return b
}
