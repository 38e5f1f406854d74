// Package loginlimit counts failed password logins per client and account
// name and blocks further attempts once a threshold is reached.
package loginlimit

import (
	"net"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Options configures a Limiter.
type Options struct {
	MaxFailures int
	Window      time.Duration
	Capacity    int
}

// Limiter tracks failures in a bounded LRU. Each recorded failure restarts
// the key's window, so a client must stay quiet for a full window to recover.
type Limiter struct {
	mu    sync.Mutex
	max   int
	cache *expirable.LRU[string, int]
}

// New builds a Limiter. Non-positive options fall back to 5 failures in 15 minutes
// over 10000 keys.
func New(opts Options) *Limiter {
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = 5
	}
	if opts.Window <= 0 {
		opts.Window = 15 * time.Minute
	}
	if opts.Capacity <= 0 {
		opts.Capacity = 10000
	}
	return &Limiter{
		max:   opts.MaxFailures,
		cache: expirable.NewLRU[string, int](opts.Capacity, nil, opts.Window),
	}
}

// Key builds the limiter key from the client address and the submitted name.
func Key(remoteAddr, username string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	return host + "|" + strings.ToLower(strings.TrimSpace(username))
}

// Allowed reports whether another attempt may be made for key.
func (l *Limiter) Allowed(key string) bool {
	n, ok := l.cache.Peek(key)
	return !ok || n < l.max
}

// Fail records one failed attempt and returns the running count.
func (l *Limiter) Fail(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, _ := l.cache.Peek(key)
	n++
	l.cache.Add(key, n)
	return n
}

// Reset forgets key, typically after a successful login.
func (l *Limiter) Reset(key string) {
	l.cache.Remove(key)
}
