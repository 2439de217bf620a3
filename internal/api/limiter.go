/*
Package api
File: limiter.go
Description: Per-IP token buckets for the click endpoint.
*/

package api

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// clickLimiter keeps one token bucket per client IP.
type clickLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newClickLimiter(perSecond float64, burst int) *clickLimiter {
	if perSecond <= 0 {
		perSecond = 20
	}
	if burst < 1 {
		burst = 1
	}
	return &clickLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *clickLimiter) allow(ip string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
