package authapi

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// rateLimiter is an in-memory sliding-window counter keyed by caller key
// (normally client IP). One limiter guards one route.
//
// State is per process. Behind a load balancer with several replicas the
// effective limit multiplies by the replica count; acceptable for an
// abuse brake, not for billing-grade quotas.
type rateLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	hits    map[string][]time.Time
	lastGC  time.Time
	nowFunc func() time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		hits:    make(map[string][]time.Time),
		nowFunc: time.Now,
	}
}

// Allow records an attempt for key and reports whether it is within the
// window's budget. When denied it also reports how long until the oldest
// attempt ages out.
func (l *rateLimiter) Allow(key string) (bool, time.Duration) {
	now := l.nowFunc()
	cut := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cut) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.limit {
		l.hits[key] = recent
		retryAfter := recent[0].Sub(cut)
		return false, retryAfter
	}

	l.hits[key] = append(recent, now)
	l.maybeGC(now)
	return true, 0
}

// maybeGC drops keys whose every attempt has aged out. Called under mu.
func (l *rateLimiter) maybeGC(now time.Time) {
	if now.Sub(l.lastGC) < l.window {
		return
	}
	l.lastGC = now
	cut := now.Add(-l.window)
	for key, times := range l.hits {
		live := false
		for _, t := range times {
			if t.After(cut) {
				live = true
				break
			}
		}
		if !live {
			delete(l.hits, key)
		}
	}
}

// limitBy wraps next with a per-IP rate limit.
func limitBy(l *rateLimiter, trustProxy bool, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, retryAfter := l.Allow(clientIPKey(r, trustProxy))
		if !ok {
			writeRateLimited(w, retryAfter)
			return
		}
		next(w, r)
	}
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	secs := int64(retryAfter.Seconds())
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	writeError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts, please retry later")
}

// clientIPKey extracts the caller's IP as a limiter key. An unparseable
// remote address buckets under a shared key rather than bypassing the limit.
func clientIPKey(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if raw := r.Header.Get("X-Forwarded-For"); raw != "" {
			for _, part := range strings.Split(raw, ",") {
				if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
					return ip.String()
				}
			}
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip.String()
		}
	}
	return "unknown"
}
