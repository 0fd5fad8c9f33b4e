package httpx

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const rateLimiterPruneInterval = 5 * time.Minute

// RateLimiter counts requests per key inside fixed windows.
type RateLimiter interface {
	Allow(key string, limit int, window time.Duration) rateDecision
	Close()
}

type rateDecision struct {
	allowed   bool
	count     int
	windowEnd time.Time
}

// rateBudget is a per-client allowance shared by a group of routes. Member reads
// and member mutations draw from separate budgets.
type rateBudget struct {
	name   string
	limit  int
	window time.Duration
}

// key identifies the caller by the connection's peer address. Forwarding headers
// are caller controlled and only appear in the audit log.
func (b rateBudget) key(req *http.Request) string {
	host := remoteHost(req)
	if host == "" {
		host = "unknown"
	}
	return b.name + ":" + host
}

// limit wraps next with budget b. An empty budget or a missing limiter disables it.
func (r *Router) limit(b rateBudget, next http.HandlerFunc) http.HandlerFunc {
	if b.limit <= 0 || r.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, req *http.Request) {
		decision := r.limiter.Allow(b.key(req), b.limit, b.window)
		setRateHeaders(w.Header(), b.limit, decision)
		if !decision.allowed {
			r.recordRateLimitHit(b.name)
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, req)
	}
}

func setRateHeaders(h http.Header, limit int, decision rateDecision) {
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(limit-decision.count, 0)))
	if !decision.windowEnd.IsZero() {
		h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.windowEnd.Unix(), 10))
	}
}

func remoteHost(req *http.Request) string {
	addr := strings.TrimSpace(req.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// memoryRateLimiter keeps one fixed window per key in process memory.
type memoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]fixedWindow
	now     func() time.Time
	stop    chan struct{}
	stopped sync.Once
}

type fixedWindow struct {
	hits    int
	resetAt time.Time
}

func (fw fixedWindow) expired(now time.Time) bool {
	return !now.Before(fw.resetAt)
}

// NewMemoryRateLimiter returns a limiter local to this process. Expired windows
// are pruned in the background until Close.
func NewMemoryRateLimiter() RateLimiter {
	rl := newMemoryRateLimiter(time.Now)
	go rl.pruneEvery(rateLimiterPruneInterval)
	return rl
}

func newMemoryRateLimiter(now func() time.Time) *memoryRateLimiter {
	return &memoryRateLimiter{
		windows: make(map[string]fixedWindow),
		now:     now,
		stop:    make(chan struct{}),
	}
}

func (rl *memoryRateLimiter) Allow(key string, limit int, window time.Duration) rateDecision {
	if limit <= 0 {
		return rateDecision{allowed: true}
	}
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	fw, ok := rl.windows[key]
	if !ok || fw.expired(now) {
		fw = fixedWindow{resetAt: now.Add(window)}
	}
	if fw.hits >= limit {
		return rateDecision{count: fw.hits, windowEnd: fw.resetAt}
	}
	fw.hits++
	rl.windows[key] = fw
	return rateDecision{allowed: true, count: fw.hits, windowEnd: fw.resetAt}
}

func (rl *memoryRateLimiter) pruneEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.prune(rl.now())
		case <-rl.stop:
			return
		}
	}
}

func (rl *memoryRateLimiter) prune(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, fw := range rl.windows {
		if fw.expired(now) {
			delete(rl.windows, key)
		}
	}
}

func (rl *memoryRateLimiter) Backend() string { return "memory" }

func (rl *memoryRateLimiter) Close() {
	rl.stopped.Do(func() { close(rl.stop) })
}
