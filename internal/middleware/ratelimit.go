package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/stockwise/stockwise/internal/models"
)

const rateWindow = time.Minute

// window holds the timestamps of one caller's requests inside the last minute
type window struct {
	mu   sync.Mutex
	hits []time.Time
}

// take records a hit at now unless the caller is at limit. When refused, wait is
// how long until the oldest hit leaves the window.
func (w *window) take(now time.Time, limit int) (remaining int, wait time.Duration, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := now.Add(-rateWindow)
	i := 0
	for i < len(w.hits) && !w.hits[i].After(cutoff) {
		i++
	}
	w.hits = w.hits[i:]

	if len(w.hits) >= limit {
		return 0, w.hits[0].Sub(cutoff), false
	}
	w.hits = append(w.hits, now)
	return limit - len(w.hits), 0, true
}

func (w *window) idleSince(cutoff time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.hits) == 0 || w.hits[len(w.hits)-1].Before(cutoff)
}

// RateLimiter is a per-key sliding window limiter
type RateLimiter struct {
	limit int
	now   func() time.Time

	mu      sync.Mutex
	windows map[string]*window
	sweeps  int
}

func NewRateLimiter(limitPerMinute int) *RateLimiter {
	return &RateLimiter{limit: limitPerMinute, now: time.Now, windows: make(map[string]*window)}
}

// Allow records one request for key
func (rl *RateLimiter) Allow(key string) (remaining int, wait time.Duration, ok bool) {
	now := rl.now()
	return rl.window(key, now).take(now, rl.limit)
}

// window returns key's window, dropping idle windows every 256 lookups
func (rl *RateLimiter) window(key string, now time.Time) *window {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.sweeps++
	if rl.sweeps%256 == 0 {
		cutoff := now.Add(-rateWindow)
		for k, w := range rl.windows {
			if k != key && w.idleSince(cutoff) {
				delete(rl.windows, k)
			}
		}
	}

	w, ok := rl.windows[key]
	if !ok {
		w = &window{}
		rl.windows[key] = w
	}
	return w
}

// RateLimit allows limitPerMinute requests per caller in a sliding one-minute
// window. Callers are keyed by authenticated user, then API key, then address.
func RateLimit(limitPerMinute int, header string) func(http.Handler) http.Handler {
	rl := NewRateLimiter(limitPerMinute)
	limit := strconv.Itoa(limitPerMinute)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, wait, ok := rl.Allow(clientKey(r, header))

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !ok {
				secs := int(math.Ceil(wait.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				models.WriteErrorBody(w, models.ErrorResponse{
					Message:   "rate limit exceeded",
					Code:      http.StatusTooManyRequests,
					Kind:      "rate_limited",
					Retryable: true,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request, header string) string {
	if u, ok := UserFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(u.ID, 10)
	}
	if header != "" {
		if key := r.Header.Get(header); key != "" {
			return "key:" + key
		}
	}
	return "addr:" + r.RemoteAddr
}
