package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"charcounter/internal/handler/http/respond"
)

// ErrRateLimited is returned to clients that exceed their request budget.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitConfig configures a ClientRateLimiter.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate allowed per client.
	RequestsPerSecond float64

	// Burst is the number of requests a client can make at once.
	Burst int

	// IdleTTL is how long an unused client bucket is kept.
	IdleTTL time.Duration
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter keeps one token bucket per client address.
type ClientRateLimiter struct {
	cfg       RateLimitConfig
	extractor IPExtractor
	logger    *slog.Logger
	onLimited func()

	mu        sync.Mutex
	clients   map[string]*clientBucket
	lastSweep time.Time
	now       func() time.Time
}

// NewClientRateLimiter creates a limiter. A nil extractor uses RemoteAddrExtractor.
// onLimited, if set, is called for every rejected request.
func NewClientRateLimiter(cfg RateLimitConfig, extractor IPExtractor, logger *slog.Logger, onLimited func()) *ClientRateLimiter {
	if extractor == nil {
		extractor = RemoteAddrExtractor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &ClientRateLimiter{
		cfg:       cfg,
		extractor: extractor,
		logger:    logger,
		onLimited: onLimited,
		clients:   make(map[string]*clientBucket),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Allow reports whether client may make a request now, consuming a token if so.
func (l *ClientRateLimiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.clients[client]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)}
		l.clients[client] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// Len returns the number of tracked clients.
func (l *ClientRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// sweep drops idle buckets at most once per IdleTTL. Caller holds l.mu.
func (l *ClientRateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.cfg.IdleTTL {
		return
	}
	l.lastSweep = now
	for key, b := range l.clients {
		if now.Sub(b.lastSeen) >= l.cfg.IdleTTL {
			delete(l.clients, key)
		}
	}
}

// Middleware rejects over-budget requests with 429 and a Retry-After header.
func (l *ClientRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client, err := l.extractor.ExtractIP(r)
		if err != nil {
			l.logger.Warn("rate limit: cannot determine client address",
				slog.String("remote_addr", r.RemoteAddr),
				slog.Any("error", err))
			client = r.RemoteAddr
		}

		if !l.Allow(client) {
			if l.onLimited != nil {
				l.onLimited()
			}
			l.logger.Info("rate limit exceeded",
				slog.String("client", client),
				slog.String("path", r.URL.Path))
			w.Header().Set("Retry-After", "1")
			respond.SafeError(w, http.StatusTooManyRequests, ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}
