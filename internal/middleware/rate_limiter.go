package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"cantina/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const purgeInterval = 5 * time.Minute

// window counts requests of one client IP inside a fixed time window.
type window struct {
	count int
	end   time.Time
}

// Limiter is a per-IP fixed-window request limiter.
type Limiter struct {
	limit   int
	period  time.Duration
	message string

	mu      sync.Mutex
	clients map[string]*window
}

// NewLimiter allows limit requests per period per client IP.
func NewLimiter(limit int, period time.Duration, message string) *Limiter {
	return &Limiter{limit: limit, period: period, message: message, clients: make(map[string]*window)}
}

// Allow records one request from ip and reports whether it is within the
// limit, and if not, how long until the window resets.
func (l *Limiter) Allow(ip string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.clients[ip]
	if !ok || now.After(w.end) {
		w = &window{end: now.Add(l.period)}
		l.clients[ip] = w
	}
	w.count++
	if w.count > l.limit {
		return false, w.end.Sub(now)
	}
	return true, 0
}

// Handler is the gin middleware for this limiter.
func (l *Limiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := l.Allow(c.ClientIP(), time.Now())
		if !ok {
			secs := int(wait.Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(l.message))
			return
		}
		c.Next()
	}
}

// StartPurge drops expired windows periodically until ctx is done, so IPs
// that never return do not accumulate.
func (l *Limiter) StartPurge(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := l.purge(now); n > 0 {
					log.Debug().Int("entries_purged", n).Msg("rate limiter purged")
				}
			}
		}
	}()
}

func (l *Limiter) purge(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for ip, w := range l.clients {
		if now.After(w.end) {
			delete(l.clients, ip)
			n++
		}
	}
	return n
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() *Limiter {
	return NewLimiter(20, time.Minute, "Muitas tentativas de login. Tente novamente em 1 minuto.")
}

// RateLimiter is the general API limiter.
func RateLimiter(limit int, period time.Duration) *Limiter {
	return NewLimiter(limit, period, "Muitas requisicoes. Tente novamente em instantes.")
}
