package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/linkcapture/console/internal/metrics"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const defaultLimiterMaxIdle = 30 * time.Minute

// LoginLimiter is a per-client token bucket limiter keyed by client IP.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	rate     rate.Limit
	burst    int
	maxIdle  time.Duration
	now      func() time.Time
}

// NewLoginLimiter allows perMinute sustained requests with the given burst.
func NewLoginLimiter(perMinute, burst int) *LoginLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = perMinute
	}
	return &LoginLimiter{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		rate:     rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		maxIdle:  defaultLimiterMaxIdle,
		now:      time.Now,
	}
}

// Allow reports whether a request from clientID is within limits.
func (l *LoginLimiter) Allow(clientID string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[clientID]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[clientID] = limiter
	}
	now := l.now()
	l.lastSeen[clientID] = now
	l.mu.Unlock()
	return limiter.AllowN(now, 1)
}

// Sweep drops clients idle for longer than maxIdle and returns how many.
func (l *LoginLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	now := l.now()
	for clientID, seen := range l.lastSeen {
		if now.Sub(seen) > l.maxIdle {
			delete(l.limiters, clientID)
			delete(l.lastSeen, clientID)
			removed++
		}
	}
	return removed
}

// Run sweeps idle clients every interval until ctx is done.
func (l *LoginLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := l.Sweep(); removed > 0 {
				log.WithField("removed", removed).Debug("login limiter swept idle clients")
			}
		}
	}
}

// Middleware rejects requests over the limit with 429.
func (l *LoginLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if !l.Allow(clientIP) {
			metrics.RateLimitedTotal.Inc()
			log.WithField("client_ip", clientIP).Warn("login rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
