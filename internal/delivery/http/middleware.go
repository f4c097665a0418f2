package http

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ioko18/magflow-erp-sub002/internal/domain"
)

// CORSMiddleware handles CORS for the ERP frontends calling the matcher
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		if isAllowedOrigin(origin, allowedOrigins) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Max-Age", "3600")
		}

		// Handle preflight requests
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// isAllowedOrigin checks if the origin is in the allowed list
func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			return true
		}
		// Support wildcard prefix matching, e.g. https://*.example.com
		if strings.HasSuffix(allowed, "*") {
			prefix := strings.TrimSuffix(allowed, "*")
			if strings.HasPrefix(origin, prefix) {
				return true
			}
		} else if origin == allowed {
			return true
		}
	}
	return false
}

// limiterIdleTimeout is how long a client IP may go unseen before its
// limiter is evicted. A full token bucket carries no state worth keeping.
const limiterIdleTimeout = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterPool holds one token bucket per client IP, evicting idle entries
// so the map does not grow unbounded over the life of the process.
type limiterPool struct {
	mu        sync.Mutex
	perMinute int
	clients   map[string]*clientLimiter
}

func newLimiterPool(perMinute int) *limiterPool {
	pool := &limiterPool{
		perMinute: perMinute,
		clients:   make(map[string]*clientLimiter),
	}

	// Cleanup goroutine removes idle client entries periodically.
	go pool.cleanupIdle()

	return pool
}

func (p *limiterPool) allow(ip string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	client, ok := p.clients[ip]
	if !ok {
		client = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(p.perMinute)/60.0), p.perMinute),
		}
		p.clients[ip] = client
	}
	client.lastSeen = time.Now()
	return client.limiter.Allow()
}

func (p *limiterPool) cleanupIdle() {
	ticker := time.NewTicker(limiterIdleTimeout)
	defer ticker.Stop()

	for range ticker.C {
		p.evictIdle(limiterIdleTimeout)
	}
}

// evictIdle drops every client not seen within maxIdle.
func (p *limiterPool) evictIdle(maxIdle time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	for ip, client := range p.clients {
		if client.lastSeen.Before(cutoff) {
			delete(p.clients, ip)
		}
	}
}

func (p *limiterPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

// RateLimitMiddleware limits each client IP to perMinute requests. Match
// runs are O(n^2) in batch size, so the endpoint is an easy target for
// accidental self-inflicted load.
func RateLimitMiddleware(perMinute int) gin.HandlerFunc {
	pool := newLimiterPool(perMinute)

	return func(c *gin.Context) {
		if !pool.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": domain.ErrRateLimited.Error()})
			return
		}
		c.Next()
	}
}

// LoggerMiddleware logs requests (simple version for now)
func LoggerMiddleware() gin.HandlerFunc {
	return gin.Logger()
}

// RecoveryMiddleware recovers from panics
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.Recovery()
}
