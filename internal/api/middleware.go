package api

import (
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"medtrack/internal/metrics"
)

func (s *Server) authMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get("Authorization")
		if auth == "" {
			return c.Status(401).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenString := strings.TrimPrefix(auth, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			return []byte(s.config.Security.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			return c.Status(401).JSON(fiber.Map{"error": "invalid token"})
		}

		return c.Next()
	}
}

func (s *Server) metricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		metrics.RecordResponseTime(time.Since(start))
		metrics.RecordRequest(err == nil && c.Response().StatusCode() < 400)
		return err
	}
}

// clientLimiter keeps a token bucket per remote address. Idle buckets
// are dropped after an hour.
type clientLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientBucket
	rps      rate.Limit
	burst    int
	lastSeen time.Duration
}

type clientBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	return &clientLimiter{
		clients:  make(map[string]*clientBucket),
		rps:      rate.Limit(rps),
		burst:    burst,
		lastSeen: time.Hour,
	}
}

func (l *clientLimiter) allow(addr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.clients[addr]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[addr] = b
	}
	b.seen = time.Now()

	if len(l.clients) > 1000 {
		l.evictStale()
	}
	return b.limiter.Allow()
}

func (l *clientLimiter) evictStale() {
	cutoff := time.Now().Add(-l.lastSeen)
	for addr, b := range l.clients {
		if b.seen.Before(cutoff) {
			delete(l.clients, addr)
		}
	}
}

func (s *Server) rateLimitMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.limiter.allow(c.IP()) {
			return c.Status(429).JSON(fiber.Map{"error": "too many requests"})
		}
		return c.Next()
	}
}
