package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/rosto/internal/domain"
)

// RateLimiterConfig holds rate limiting settings.
type RateLimiterConfig struct {
	// Max requests per window.
	Max int
	// Window duration.
	Window time.Duration
	// KeyGenerator derives the bucket key. Defaults to the client IP.
	KeyGenerator func(c *fiber.Ctx) string
}

// DefaultRateLimiterConfig limits each client IP. The extractor behind the
// enroll and verify routes is the expensive resource being shielded.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Max:    60,
		Window: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}
}

// clientWindow tracks one client's fixed window.
type clientWindow struct {
	count      int
	windowEnd  time.Time
	lastAccess time.Time
}

// RateLimiter implements per-client fixed-window rate limiting in memory.
type RateLimiter struct {
	config  RateLimiterConfig
	clients map[string]*clientWindow
	mu      sync.Mutex
	done    chan struct{}
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	defaults := DefaultRateLimiterConfig()
	if config.Max == 0 {
		config.Max = defaults.Max
	}
	if config.Window == 0 {
		config.Window = defaults.Window
	}
	if config.KeyGenerator == nil {
		config.KeyGenerator = defaults.KeyGenerator
	}

	rl := &RateLimiter{
		config:  config,
		clients: make(map[string]*clientWindow),
		done:    make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Stop shuts down the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.done)
}

// Handler returns the fiber middleware.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := rl.config.KeyGenerator(c)
		if key == "" {
			return c.Next()
		}

		now := time.Now()

		rl.mu.Lock()
		window, exists := rl.clients[key]
		if !exists || now.After(window.windowEnd) {
			window = &clientWindow{windowEnd: now.Add(rl.config.Window)}
			rl.clients[key] = window
		}
		window.count++
		window.lastAccess = now
		count := window.count
		windowEnd := window.windowEnd
		rl.mu.Unlock()

		remaining := rl.config.Max - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.config.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Set("X-RateLimit-Reset", windowEnd.Format(time.RFC3339))

		if count > rl.config.Max {
			c.Set("Retry-After", strconv.Itoa(int(time.Until(windowEnd).Seconds())))
			return domain.ErrRateLimitExceeded
		}

		return c.Next()
	}
}

// cleanup drops clients idle for more than two windows.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			now := time.Now()
			rl.mu.Lock()
			for key, window := range rl.clients {
				if now.Sub(window.lastAccess) > 2*rl.config.Window {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}
