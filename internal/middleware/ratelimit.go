package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultRate      = rate.Limit(3)
	DefaultBurst     = 7
	visitorIdleAfter = 3 * time.Minute
	sweepInterval    = time.Minute
)

// visitor holds the rate limiter for one caller and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller key.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

func NewRateLimiter(limit rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		now:      time.Now,
	}
}

func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = l.now()
	return v.limiter.Allow()
}

// Sweep drops visitors idle for longer than three minutes.
func (l *RateLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, v := range l.visitors {
		if l.now().Sub(v.lastSeen) > visitorIdleAfter {
			delete(l.visitors, key)
		}
	}
}

// Run sweeps idle visitors every minute until ctx is done.
func (l *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

func (l *RateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Handler limits requests per key. keyFn returning "" falls back to the
// client IP.
func (l *RateLimiter) Handler(keyFn func(c *fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := keyFn(c)
		if key == "" {
			key = "ip:" + c.IP()
		}

		if !l.Allow(key) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"ok":    false,
				"error": "rate_limited",
			})
		}
		return c.Next()
	}
}

// DepositKey identifies the depositor named in a deposit body.
func DepositKey(c *fiber.Ctx) string {
	var body struct {
		TelegramID *int64 `json:"telegram_id"`
		UserID     *int64 `json:"user_id"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return ""
	}

	switch {
	case body.UserID != nil:
		return "user:" + strconv.FormatInt(*body.UserID, 10)
	case body.TelegramID != nil:
		return "tg:" + strconv.FormatInt(*body.TelegramID, 10)
	}
	return ""
}
