package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"shelf-scanner/backend/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// IPRateLimiter manages per-IP rate limiting
type IPRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
}

// NewIPRateLimiter creates a new IP-based rate limiter
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		rate:  r,
		burst: burst,
	}
}

// PerMinute returns a limiter allowing n requests per minute per IP, with a burst of n
func PerMinute(n int) *IPRateLimiter {
	return NewIPRateLimiter(rate.Every(time.Minute/time.Duration(n)), n)
}

// GetLimiter returns the rate limiter for a given IP
func (l *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	limiter, _ := l.limiters.LoadOrStore(ip, rate.NewLimiter(l.rate, l.burst))
	return limiter.(*rate.Limiter)
}

// DailyQuota manages global daily request quota
type DailyQuota struct {
	count   int64
	limit   int64
	resetAt time.Time
	now     func() time.Time
	mu      sync.Mutex
}

// NewDailyQuota creates a new daily quota manager
func NewDailyQuota(limit int64) *DailyQuota {
	q := &DailyQuota{
		limit: limit,
		now:   time.Now,
	}
	q.resetAt = nextMidnightPT(q.now())
	return q
}

// Allow checks if a request is allowed and increments the counter
func (q *DailyQuota) Allow() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.resetIfDue()
	if q.count >= q.limit {
		return false
	}
	q.count++
	return true
}

// Remaining returns the remaining quota
func (q *DailyQuota) Remaining() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.resetIfDue()
	return q.limit - q.count
}

// Count returns the current count
func (q *DailyQuota) Count() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.resetIfDue()
	return q.count
}

// RetryAfter returns the time left until the quota resets
func (q *DailyQuota) RetryAfter() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.resetAt.Sub(q.now())
}

// resetIfDue must be called with mu held
func (q *DailyQuota) resetIfDue() {
	if now := q.now(); now.After(q.resetAt) {
		q.count = 0
		q.resetAt = nextMidnightPT(now)
	}
}

// nextMidnightPT returns the next midnight in Pacific Time (Gemini API reset time)
func nextMidnightPT(from time.Time) time.Time {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		// Fallback to UTC if timezone not found
		loc = time.UTC
	}
	now := from.In(loc)
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, loc)
}

// RateLimitMiddleware applies the per-IP limit first, then the global daily quota.
// Only requests that pass the per-IP limit count against the quota.
// Either one rejects with 429, a Retry-After header and the error envelope.
func RateLimitMiddleware(ipLimiter *IPRateLimiter, quota *DailyQuota, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := ipLimiter.GetLimiter(ip)
		reservation := limiter.Reserve()
		if !reservation.OK() {
			reject(c, time.Minute, "RATE_LIMITED", "Too many requests. Please slow down.")
			return
		}
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			logger.Info("rate limit hit", zap.String("ip", ip), zap.Duration("retry_after", delay))
			reject(c, delay, "RATE_LIMITED", "Too many requests. Please slow down.")
			return
		}

		if !quota.Allow() {
			logger.Warn("daily quota exhausted", zap.Int64("count", quota.Count()))
			reject(c, quota.RetryAfter(), "DAILY_QUOTA_EXCEEDED", "Daily request quota exceeded. Please come back tomorrow.")
			return
		}

		c.Next()
	}
}

func reject(c *gin.Context, retryAfter time.Duration, code, message string) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, model.NewErrorResponse(code, message))
}
