package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func get(r http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDailyQuota(t *testing.T) {
	q := NewDailyQuota(2)

	assert.True(t, q.Allow())
	assert.True(t, q.Allow())
	assert.False(t, q.Allow())
	assert.Equal(t, int64(2), q.Count())
	assert.Equal(t, int64(0), q.Remaining())
	assert.Greater(t, q.RetryAfter(), time.Duration(0))
}

func TestDailyQuotaResetsAfterMidnight(t *testing.T) {
	q := NewDailyQuota(1)
	require.True(t, q.Allow())
	require.False(t, q.Allow())

	resetAt := q.resetAt
	q.now = func() time.Time { return resetAt.Add(time.Second) }

	assert.Equal(t, int64(1), q.Remaining())
	assert.True(t, q.Allow())
	assert.True(t, q.resetAt.After(resetAt))
}

func TestNextMidnightPT(t *testing.T) {
	from := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	next := nextMidnightPT(from)

	assert.True(t, next.After(from))
	assert.Equal(t, 0, next.Hour())
	assert.LessOrEqual(t, next.Sub(from), 24*time.Hour)
}

func TestIPRateLimiterIsPerIP(t *testing.T) {
	l := PerMinute(1)

	assert.Same(t, l.GetLimiter("10.0.0.1"), l.GetLimiter("10.0.0.1"))
	assert.NotSame(t, l.GetLimiter("10.0.0.1"), l.GetLimiter("10.0.0.2"))
}

func TestRateLimitMiddlewarePerIP(t *testing.T) {
	r := newRouter(RateLimitMiddleware(PerMinute(2), NewDailyQuota(100), zap.NewNop()))

	assert.Equal(t, http.StatusOK, get(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, get(r, "10.0.0.1").Code)

	limited := get(r, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"status":"error","message":"Too many requests. Please slow down.","code":"RATE_LIMITED"}`, limited.Body.String())

	assert.Equal(t, http.StatusOK, get(r, "10.0.0.2").Code)
}

func TestRateLimitMiddlewareDailyQuota(t *testing.T) {
	r := newRouter(RateLimitMiddleware(PerMinute(100), NewDailyQuota(1), nil))

	assert.Equal(t, http.StatusOK, get(r, "10.0.0.1").Code)

	exhausted := get(r, "10.0.0.2")
	assert.Equal(t, http.StatusTooManyRequests, exhausted.Code)
	assert.Contains(t, exhausted.Body.String(), "DAILY_QUOTA_EXCEEDED")
}

func TestRateLimitMiddlewareThrottledIPDoesNotDrainQuota(t *testing.T) {
	quota := NewDailyQuota(10)
	r := newRouter(RateLimitMiddleware(PerMinute(1), quota, nil))

	assert.Equal(t, http.StatusOK, get(r, "10.0.0.1").Code)
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusTooManyRequests, get(r, "10.0.0.1").Code)
	}
	assert.Equal(t, int64(1), quota.Count())

	assert.Equal(t, http.StatusOK, get(r, "10.0.0.2").Code)
	assert.Equal(t, int64(2), quota.Count())
}

func TestSecurityHeaders(t *testing.T) {
	r := newRouter(SecurityHeaders())

	w := get(r, "10.0.0.1")

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", w.Header().Get("X-XSS-Protection"))
	assert.NotEmpty(t, w.Header().Get("Referrer-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestSecurityHeadersHSTSBehindProxy(t *testing.T) {
	r := newRouter(SecurityHeaders())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=")

	tlsReq := httptest.NewRequest(http.MethodGet, "/ping", nil)
	tlsReq.TLS = &tls.ConnectionState{}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, tlsReq)

	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := newRouter(RequestLogger(zap.New(core)))

	w := get(r, "10.0.0.1")

	assert.Equal(t, http.StatusOK, w.Code)
	requestID := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, requestID)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, requestID, entries[0].ContextMap()["request_id"])
	assert.Equal(t, "/ping", entries[0].ContextMap()["path"])
}

func TestRequestLoggerKeepsValidIncomingID(t *testing.T) {
	r := newRouter(RequestLogger(zap.NewNop()))
	const id = "0b6f6a4e-1c55-4c2e-9d7a-3a1f1f2b9c11"

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, id)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, id, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid\r\n")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.NotEqual(t, "not-a-uuid\r\n", w.Header().Get(RequestIDHeader))
}
