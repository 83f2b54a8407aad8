package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"apparel-backoffice/internal/cache"
	"apparel-backoffice/internal/services"

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

type brokenCounters struct{}

func (brokenCounters) GetCounter(context.Context, string) (int64, bool, error) {
	return 0, false, errors.New("counter store down")
}

func (brokenCounters) PutCounter(context.Context, string, int64, time.Duration) error {
	return errors.New("counter store down")
}

func (brokenCounters) DeleteCounter(context.Context, string) error {
	return errors.New("counter store down")
}

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "subject": c.GetString(AdminSubjectKey)})
}

func TestAdminAuthMiddleware(t *testing.T) {
	tokens := services.NewTokenService("middleware-secret", time.Hour)
	router := gin.New()
	router.GET("/private", AdminAuthMiddleware(tokens), okHandler)

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"Authentication required"}`, w.Body.String())
	})

	t.Run("forged token", func(t *testing.T) {
		other, err := services.NewTokenService("another-secret", time.Hour).Mint("admin")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer "+other)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid or expired token")
	})

	t.Run("valid token exposes subject", func(t *testing.T) {
		token, err := tokens.Mint("admin")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"subject":"admin"}`, w.Body.String())
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := services.NewRateLimiter(cache.NewLocalCacheManager(nil))
	router := gin.New()
	router.POST("/quotes", RateLimitMiddleware(limiter, services.ClassQuoteSubmit, 3, time.Hour, nil), okHandler)

	post := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/quotes", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	for i := 1; i <= 3; i++ {
		w := post("203.0.113.7:5000")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, string(rune('0'+3-i)), w.Header().Get("X-RateLimit-Remaining"))
	}

	w := post("203.0.113.7:5001")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, w.Body.String(), "Please try again in an hour.")

	assert.Equal(t, http.StatusOK, post("198.51.100.2:5000").Code, "other clients keep their own window")
}

func TestRateLimitMiddlewareFailsOpen(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	limiter := services.NewRateLimiter(brokenCounters{})
	router := gin.New()
	router.POST("/quotes", RateLimitMiddleware(limiter, services.ClassQuoteSubmit, 1, time.Hour, zap.New(core)), okHandler)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/quotes", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	entries := logs.FilterMessageSnippet("rate limiter unavailable").All()
	require.Len(t, entries, 3)
	assert.Equal(t, services.ClassQuoteSubmit, entries[0].ContextMap()["class"])
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "an hour", humanize(time.Hour))
	assert.Equal(t, "2 hours", humanize(2*time.Hour))
	assert.Equal(t, "15 minutes", humanize(15*time.Minute))
	assert.Equal(t, "30 seconds", humanize(30*time.Second))
}

func TestValidationMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(ValidationMiddleware())
	router.POST("/quotes", okHandler)
	router.GET("/quotes", okHandler)

	req := httptest.NewRequest(http.MethodPost, "/quotes", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Content-Type must be application/json")

	req = httptest.NewRequest(http.MethodPost, "/quotes", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quotes", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestLogger(nil))
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"https://shop.example.com/"}))
	router.GET("/quotes", okHandler)

	req := httptest.NewRequest(http.MethodGet, "/quotes", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/quotes", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/quotes", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
