package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"apparel-backoffice/internal/logging"
	"apparel-backoffice/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminSubjectKey holds the verified token subject in the gin context.
const AdminSubjectKey = "admin_subject"

func abortJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

// AdminAuthMiddleware requires a valid session token.
func AdminAuthMiddleware(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := BearerToken(c)
		if tokenString == "" {
			abortJSON(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		subject, err := tokens.Subject(tokenString)
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		c.Set(AdminSubjectKey, subject)
		c.Next()
	}
}

// RateLimitMiddleware admits at most limit requests per client IP per window for class.
// When the counter store is unreachable the request is let through and logged at error level.
func RateLimitMiddleware(limiter *services.RateLimiter, class string, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	logger = logging.OrNop(logger)
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		ok, err := limiter.Admit(c.Request.Context(), class, clientIP, limit, window)
		if err != nil {
			logger.Error("rate limiter unavailable, admitting request without a limit",
				zap.String("class", class),
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		if !ok {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			abortJSON(c, http.StatusTooManyRequests,
				fmt.Sprintf("Too many requests. Please try again in %s.", humanize(window)))
			return
		}

		if count, err := limiter.Count(c.Request.Context(), class, clientIP); err == nil {
			remaining := int64(limit) - count
			if remaining < 0 {
				remaining = 0
			}
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		}

		c.Next()
	}
}

func humanize(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "an hour"
		}
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d >= time.Minute:
		return fmt.Sprintf("%d minutes", int(d.Round(time.Minute)/time.Minute))
	default:
		return fmt.Sprintf("%d seconds", int(d.Round(time.Second)/time.Second))
	}
}

func ValidationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Content-Type validation for POST/PUT requests
		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut {
			contentType := c.GetHeader("Content-Type")
			if !strings.Contains(contentType, "application/json") {
				abortJSON(c, http.StatusBadRequest, "Content-Type must be application/json")
				return
			}
		}
		c.Next()
	}
}
