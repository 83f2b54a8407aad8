package handlers

import (
	"net/http"
	"time"

	"apparel-backoffice/docs"
	"apparel-backoffice/internal/middleware"
	"apparel-backoffice/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const quoteWindow = time.Hour

// RouterDeps carries everything NewRouter mounts. WebSocket may be nil.
type RouterDeps struct {
	Tokens     *services.TokenService
	Limiter    *services.RateLimiter
	Admin      *AdminHandler
	Quotes     *QuoteHandler
	Content    *ContentHandler
	Health     *HealthHandler
	WebSocket  *WebSocketHandler
	QuoteLimit int
	Logger     *zap.Logger

	TrustedProxies  []string
	TrustedPlatform string
	AllowedOrigins  []string
}

// NewRouter builds the gin engine with the public and admin routes.
func NewRouter(deps RouterDeps) (*gin.Engine, error) {
	router := gin.New()

	if err := router.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, err
	}
	switch deps.TrustedPlatform {
	case "":
	case "cloudflare":
		router.TrustedPlatform = gin.PlatformCloudflare
	case "google":
		router.TrustedPlatform = gin.PlatformGoogleAppEngine
	default:
		router.TrustedPlatform = deps.TrustedPlatform
	}

	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(deps.AllowedOrigins))
	router.Use(middleware.ValidationMiddleware())

	requireAdmin := middleware.AdminAuthMiddleware(deps.Tokens)

	admin := router.Group("/admin")
	admin.POST("/login", deps.Admin.Login)
	admin.POST("/credentials", requireAdmin, deps.Admin.ChangeCredentials)

	router.GET("/data/:key", deps.Content.GetContent)
	router.POST("/data/:key", requireAdmin, deps.Content.PutContent)

	router.POST("/quotes",
		middleware.RateLimitMiddleware(deps.Limiter, services.ClassQuoteSubmit, deps.QuoteLimit, quoteWindow, deps.Logger),
		deps.Quotes.SubmitQuote,
	)
	router.GET("/quotes", requireAdmin, deps.Quotes.ListQuotes)
	router.PUT("/quotes", requireAdmin, deps.Quotes.UpdateStatus)
	router.GET("/track/:id", deps.Quotes.TrackQuote)

	if deps.WebSocket != nil {
		router.GET("/ws/admin", deps.WebSocket.HandleConnections)
	}

	router.GET("/health", deps.Health.Health)
	router.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(docs.SwaggerInfo.ReadDoc()))
	})

	return router, nil
}
