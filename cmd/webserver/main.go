package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"apparel-backoffice/configs"
	"apparel-backoffice/internal/cache"
	"apparel-backoffice/internal/database"
	"apparel-backoffice/internal/handlers"
	"apparel-backoffice/internal/logging"
	"apparel-backoffice/internal/services"
	"apparel-backoffice/internal/sheets"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// @title Apparel Back-Office API
// @version 1.0
// @description Admin sessions, quote ledger and public order tracking for the apparel storefront

// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

const shutdownTimeout = 15 * time.Second

type ledgerBackend interface {
	services.LedgerGateway
	handlers.Pinger
}

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *configs.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.UsingFallbackSecret {
		logger.Warn("JWT_SECRET is not set, signing admin sessions with the built-in development secret. Never deploy like this.")
	}

	kv := cache.NewCacheManager(ctx, cfg.RedisURL, cfg.UpstreamTimeout, logger)
	defer kv.Close()

	ledger, closeLedger, err := openLedger(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLedger()

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	limiter := services.NewRateLimiter(kv)
	guard := services.NewLoginGuard(limiter, cfg.LoginMaxFailures, cfg.LoginLockoutWindow)
	auth := services.NewAuthService(cache.NewCredentialStore(kv), tokens, guard, cfg.LoginFailureDelay, logger)
	quotes := services.NewQuoteService(ledger, kv, logger)

	if cfg.BootstrapAdminUsername != "" {
		created, err := auth.EnsureAdmin(ctx, cfg.BootstrapAdminUsername, cfg.BootstrapAdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			logger.Info("admin credentials initialized from bootstrap settings", zap.String("username", cfg.BootstrapAdminUsername))
		}
	}

	var wsHandler *handlers.WebSocketHandler
	if cfg.EnableWebSocket {
		wsHandler = handlers.NewWebSocketHandler(tokens, cfg.CORSAllowedOrigins, logger)
		kv.Subscribe(func(msg cache.Message) {
			if msg.Action == cache.ActionQuoteEvent && msg.Event != nil {
				wsHandler.BroadcastEvent(*msg.Event)
			}
		})
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := handlers.NewRouter(handlers.RouterDeps{
		Tokens:          tokens,
		Limiter:         limiter,
		Admin:           handlers.NewAdminHandler(auth, guard.Window(), logger),
		Quotes:          handlers.NewQuoteHandler(quotes, logger),
		Content:         handlers.NewContentHandler(cache.NewContentStore(kv), logger),
		Health:          handlers.NewHealthHandler(kv, kv.IsAvailable, ledger, cfg.LedgerBackend, cfg.UpstreamTimeout),
		WebSocket:       wsHandler,
		QuoteLimit:      cfg.QuoteRateLimitPerHour,
		Logger:          logger,
		TrustedProxies:  cfg.TrustedProxies,
		TrustedPlatform: cfg.TrustedPlatform,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("ledger", cfg.LedgerBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if wsHandler != nil {
		g.Go(func() error {
			return wsHandler.RunHub(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openLedger(ctx context.Context, cfg *configs.Config, logger *zap.Logger) (ledgerBackend, func(), error) {
	switch cfg.LedgerBackend {
	case configs.LedgerBackendSQL:
		db, err := database.NewDBManager(cfg.DatabaseURL, cfg.DatabaseReadURLs, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open ledger database: %w", err)
		}
		return database.NewLedgerRepository(db), func() { _ = db.Close() }, nil

	default:
		httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}
		tokens := sheets.NewTokenSource(sheets.ServiceAccount{
			Email:      cfg.ServiceAccountEmail,
			PrivateKey: cfg.ServiceAccountKey,
			TokenURL:   cfg.TokenURL,
			Scope:      sheets.SpreadsheetsScope,
		}, httpClient, cfg.CacheBearerToken)

		client := sheets.NewClient(sheets.Config{
			SpreadsheetID: cfg.SpreadsheetID,
			SheetName:     cfg.SheetName,
			APIBase:       cfg.SheetsAPIBase,
		}, tokens, httpClient, logger)

		headerCtx, cancel := context.WithTimeout(ctx, cfg.UpstreamTimeout)
		defer cancel()
		if err := client.EnsureHeader(headerCtx); err != nil {
			logger.Warn("could not verify ledger header row", zap.Error(err))
		}
		return client, func() {}, nil
	}
}
