package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/ksred/strike-api/internal/auth"
	"github.com/ksred/strike-api/internal/config"
	"github.com/ksred/strike-api/internal/database"
	"github.com/ksred/strike-api/internal/marketdata"
	"github.com/ksred/strike-api/internal/notify"
	"github.com/ksred/strike-api/internal/outcome"
	"github.com/ksred/strike-api/internal/settlement"
	"github.com/ksred/strike-api/internal/trading"
	"github.com/ksred/strike-api/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the option trading API server with graceful
// shutdown support.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Market data, with a redis-backed ticker cache when redis is reachable
	var market marketdata.Client = marketdata.NewBinanceClient(cfg.MarketDataURL)
	if rdb, err := database.NewRedis(cfg.RedisURL); err == nil {
		market = marketdata.NewTickerCache(market, rdb, cfg.TickerCacheTTL)
	} else {
		zlog.Warn().Err(err).Msg("redis unavailable, running without ticker cache")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	authService := auth.NewService(cfg.JWTSecret)
	authHandlers := auth.NewGinHandlers(authService)
	// Register test credentials
	authService.RegisterAPICredentials(auth.TestAPIKey, auth.TestAPISecret)

	hub := notify.NewHub()
	notifier := notify.NewNotifier(db, notify.LogMailer{})

	rates := outcome.Rates{
		RiseFall:     cfg.ProfitRates.RiseFall,
		HigherLower:  cfg.ProfitRates.HigherLower,
		TouchNoTouch: cfg.ProfitRates.TouchNoTouch,
		CallPut:      cfg.ProfitRates.CallPut,
	}

	settlementService := settlement.NewService(db, market, rates, cfg.CancelCutoff, notifier, hub)
	settlementHandlers := settlement.NewGinHandlers(settlementService)

	tradingService := trading.NewService(db, market, settlementService.Scheduler())
	tradingHandlers := trading.NewGinHandlers(tradingService)

	// Create and start the reconciliation sweep
	sweep := settlement.NewProcessor(settlementService, cfg.SweepInterval)
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()

	go sweep.Start(sweepCtx)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, cfg.JWTSecret, authHandlers, tradingHandlers, settlementHandlers, notifier, hub)

	// Create server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers:
// - Auth routes: public endpoints for authentication
// - Order and wallet routes: protected by JWT authentication
// - Websocket and metrics: unauthenticated infrastructure endpoints
func setupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandlers *auth.GinHandlers,
	tradingHandlers *trading.GinHandlers,
	settlementHandlers *settlement.GinHandlers,
	notifier *notify.Notifier,
	hub *notify.Hub,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Order routes
		orders := v1.Group("/orders")
		orders.Use(middleware.JWTAuth(jwtSecret))
		{
			orders.POST("", tradingHandlers.CreateOrderHandler())
			orders.GET("/:order_id", tradingHandlers.GetOrderStatusHandler())
			orders.POST("/:order_id/cancel", settlementHandlers.CancelOrderHandler())
		}

		// Wallet routes
		wallet := v1.Group("/wallet")
		wallet.Use(middleware.JWTAuth(jwtSecret))
		{
			wallet.GET("", tradingHandlers.GetWalletHandler())
		}

		// Notification routes
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.JWTAuth(jwtSecret))
		{
			notifications.GET("", notifier.GetNotificationsHandler())
		}
	}

	router.GET("/ws", hub.Handler())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
