package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dropkit/coupondrop/internal/auth"
	"github.com/dropkit/coupondrop/internal/config"
	"github.com/dropkit/coupondrop/internal/handler"
	"github.com/dropkit/coupondrop/internal/metrics"
	"github.com/dropkit/coupondrop/internal/middleware"
	"github.com/dropkit/coupondrop/internal/model"
	"github.com/dropkit/coupondrop/internal/repository"
	"github.com/dropkit/coupondrop/internal/service"
	"github.com/dropkit/coupondrop/internal/validator"
	"github.com/dropkit/coupondrop/pkg/database"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize zerolog based on configuration
	initLogger(cfg)

	// Create context for startup
	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "Coupon Drop",
		ReadTimeout:  30 * time.Second,  // Max time to read request
		WriteTimeout: 30 * time.Second,  // Max time to write response
		IdleTimeout:  120 * time.Second, // Max time for keep-alive connections
		BodyLimit:    1 * 1024 * 1024,   // 1MB body limit (explicit, prevents large payloads)
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.CORS.OriginList(), ","),
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Client-IP",
	}))

	// Initialize validator
	validate := validator.New()

	// Repositories
	couponRepo := repository.NewCouponRepository(pool)
	claimRepo := repository.NewClaimRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)
	lockRepo := repository.NewLockRepository(pool)

	// Services
	settingsService := service.NewSettingsService(settingsRepo, model.Settings{
		CooldownHours:  cfg.Claim.CooldownHours,
		TrackingMethod: cfg.Claim.TrackingMethod,
	})
	if err := settingsService.Seed(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed settings")
	}
	eligibility := service.NewEligibilityChecker(claimRepo, settingsService)
	allocator := service.NewAllocator(couponRepo, claimRepo, eligibility, lockRepo)
	inventory := service.NewInventoryService(pool, couponRepo)
	ledger := service.NewLedgerService(claimRepo)

	// Auth
	tokenIssuer := auth.NewTokenIssuer(cfg.Admin.JWTSecret, time.Duration(cfg.Admin.TokenTTL)*time.Minute)
	authenticator := auth.NewAuthenticator(cfg.Admin.Email, cfg.Admin.Password, tokenIssuer)

	// Handlers
	claimHandler := handler.NewClaimHandler(allocator, eligibility, settingsService, metrics.Claims())
	couponHandler := handler.NewCouponHandler(inventory, validate)
	ledgerHandler := handler.NewLedgerHandler(ledger)
	settingsHandler := handler.NewSettingsHandler(settingsService, validate)
	authHandler := handler.NewAuthHandler(authenticator, validate)
	healthHandler := handler.NewHealthHandler(pool)

	// Observability
	app.Get("/health", healthHandler.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Public claim routes, rate limited per client
	claimLimiter := middleware.NewRateLimiter(cfg.Claim.RateLimit, cfg.Claim.RateBurst)
	api := app.Group("/api")
	api.Post("/claim", claimLimiter.Handler(handler.ClaimantID), claimHandler.ClaimCoupon)
	api.Get("/claim/eligibility", claimHandler.Eligibility)

	// Admin routes
	admin := api.Group("/admin")
	admin.Post("/login", authHandler.Login)
	admin.Post("/logout", authHandler.Logout)

	// Everything below requires a valid admin token
	admin.Use(auth.RequireAdmin(tokenIssuer))
	admin.Get("/coupons", couponHandler.ListCoupons)
	admin.Post("/coupons", couponHandler.CreateCoupon)
	admin.Post("/coupons/bulk", couponHandler.BulkCreateCoupons)
	admin.Patch("/coupons/:id", couponHandler.UpdateCoupon)
	admin.Delete("/coupons/:id", couponHandler.DeleteCoupon)
	admin.Get("/claims", ledgerHandler.History)
	admin.Get("/claims/stats", ledgerHandler.Stats)
	admin.Get("/settings", settingsHandler.GetSettings)
	admin.Put("/settings", settingsHandler.UpdateSettings)

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close database pool AFTER server shutdown (even if shutdown timed out)
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		// JSON output for production
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
