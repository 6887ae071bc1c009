package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/BradenHooton/tripshare/internal/auth"
	"github.com/BradenHooton/tripshare/internal/background"
	"github.com/BradenHooton/tripshare/internal/config"
	"github.com/BradenHooton/tripshare/internal/database"
	"github.com/BradenHooton/tripshare/internal/handlers"
	middlewareCustom "github.com/BradenHooton/tripshare/internal/middleware"
	"github.com/BradenHooton/tripshare/internal/repositories"
	"github.com/BradenHooton/tripshare/internal/routes"
	"github.com/BradenHooton/tripshare/internal/services"
	"github.com/BradenHooton/tripshare/internal/storage"
	pkghttp "github.com/BradenHooton/tripshare/pkg/http"
	pkglogger "github.com/BradenHooton/tripshare/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	ctx := context.Background()

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	provider, err := storage.New(ctx, &cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to initialize media storage", slog.Any("error", err))
		os.Exit(1)
	}

	// Invites are still created when email is disabled; they are just not sent
	var mailer services.InviteMailer
	if cfg.Email.Enabled {
		ses, err := services.NewAWSSESEmailService(ctx, cfg.Email.AWSRegion, cfg.Email.FromAddress, cfg.Email.AppBaseURL, logger)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
		mailer = ses
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshRepo := repositories.NewRefreshTokenRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)
	groupRepo := repositories.NewGroupRepository(db)
	memberRepo := repositories.NewMemberRepository(db)
	inviteRepo := repositories.NewInviteRepository(db)
	joinRequestRepo := repositories.NewJoinRequestRepository(db)
	mediaRepo := repositories.NewMediaRepository(db)

	tokenManager := auth.NewTokenManager(
		cfg.Auth.AccessTokenSecret,
		cfg.Auth.RefreshTokenSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)

	// Initialize services
	auditService := services.NewAuditService(auditRepo, pkglogger.NewAuditLogger(logger), logger)
	authService := services.NewAuthService(userRepo, refreshRepo, db, tokenManager, auditService, services.AuthSettings{
		BcryptCost:        cfg.Auth.BcryptCost,
		MaxFailedAttempts: cfg.Auth.MaxFailedAttempts,
		LockoutDuration:   cfg.Auth.LockoutDuration,
	}, logger)
	mediaService := services.NewMediaService(mediaRepo, groupRepo, memberRepo, provider, services.MediaSettings{
		MaxImageSize: cfg.Media.MaxImageSize,
		MaxVideoSize: cfg.Media.MaxVideoSize,
		DefaultLimit: cfg.Media.DefaultLimit,
		MaxLimit:     cfg.Media.MaxLimit,
	}, logger)
	groupService := services.NewGroupService(groupRepo, memberRepo, mediaService, db, services.GroupSettings{
		DefaultMaxMembers: cfg.Groups.DefaultMaxMembers,
		InviteCodeRetries: cfg.Groups.InviteCodeRetries,
	}, logger)
	membershipService := services.NewMembershipService(
		groupRepo,
		memberRepo,
		inviteRepo,
		joinRequestRepo,
		userRepo,
		mailer,
		db,
		services.MembershipSettings{InviteExpiry: cfg.Groups.InviteExpiry},
		logger,
	)

	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}

	// Initialize handlers
	maxUpload := max(cfg.Media.MaxImageSize, cfg.Media.MaxVideoSize)
	apiHandlers := routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService, auditService, ipConfig),
		Groups:  handlers.NewGroupHandler(groupService),
		Members: handlers.NewMemberHandler(membershipService),
		Media:   handlers.NewMediaHandler(mediaService, maxUpload),
	}

	// Setup router. No RealIP: client IPs come from pkghttp.ExtractClientIP,
	// which only trusts TRUSTED_PROXIES.
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middlewareCustom.Timeout(cfg.Server.RequestTimeout, cfg.Media.UploadTimeout))

	router.Get("/health", routes.HealthHandler(db))
	router.Route("/api/v1", func(r chi.Router) {
		routes.RegisterRoutes(r, apiHandlers, tokenManager, middlewareCustom.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.AuthRequestsPerMinute,
			IPConfig:          ipConfig,
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupManager := background.NewCleanupManager(refreshRepo, inviteRepo, logger, cfg.Cleanup.Interval, cfg.Cleanup.RefreshTokenRetention)
	cleanupCtx, cleanupCancel := context.WithCancel(ctx)
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
