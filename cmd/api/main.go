package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jamdmasud/JWTAuthProviderAPI/internal/auth"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/background"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/config"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/database"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/handlers"
	middlewareCustom "github.com/jamdmasud/JWTAuthProviderAPI/internal/middleware"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/models"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/repositories"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/routes"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/services"
	pkgauth "github.com/jamdmasud/JWTAuthProviderAPI/pkg/auth"
	pkglogger "github.com/jamdmasud/JWTAuthProviderAPI/pkg/logger"
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

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Apply embedded migrations before opening the pool
	if err := database.Migrate(&cfg.Database, logger); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	resetTokenRepo := repositories.NewResetTokenRepository(db)

	// Token issuance and validation share the same configuration
	tokenIssuer := auth.NewTokenIssuer(cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.SigningKey)
	tokenValidator := auth.NewTokenValidator(cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.SigningKey)

	auditLogger := pkglogger.NewAuditLogger(logger)

	// AWS SES email service
	emailService, err := services.NewAWSSESEmailService(
		cfg.Email.AWSRegion,
		cfg.Email.FromAddress,
		cfg.Email.ResetURLBase,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	grantService := services.NewGrantService(userRepo, tokenIssuer, cfg.Auth.TokenLifetime, cfg.Auth.SessionCookieEnabled, logger, auditLogger)
	resetService := services.NewPasswordResetService(userRepo, resetTokenRepo, emailService, cfg.Auth.ResetTokenLifetime, logger, auditLogger)
	userService := services.NewUserService(userRepo, logger, auditLogger)

	// Initialize handlers
	sessionCookieConfig := auth.SessionCookieConfig{
		Enabled: cfg.Auth.SessionCookieEnabled,
		Secure:  cfg.Auth.SessionCookieSecure,
	}
	tokenHandler := handlers.NewTokenHandler(grantService, sessionCookieConfig)
	userHandler := handlers.NewUserHandler(userService, resetService)

	// Initialize cleanup manager for expired reset tokens
	cleanupManager := background.NewCleanupManager(resetService, logger, cfg.Auth.ResetCleanupInterval)

	// Bootstrap first admin user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(ctx, userRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig()))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, tokenHandler, userHandler, tokenValidator)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminUser creates the first admin user if ADMIN_USERNAME and ADMIN_PASSWORD are set
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminUsername := os.Getenv("ADMIN_USERNAME")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminUsername == "" || adminPassword == "" {
		logger.Info("no ADMIN_USERNAME or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	// Check if admin already exists
	_, err := userRepo.FindByUsername(ctx, adminUsername)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	// Hash password
	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	// Create admin user
	admin := &models.User{
		Username:       adminUsername,
		Email:          os.Getenv("ADMIN_EMAIL"),
		PasswordHash:   hashedPassword,
		FirstName:      "Admin",
		EmailConfirmed: true,
	}

	created, err := userRepo.Create(ctx, admin)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	if err := userRepo.ReplaceRoles(ctx, created.ID, []string{"Admin"}); err != nil {
		return fmt.Errorf("failed to assign admin role: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
