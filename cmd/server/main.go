package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"user_admin/internal/config"
	"user_admin/internal/handler"
	"user_admin/internal/mail"
	"user_admin/internal/middleware"
	"user_admin/internal/repository"
	"user_admin/internal/service"
	"user_admin/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on environment variables")
	}

	// --- Configuration ---
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		logger.Fatal("failed to load DB config", zap.Error(err))
	}

	jwtSecret := os.Getenv("JWT_SECRET_KEY")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET_KEY not set in environment")
	}
	jwtLifetime := durationEnv(logger, "JWT_EXPIRATION_MINUTES", time.Hour)
	resetTTL := durationEnv(logger, "RESET_TOKEN_TTL_MINUTES", time.Hour)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080" // Default port
	}

	resetBaseURL := os.Getenv("RESET_BASE_URL")
	if resetBaseURL == "" {
		resetBaseURL = "http://localhost:5173" // SPA dev server default
	}

	smtpCfg := mail.SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     587,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("MAIL_FROM"),
	}
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			smtpCfg.Port = port
		} else {
			logger.Warn("invalid SMTP_PORT, defaulting to 587", zap.Error(err))
		}
	}
	if smtpCfg.Host == "" {
		logger.Fatal("SMTP_HOST not set in environment")
	}

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(dbCfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	// --- Auto Migration & Seeding ---
	if err := config.AutoMigrate(dbPool); err != nil {
		logger.Fatal("failed to auto-migrate database", zap.Error(err))
	}
	if err := config.SeedUsers(context.Background(), dbPool, logger); err != nil {
		logger.Fatal("failed to seed users", zap.Error(err))
	}

	// --- Initialize Utilities ---
	jwtUtil := utils.NewJWTUtil(jwtSecret, jwtLifetime)

	mailer, err := mail.NewSMTPMailer(smtpCfg)
	if err != nil {
		logger.Fatal("failed to create mailer", zap.Error(err))
	}

	// --- Initialize Repositories ---
	userRepo := repository.NewUserRepository(dbPool)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, jwtUtil)
	userService := service.NewUserService(userRepo)
	resetService := service.NewPasswordResetService(userRepo, mailer, resetBaseURL, resetTTL, logger)

	// --- Initialize Handlers ---
	authHandler := handler.NewAuthHandler(authService, logger)
	userHandler := handler.NewUserHandler(userService, logger)
	resetHandler := handler.NewResetHandler(resetService, logger)

	// --- Setup Gin Router ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORSMiddleware())

	// --- Initialize Middlewares ---
	jwtAuthMW := middleware.JWTAuthMiddleware(jwtUtil)
	adminRoleMW := middleware.AdminMiddleware()

	// --- Register Routes ---
	apiGroup := router.Group("/api")
	authHandler.RegisterAuthRoutes(apiGroup, jwtAuthMW)
	resetHandler.RegisterResetRoutes(apiGroup)
	userHandler.RegisterUserRoutes(apiGroup, jwtAuthMW, adminRoleMW)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := dbPool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "db": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "healthy"})
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:    ":" + serverPort,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("port", serverPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}

// durationEnv reads a minute count from the environment, falling back to def.
func durationEnv(logger *zap.Logger, key string, def time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	minutes, err := strconv.ParseInt(val, 10, 64)
	if err != nil || minutes <= 0 {
		logger.Warn("invalid duration env, using default",
			zap.String("key", key),
			zap.Duration("default", def))
		return def
	}
	return time.Duration(minutes) * time.Minute
}
