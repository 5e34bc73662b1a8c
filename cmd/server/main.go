package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/technofair/registration-backend/internal/config"
	"github.com/technofair/registration-backend/internal/database"
	"github.com/technofair/registration-backend/internal/handlers"
	"github.com/technofair/registration-backend/internal/middleware"
	"github.com/technofair/registration-backend/internal/services"
	"github.com/technofair/registration-backend/pkg/jwt"
	"github.com/technofair/registration-backend/pkg/notifier"
	"github.com/technofair/registration-backend/pkg/validator"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting TechnoFair Registration Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize repositories
	userRepository := database.NewUserRepository(db)
	adminRepository := database.NewAdminUserRepository(db)
	refreshTokenRepository := database.NewRefreshTokenRepository(db)
	competitionRepository := database.NewCompetitionRepository(db)
	registrationRepository := database.NewRegistrationRepository(db)
	teamRepository := database.NewTeamRepository(db)
	paymentRepository := database.NewPaymentRepository(db)
	submissionRepository := database.NewSubmissionRepository(db)
	outboxRepository := database.NewOutboxRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	clock := services.SystemClock{}
	teamValidator := validator.NewTeamValidator()
	rateLimitService := services.NewRateLimitService(db, services.DefaultAttemptLimitConfig())
	auditService := services.NewAuditService(db)

	authService := services.NewAuthService(
		userRepository,
		refreshTokenRepository,
		outboxRepository,
		jwtService,
		cfg.Security.BcryptCost,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
		logger,
	)
	adminAuthService := services.NewAdminAuthService(
		adminRepository,
		refreshTokenRepository,
		jwtService,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
		logger,
	)
	workflow := services.NewRegistrationWorkflow(
		db,
		registrationRepository,
		competitionRepository,
		teamRepository,
		paymentRepository,
		submissionRepository,
		outboxRepository,
		teamValidator,
		clock,
		logger,
	)

	// Initialize mail gateway
	var mailGateway notifier.Gateway
	if cfg.Mail.Mode == "production" {
		logger.Info("Initializing mail gateway in production mode...")
		mailGateway = notifier.NewHTTPGateway(notifier.HTTPConfig{
			APIURL:      cfg.Mail.APIURL,
			APIKey:      cfg.Mail.APIKey,
			SenderEmail: cfg.Mail.SenderEmail,
			SenderName:  cfg.Mail.SenderName,
		})
	} else {
		logger.Info("Mail gateway in development mode (messages are logged, not sent)")
		mailGateway = notifier.NewDevGateway()
	}

	// Start the outbox dispatcher
	dispatcher := services.NewOutboxDispatcher(
		outboxRepository,
		mailGateway,
		cfg.Mail.AppBaseURL,
		cfg.Mail.DispatchInterval,
		cfg.Mail.MaxAttempts,
		logger,
	)
	dispatcher.Start()
	logger.Info("Outbox dispatcher started")

	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, rateLimitService, auditService, logger)
	adminAuthHandler := handlers.NewAdminAuthHandler(adminAuthService, auditService, logger)
	registrationHandler := handlers.NewRegistrationHandler(workflow, rateLimitService, auditService, logger)
	competitionHandler := handlers.NewCompetitionHandler(competitionRepository, clock, logger)
	adminHandler := handlers.NewAdminHandler(
		workflow,
		registrationRepository,
		paymentRepository,
		submissionRepository,
		auditService,
		logger,
	)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Per-IP rate limiting for all API routes
	ipLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(ipLimiter.Middleware())
	{
		// Participant authentication (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/activate", authHandler.Activate)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
		}

		// Competition catalogue (public)
		competitions := v1.Group("/competitions")
		{
			competitions.GET("", competitionHandler.List)
			competitions.GET("/:code", competitionHandler.GetByCode)
		}

		// Registration routes (participants)
		registrations := v1.Group("/registrations")
		registrations.Use(middleware.AuthMiddleware(jwtService))
		registrations.Use(middleware.RequireRole("participant"))
		{
			registrations.POST("", registrationHandler.Create)
			registrations.GET("/me", registrationHandler.Dashboard)
			registrations.POST("/me/submissions", registrationHandler.SubmitArtifact)
			registrations.POST("/me/payment", registrationHandler.SubmitPayment)
		}

		// Admin authentication (public)
		adminAuth := v1.Group("/admin/auth")
		{
			adminAuth.POST("/login", adminAuthHandler.Login)
			adminAuth.POST("/refresh", adminAuthHandler.RefreshToken)
			adminAuth.POST("/logout", adminAuthHandler.Logout)
		}

		// Admin verification queue (protected)
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService))
		admin.Use(middleware.RequireRole("super_admin", "moderator", "event_admin"))
		{
			admin.GET("/registrations/pending", adminHandler.ListPendingRegistrations)
			admin.GET("/registrations/:id", adminHandler.GetRegistration)
			admin.POST("/registrations/:id/approve", adminHandler.ApproveRegistration)
			admin.POST("/registrations/:id/reject", adminHandler.RejectRegistration)

			admin.GET("/payments/pending", adminHandler.ListPendingPayments)
			admin.POST("/payments/:id/verify", adminHandler.VerifyPayment)
			admin.POST("/payments/:id/reject", adminHandler.RejectPayment)

			admin.GET("/submissions/pending", adminHandler.ListPendingSubmissions)
			admin.POST("/submissions/:id/review", adminHandler.ReviewSubmission)

			admin.GET("/dashboard/stats", adminHandler.DashboardStats)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop the outbox dispatcher before closing the database
	dispatcher.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userCtx, ok := middleware.GetUserContext(c); ok {
			fields["user_id"] = userCtx.UserID
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
