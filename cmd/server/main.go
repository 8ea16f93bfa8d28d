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
	"github.com/trekhive/trek-booking-backend/internal/config"
	"github.com/trekhive/trek-booking-backend/internal/database"
	"github.com/trekhive/trek-booking-backend/internal/handlers"
	"github.com/trekhive/trek-booking-backend/internal/middleware"
	"github.com/trekhive/trek-booking-backend/internal/services"
	"github.com/trekhive/trek-booking-backend/pkg/jwt"
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

	logger.Info("Starting TrekHive Booking Backend")
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
	logger.Info("Database connection established")

	// Repositories need the underlying *sqlx.DB for transactions
	pg, ok := db.(*database.PostgresDB)
	if !ok {
		logger.Fatal("Failed to cast database connection to PostgresDB")
	}
	sqlxDB := pg.DB

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	rateLimitService := services.NewRateLimitService(db)
	auditService := services.NewAuditService(db)

	// Initialize repositories
	vendorRepo := database.NewVendorRepository(sqlxDB)
	customerRepo := database.NewCustomerRepository(sqlxDB)
	trekRepo := database.NewTrekRepository(sqlxDB)
	batchRepo := database.NewBatchRepository(sqlxDB)
	travelerRepo := database.NewTravelerRepository(sqlxDB)
	couponRepo := database.NewCouponRepository(sqlxDB)
	paymentLogRepo := database.NewPaymentLogRepository(sqlxDB)
	bookingRepo := database.NewBookingRepository(sqlxDB, cfg.Booking.ReferencePrefix)

	// Initialize domain services
	pricingService := services.NewPricingService()
	paymentService := services.NewPaymentService(&cfg.Payment, logger)
	if !paymentService.IsConfigured() {
		logger.Warn("Payment gateway credentials missing, checkout endpoints will fail")
	}
	bookingService := services.NewBookingService(
		bookingRepo,
		trekRepo,
		batchRepo,
		travelerRepo,
		couponRepo,
		paymentLogRepo,
		pricingService,
		paymentService,
		auditService,
		logger,
	)

	// Initialize and start the slot drift recompute job
	cronService := services.NewCronService(batchRepo, auditService, &cfg.Booking, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	logger.Info("Cron service started, batch slot recompute scheduled")

	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(vendorRepo, jwtService, rateLimitService, auditService, logger)
	trekHandler := handlers.NewTrekHandler(trekRepo)
	batchHandler := handlers.NewBatchHandler(batchRepo, trekRepo)
	bookingHandler := handlers.NewBookingHandler(bookingService, bookingRepo, travelerRepo, paymentLogRepo)
	vendorBookingHandler := handlers.NewVendorBookingHandler(bookingService, bookingRepo, batchRepo, trekRepo, customerRepo)
	customerHandler := handlers.NewCustomerHandler(customerRepo)
	couponHandler := handlers.NewCouponHandler(couponRepo)
	adminHandler := handlers.NewAdminHandler(bookingService, batchRepo, auditService, cronService)

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

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Authentication routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/vendor/login", authHandler.VendorLogin)
			auth.POST("/refresh", authHandler.RefreshToken)
		}

		// Public catalogue routes
		v1.GET("/treks", trekHandler.ListTreks)
		v1.GET("/treks/:id", trekHandler.GetTrek)
		v1.GET("/treks/:id/batches", batchHandler.ListTrekBatches)
		v1.GET("/batches/:id/availability", batchHandler.GetAvailability)

		// Booking routes (protected; scoping is per-role inside the handlers)
		bookings := v1.Group("/bookings")
		bookings.Use(middleware.AuthMiddleware(jwtService))
		{
			bookings.GET("/:id", bookingHandler.GetBooking)
			bookings.POST("/:id/cancel", bookingHandler.CancelBooking)

			customerBookings := bookings.Group("")
			customerBookings.Use(middleware.RequireRole(middleware.RoleCustomer))
			{
				customerBookings.POST("", bookingHandler.CreateBooking)
				customerBookings.GET("", bookingHandler.GetMyBookings)
				customerBookings.POST("/order", bookingHandler.CreateOrder)
				customerBookings.POST("/verify-payment", bookingHandler.VerifyPayment)
			}
		}

		// Customer routes (protected)
		customers := v1.Group("/customers")
		customers.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole(middleware.RoleCustomer))
		{
			customers.GET("/me", customerHandler.GetProfile)
			customers.PATCH("/me", customerHandler.UpdateProfile)
		}
		travelers := v1.Group("/travelers")
		travelers.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole(middleware.RoleCustomer))
		{
			travelers.GET("", bookingHandler.GetMyTravelers)
		}

		// Vendor routes (protected)
		vendor := v1.Group("/vendor")
		vendor.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole(middleware.RoleVendor))
		{
			vendor.POST("/treks", trekHandler.CreateTrek)
			vendor.GET("/treks", trekHandler.ListMyTreks)
			vendor.PATCH("/treks/:id", trekHandler.UpdateTrek)
			vendor.POST("/treks/:id/batches", batchHandler.CreateBatch)

			vendor.POST("/bookings", vendorBookingHandler.CreateWalkInBooking)
			vendor.GET("/bookings", vendorBookingHandler.ListVendorBookings)
			vendor.GET("/batches/:id/manifest", vendorBookingHandler.GetBatchManifest)
		}

		// Admin routes (protected)
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole(middleware.RoleAdmin))
		{
			admin.POST("/coupons", couponHandler.CreateCoupon)
			admin.GET("/coupons", couponHandler.ListCoupons)
			admin.GET("/coupons/:id", couponHandler.GetCoupon)
			admin.PATCH("/coupons/:id", couponHandler.UpdateCoupon)

			admin.POST("/bookings/:id/confirm", adminHandler.ConfirmBooking)
			admin.POST("/batches/:id/recompute", adminHandler.RecomputeBatch)
			admin.POST("/batches/recompute-all", adminHandler.RecomputeAllBatches)
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

	// Stop cron service
	logger.Info("Stopping cron service...")
	cronService.Stop()

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

		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
			fields["role"] = userCtx.Role
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
		} else {
			status := c.Writer.Status()
			if status >= 500 {
				entry.Error("Request completed with server error")
			} else if status >= 400 {
				entry.Warn("Request completed with client error")
			} else {
				entry.Info("Request completed successfully")
			}
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "healthy"
		if err := db.Ping(); err != nil {
			dbStatus = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": dbStatus,
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  dbStatus,
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
