package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"advisor-booking/config"
	deliveryHttp "advisor-booking/internal/delivery/http"
	"advisor-booking/internal/delivery/http/handler"
	"advisor-booking/internal/delivery/http/middleware"
	"advisor-booking/internal/infrastructure/cache"
	"advisor-booking/internal/infrastructure/database"
	"advisor-booking/internal/observability/metrics"
	"advisor-booking/internal/repository"
	"advisor-booking/internal/service"
	"advisor-booking/internal/usecase"
	"advisor-booking/pkg/jwt"
	"advisor-booking/pkg/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Slots       *service.SlotService
	Server      *http.Server
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	// Setup logger
	log := setupLogger(cfg.App)
	app.Log = log
	log.Info("Configuration loaded successfully")

	if cfg.DB.AutoMigrate {
		if err := runMigrations(cfg.DB, log); err != nil {
			return nil, err
		}
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, log, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis, log)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient

	// Availability cache and slot locks
	app.Slots = service.NewSlotService(redisClient, log, cfg.Booking.AvailabilityCacheTTL, cfg.Booking.SlotLockTTL)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Slots.PurgeOnStartup(ctx); err != nil {
		log.Warnf("Failed to purge availability cache: %+v", err)
	}

	// Initialize all layers
	app.Server = initializeServer(cfg, log, db, redisClient, app.Slots)

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(cfg config.AppConfig) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

func runMigrations(cfg config.DBConfig, log *logrus.Logger) error {
	migrator, err := database.NewMigrator(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize migrator: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// initializeServer creates and configures the HTTP server
func initializeServer(cfg *config.Config, log *logrus.Logger, db *gorm.DB, redisClient *redis.Client, slots *service.SlotService) *http.Server {
	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(registry)

	// Initialize repositories
	advisorRepo := repository.NewAdvisorRepository()
	workingHoursRepo := repository.NewWorkingHoursRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	auditService := service.NewAuditService(log, auditLogRepo)

	// Initialize usecases
	advisorUsecase := usecase.NewAdvisorUsecase(db, log, advisorRepo, workingHoursRepo, auditService, slots)
	appointmentUsecase := usecase.NewAppointmentUsecase(
		db, log, advisorRepo, appointmentRepo, auditService, slots, bookingMetrics,
		cfg.Booking.Location(), cfg.Booking.SlotLength(),
	)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Initialize handlers
	advisorHandler := handler.NewAdvisorHandler(advisorUsecase, customValidator)
	appointmentHandler := handler.NewAppointmentHandler(appointmentUsecase, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase, customValidator)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, redisClient)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSOrigin)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, log)
	requestLogger := middleware.RequestLogger(log, bookingMetrics)

	// Initialize router
	router := deliveryHttp.NewRouter(
		advisorHandler, appointmentHandler, auditLogHandler,
		authMiddleware, corsMiddleware, rateLimiter, requestLogger,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close stops background workers and closes all connections
func (app *App) Close() {
	if app.Slots != nil {
		app.Slots.Stop()
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
