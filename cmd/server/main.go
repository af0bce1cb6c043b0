package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"focusquest/internal/config"
	"focusquest/internal/database"
	"focusquest/internal/handlers"
	"focusquest/internal/jobs"
	"focusquest/internal/lock"
	"focusquest/internal/logger"
	"focusquest/internal/points"
	"focusquest/internal/repository"
	"focusquest/internal/scheduler"
	"focusquest/internal/security"
	"focusquest/internal/service"
	"focusquest/internal/stream"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	loc, err := cfg.Location()
	if err != nil {
		logger.Log.WithError(err).Fatal("Invalid timezone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Log.WithField("type", cfg.DatabaseType).Info("Database connection established")

	if err := db.RunMigrations(ctx); err != nil {
		logger.Log.WithError(err).Fatal("Failed to run migrations")
	}

	logger.Log.Info("Migrations completed successfully")

	tokens, err := security.NewTokenManager(cfg.JWTSecret)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to configure bearer tokens")
	}

	locker, closeLocker := newLocker(ctx, cfg)
	defer closeLocker()

	calendar := points.NewCalendar(loc)
	hub := stream.NewHub(tokens, cfg.CORSAllowedOrigins)

	// Initialize services
	familyService := service.NewFamilyService(repository.NewFamilyRepository(db))
	notificationService := service.NewNotificationService(repository.NewNotificationRepository(db), familyService, hub,
		service.NotificationOptions{
			MaxAttempts:   cfg.Notify.MaxAttempts,
			RetryBackoff:  cfg.Notify.RetryBackoff,
			QueueSize:     cfg.Notify.QueueSize,
			RetentionDays: cfg.Notify.RetentionDays,
		})
	ledgerService := service.NewLedgerService(db, repository.NewRewardRepository(db), familyService, locker, calendar,
		service.PointValues{
			LevelSize:          cfg.Rewards.LevelSize,
			ScheduleCompletion: cfg.Rewards.ScheduleCompletion,
			MedicineTaken:      cfg.Rewards.MedicineTaken,
		}, notificationService)
	redemptionService := service.NewRedemptionService(ledgerService, repository.NewCatalogRepository(db),
		repository.NewRedemptionRepository(db), familyService, notificationService, hub)
	medicationService := service.NewMedicationService(repository.NewMedicationRepository(db), repository.NewDoseLogRepository(db),
		repository.NewSettingsRepository(db), familyService, ledgerService, notificationService, calendar)

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, loc, cfg.EmailDebug)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize email service")
	}

	// Background workers
	go notificationService.Run(ctx)

	limiter := security.NewRateLimiter(120, time.Minute)
	go limiter.Run(ctx)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sweep := jobs.NewAdherenceSweep(medicationService, familyService, notificationService, hub, emailService, calendar, cfg.Scheduler.Concurrency)
		sched, err = scheduler.New(sweep, notificationService, cfg.Scheduler.SweepInterval, loc)
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to create scheduler")
		}
		sched.Start()
	} else {
		logger.Log.Warn("Adherence scheduler disabled")
	}

	// Initialize handlers
	router := handlers.NewRouter(handlers.Routes{
		Middleware:    handlers.NewMiddleware(tokens, limiter),
		Family:        handlers.NewFamilyHandler(familyService),
		Rewards:       handlers.NewRewardHandler(ledgerService, familyService),
		Redemptions:   handlers.NewRedemptionHandler(redemptionService),
		Medication:    handlers.NewMedicationHandler(medicationService),
		Notifications: handlers.NewNotificationHandler(notificationService),
		Stream:        hub,
	}, cfg.CORSAllowedOrigins)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Log.WithField("addr", addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	logger.Log.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			logger.Log.WithError(err).Warn("Scheduler did not stop cleanly")
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Server shutdown failed")
	}
	logger.Log.Info("Server stopped")
}

// newLocker returns a Redis locker when REDIS_ADDR is set so several workers share per-child locks
func newLocker(ctx context.Context, cfg *config.Config) (lock.Locker, func()) {
	if cfg.RedisAddr == "" {
		return lock.NewKeyedMutex(), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Log.WithError(err).WithField("addr", cfg.RedisAddr).Fatal("Failed to connect to Redis")
	}

	logger.Log.WithFields(logrus.Fields{"addr": cfg.RedisAddr, "ttl": cfg.LockTTL}).Info("Using Redis child locks")
	return lock.NewRedisLocker(client, cfg.LockTTL), func() {
		if err := client.Close(); err != nil {
			logger.Log.WithError(err).Warn("Failed to close Redis client")
		}
	}
}
