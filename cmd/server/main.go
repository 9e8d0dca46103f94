package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vetdesk/service-reservation/internal/application"
	"github.com/vetdesk/service-reservation/internal/config"
	"github.com/vetdesk/service-reservation/internal/domain/reservation"
	"github.com/vetdesk/service-reservation/internal/events"
	"github.com/vetdesk/service-reservation/internal/handler"
	"github.com/vetdesk/service-reservation/internal/platform/auth"
	"github.com/vetdesk/service-reservation/internal/platform/database"
	"github.com/vetdesk/service-reservation/internal/platform/health"
	"github.com/vetdesk/service-reservation/internal/platform/kafka"
	"github.com/vetdesk/service-reservation/internal/platform/logger"
	"github.com/vetdesk/service-reservation/internal/platform/middleware"
	"github.com/vetdesk/service-reservation/internal/repository"
)

// Overlap guard applied alongside dev auto-migrate. The production migration
// in migrations/ carries the same constraint; the database rejects double
// bookings even when two requests pass the in-process check concurrently.
const reservationOverlapDDL = `
CREATE EXTENSION IF NOT EXISTS btree_gist;
ALTER TABLE reservations DROP CONSTRAINT IF EXISTS reservations_no_overlap;
ALTER TABLE reservations ADD CONSTRAINT reservations_no_overlap
  EXCLUDE USING gist (date WITH =, int4range(time_from_min, time_to_min) WITH &&)
  WHERE (status <> 'canceled');
`

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-reservation")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-reservation",
		zap.String("port", cfg.Port),
		zap.String("capacity_scope", string(cfg.Schedule.CapacityScope)),
	)

	// Connect to database
	db, err := database.Connect(cfg.DB, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.PetModel{}, &repository.ReservationModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		if err := db.Exec(reservationOverlapDDL).Error; err != nil {
			log.Fatal("failed to apply overlap constraint", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DB.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	reservationRepo := repository.NewGormReservationRepository(db)
	petRepo := repository.NewGormPetRepository(db)

	// Initialize application services
	reservationService := application.NewReservationService(
		reservationRepo,
		petRepo,
		kafkaProducer,
		application.ScheduleConfig{
			Hours: reservation.BusinessHours{
				StartHour: cfg.Schedule.StartHour,
				EndHour:   cfg.Schedule.EndHour,
			},
			SlotMinutes: cfg.Schedule.SlotMinutes,
			Capacity:    cfg.Schedule.CapacityScope,
		},
		log,
	)
	petService := application.NewPetService(petRepo, log)

	// Initialize and start visit event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.Kafka.GroupPrefix + "-visits"
	visitConsumer := events.NewVisitEventConsumer(
		cfg.Kafka.Brokers,
		groupID,
		reservationService,
		log,
	)
	defer func() { _ = visitConsumer.Close() }()

	go func() {
		log.Info("starting visit event consumer")
		if err := visitConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("visit event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	reservationHandler := handler.NewReservationHandler(reservationService)
	petHandler := handler.NewPetHandler(petService, reservationService)
	adminHandler := handler.NewAdminReservationHandler(reservationService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-reservation")
	healthHandler.RegisterRoutes(router)

	// Register routes
	reservationHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	petHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-reservation...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-reservation stopped")
}
