package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/mediconsult/mediconsult-api/internal/config"
	"github.com/mediconsult/mediconsult-api/internal/handler"
	appointmentHandler "github.com/mediconsult/mediconsult-api/internal/handler/appointment"
	healthHandler "github.com/mediconsult/mediconsult-api/internal/handler/health"
	specializationHandler "github.com/mediconsult/mediconsult-api/internal/handler/specialization"
	syncHandler "github.com/mediconsult/mediconsult-api/internal/handler/sync"
	"github.com/mediconsult/mediconsult-api/internal/middleware"
	"github.com/mediconsult/mediconsult-api/internal/repository/postgres"
	"github.com/mediconsult/mediconsult-api/internal/router"
	bookingService "github.com/mediconsult/mediconsult-api/internal/service/booking"
	specializationService "github.com/mediconsult/mediconsult-api/internal/service/specialization"
	syncService "github.com/mediconsult/mediconsult-api/internal/service/sync"
	"github.com/mediconsult/mediconsult-api/pkg/messaging"
	redisBroker "github.com/mediconsult/mediconsult-api/pkg/messaging/redis"
	"github.com/mediconsult/mediconsult-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Broker is optional: without it lifecycle events are skipped, bookings
	// still work.
	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		logger := log.Logger
		broker, err = redisBroker.NewRedisBroker(redisBroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, &logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()
	}

	m := metrics.NewMetrics("mediconsult")

	appointmentRepo := postgres.NewAppointmentRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	consultationRepo := postgres.NewConsultationRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	specializationRepo := postgres.NewSpecializationRepository(db)

	bookingSvc := bookingService.NewService(appointmentRepo, broker, m, bookingService.Config{
		ConflictWindowPad: time.Duration(cfg.Booking.ConflictWindowPadMinutes) * time.Minute,
	})
	syncSvc := syncService.NewService(patientRepo, consultationRepo, messageRepo, m)
	specializationSvc := specializationService.NewService(specializationRepo)

	handler.RegisterValidators()

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	r := router.NewRouter(
		authMiddleware,
		healthHandler.NewHandler(db),
		appointmentHandler.NewHandler(bookingSvc),
		syncHandler.NewHandler(syncSvc),
		specializationHandler.NewHandler(specializationSvc),
		router.RouterConfig{
			RateLimit:      rate.Limit(100),
			RateBurst:      200,
			RequestTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			CORSConfig:     middleware.DefaultCORSConfig(),
			MetricsPrefix:  "mediconsult_http",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
