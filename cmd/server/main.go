package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Fabio661717/loja-conect-sub001/internal/api"
	"github.com/Fabio661717/loja-conect-sub001/internal/config"
	"github.com/Fabio661717/loja-conect-sub001/internal/kafka"
	redisCache "github.com/Fabio661717/loja-conect-sub001/internal/redis"
	"github.com/Fabio661717/loja-conect-sub001/internal/repository"
	"github.com/Fabio661717/loja-conect-sub001/internal/service"
	"github.com/Fabio661717/loja-conect-sub001/internal/sweeper"
)

// setupLogging configures structured logging
func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// initializeDatabase sets up and tests the database connection
func initializeDatabase(cfg *config.Config) *sqlx.DB {
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.DatabaseMaxConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)

	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}

	log.Info().Msg("Database connection established")
	return db
}

// initializeCache sets up the Redis availability cache
func initializeCache(cfg *config.Config) *redisCache.CacheClient {
	cache := redisCache.NewCacheClient(redisCache.Options{
		Addrs:       cfg.RedisAddrs,
		Password:    cfg.RedisPassword,
		ClusterMode: cfg.RedisClusterMode,
		TTL:         cfg.RedisTTL,
		KeyPrefix:   cfg.RedisKeyPrefix,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := cache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	log.Info().Msg("Redis connection established")

	return cache
}

// createReservationService creates and configures the engine
func createReservationService(repo *repository.ReservationRepository, storeConfig *repository.StoreConfigRepository, cache *redisCache.CacheClient, dispatcher *kafka.NotificationPublisher, cfg *config.Config) *service.ReservationService {
	serviceConfig := service.ServiceConfig{
		DefaultHoldHours:     cfg.DefaultHoldHours,
		RenewalLimit:         cfg.RenewalLimit,
		RenewalMaxExtraHours: cfg.RenewalMaxExtraHours,
		RescheduleOffset:     cfg.RescheduleOffset,
	}

	log.Info().
		Int("default_hold_hours", serviceConfig.DefaultHoldHours).
		Int("renewal_limit", serviceConfig.RenewalLimit).
		Dur("reschedule_offset", serviceConfig.RescheduleOffset).
		Msg("Service configuration loaded")

	reservationService, err := service.NewReservationService(repo, storeConfig, cache, dispatcher, serviceConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create reservation service")
	}

	return reservationService
}

// startHTTPServer starts the HTTP server
func startHTTPServer(cfg *config.Config, reservationService *service.ReservationService) *http.Server {
	handler := api.NewReservationHandler(reservationService, reservationService)
	router := handler.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%s", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("address", serverAddr).Msg("Reservation engine HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	return server
}

// gracefulShutdown handles graceful shutdown of the service
func gracefulShutdown(cancel context.CancelFunc, srv *http.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down reservation engine...")

	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server forced shutdown")
	}

	log.Info().Msg("Reservation engine stopped")
}

func main() {
	setupLogging()
	log.Info().Msg("Starting reservation engine...")

	cfg := config.LoadConfig()

	db := initializeDatabase(cfg)
	defer db.Close()

	cache := initializeCache(cfg)
	defer cache.Close()

	dispatcher := kafka.NewNotificationPublisher(cfg.KafkaBrokers, cfg.KafkaNotificationsTopic)
	defer dispatcher.Close()

	repo := repository.NewReservationRepository(db)
	storeConfig := repository.NewStoreConfigRepository(db)
	reservationService := createReservationService(repo, storeConfig, cache, dispatcher, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	holdSweeper := sweeper.NewSweeper(repo, reservationService, dispatcher, sweeper.Config{
		Interval:         cfg.SweepInterval,
		BatchSize:        cfg.SweepBatchSize,
		NearExpiryWindow: cfg.NearExpiryWindow,
		NotifyCooldown:   cfg.NotifyCooldown,
	})
	go holdSweeper.Run(ctx)

	srv := startHTTPServer(cfg, reservationService)

	log.Info().Str("instance_id", cfg.InstanceID).Msg("Reservation engine started")

	gracefulShutdown(cancel, srv)
}
