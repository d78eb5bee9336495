/**
 * @description
 * This is the main entry point for the wedding registry service. It wires the gift
 * catalog, contribution intake, moderation and realtime streams to their stores and
 * serves them over HTTP.
 *
 * Key features:
 * - Loads application configuration from environment variables and an optional .env file.
 * - Establishes a PostgreSQL connection pool and creates the registry tables.
 * - Connects to Redis (rate limiting, session revocation) and RabbitMQ (change fan-out)
 *   when they are configured, and falls back to in-process implementations otherwise.
 * - Schedules the orphaned upload sweep and implements graceful shutdown.
 *
 * @dependencies
 * - The service's internal packages for config, app logic, storage and the HTTP API.
 * - pgxpool for the database, go-redis, rabbitmq for messaging and godotenv for local config.
 */
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/LuisRivera1699/wedding-presents/internal/api"
	"github.com/LuisRivera1699/wedding-presents/internal/app"
	"github.com/LuisRivera1699/wedding-presents/internal/auth"
	"github.com/LuisRivera1699/wedding-presents/internal/config"
	"github.com/LuisRivera1699/wedding-presents/internal/funding"
	"github.com/LuisRivera1699/wedding-presents/internal/logging"
	"github.com/LuisRivera1699/wedding-presents/internal/proof"
	"github.com/LuisRivera1699/wedding-presents/internal/realtime"
	"github.com/LuisRivera1699/wedding-presents/internal/store"
	"github.com/LuisRivera1699/wedding-presents/pkg/rabbitmq"
)

func main() {
	// Load .env file for local development.
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		bootLogger := logging.New("production")
		bootLogger.Fatal().Err(err).Msg("cannot load config")
	}
	logger := logging.New(cfg.AppEnv)
	if envErr != nil {
		logger.Debug().Msg("no .env file found, using environment variables")
	}

	// Establish database connection pool.
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to parse database URL")
	}
	dbConfig.MaxConns = 20
	dbConfig.MinConns = 2
	dbConfig.MaxConnLifetime = 30 * time.Minute
	dbConfig.MaxConnIdleTime = 5 * time.Minute

	dbpool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to connect to database")
	}
	defer dbpool.Close()

	repo := store.NewPostgresRepository(dbpool, store.Collections{
		Gifts:         cfg.GiftsCollection,
		Contributions: cfg.ContributionsCollection,
	})
	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
	if err := repo.EnsureSchema(schemaCtx); err != nil {
		cancelSchema()
		logger.Fatal().Err(err).Msg("unable to prepare database schema")
	}
	cancelSchema()
	logger.Info().Str("gifts", cfg.GiftsCollection).Str("contributions", cfg.ContributionsCollection).Msg("database connection established")

	// Redis is optional; without it rate limiting is off and revocations stay in memory.
	var (
		rateLimiter app.RateLimiter
		revocations auth.RevocationStore
	)
	if redisClient := connectRedis(cfg, logger); redisClient != nil {
		defer redisClient.Close()
		rateLimiter = app.NewRedisRateLimiter(redisClient, cfg.RedisKeyPrefix)
		revocations = auth.NewRedisRevocationStore(redisClient, cfg.RedisKeyPrefix)
	}

	archive, err := proof.New(context.Background(), proof.Options{
		Driver:          cfg.StorageDriver,
		LocalDir:        cfg.LocalUploadDir,
		LocalURLPrefix:  cfg.LocalUploadURLPrefix,
		PublicBaseURL:   cfg.PublicBaseURL,
		S3Region:        cfg.S3Region,
		S3Bucket:        cfg.S3Bucket,
		S3PublicBaseURL: cfg.S3PublicBaseURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to configure upload storage")
	}
	logger.Info().Str("driver", archive.Driver).Msg("upload storage configured")

	broadcaster := realtime.NewBroadcaster(logger)
	publisher := connectBroker(cfg, broadcaster, logger)
	defer publisher.Close()

	gate := auth.NewGate(cfg.AdminEmail)
	if cfg.AdminEmail == "" {
		logger.Warn().Msg("ADMIN_EMAIL is not set; administrator features are disabled")
	}
	authenticator := auth.NewAuthenticator(auth.Settings{
		AdminEmail:        cfg.AdminEmail,
		AdminPasswordHash: cfg.AdminPasswordHash,
		SessionSecret:     cfg.SessionSecret,
		SessionTTL:        time.Duration(cfg.SessionTTLMinutes) * time.Minute,
	}, revocations)

	intake := app.NewIntakeService(repo, repo, archive.Archive, publisher, app.IntakeSettings{
		PaymentMethods:  cfg.PaymentMethods,
		ProofPrefix:     cfg.ProofPrefix,
		MaxProofBytes:   cfg.MaxProofBytes,
		Exchange:        cfg.ChangeExchange,
		RateLimitPerMin: cfg.IntakeRateLimitPerMin,
	}, logger)
	if rateLimiter != nil {
		intake.SetRateLimiter(rateLimiter)
	}
	catalog := app.NewCatalogService(gate, repo, repo, archive.Archive, publisher, app.CatalogSettings{
		ImagePrefix:   cfg.GiftImagePrefix,
		MaxImageBytes: cfg.MaxProofBytes,
		Exchange:      cfg.ChangeExchange,
	}, logger)
	moderation := app.NewModerationService(gate, repo, publisher, cfg.ChangeExchange, logger)

	// Schedule the orphaned upload sweep.
	scheduler := app.NewScheduler(logger)
	sweeper := app.NewOrphanSweeper(archive.Archive, repo, []string{cfg.ProofPrefix, cfg.GiftImagePrefix},
		time.Duration(cfg.OrphanSweepGraceMinutes)*time.Minute, logger)
	if err := scheduler.Register("orphan_sweep", cfg.OrphanSweepSchedule, sweeper.Sweep); err != nil {
		logger.Fatal().Err(err).Msg("invalid ORPHAN_SWEEP_SCHEDULE")
	}
	scheduler.Start()

	handlers := api.NewHandlers(api.Options{
		Catalog:             catalog,
		Intake:              intake,
		Moderation:          moderation,
		Authenticator:       authenticator,
		Gate:                gate,
		Channel:             realtime.NewChannel(repo, repo, broadcaster),
		Formatter:           funding.NewFormatter(cfg.DisplayLocale, cfg.DisplayCurrency),
		PlaceholderImageURL: cfg.PlaceholderImageURL,
		PublicBaseURL:       cfg.PublicBaseURL,
		MaxUploadBytes:      cfg.MaxProofBytes,
		Logger:              logger,
	})
	routerOpts := api.RouterOptions{}
	if archive.Driver == "local" {
		routerOpts.UploadDir = cfg.LocalUploadDir
		routerOpts.UploadURLPrefix = cfg.LocalUploadURLPrefix
	}
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           api.NewRouter(handlers, authenticator, routerOpts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.ServerPort).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("could not start server")
		}
	}()

	// Wait for termination signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down registry service")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopped := scheduler.Stop()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		logger.Warn().Msg("scheduled jobs still running at shutdown")
	}

	logger.Info().Msg("server gracefully stopped")
}

func connectRedis(cfg config.Config, logger logging.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		logger.Info().Msg("REDIS_URL not set; rate limiting disabled and sessions revoked in memory")
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid REDIS_URL; continuing without redis")
		return nil
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable; continuing without redis")
		client.Close()
		return nil
	}
	logger.Info().Msg("redis connection established")
	return client
}

// connectBroker returns the change publisher. With RabbitMQ, every instance consumes the
// shared exchange into its broadcaster; without it, changes are delivered in process.
func connectBroker(cfg config.Config, broadcaster *realtime.Broadcaster, logger logging.Logger) rabbitmq.Publisher {
	local := realtime.NewLocalPublisher(broadcaster)
	fallback := &rabbitmq.EventProducerFallback{Logger: logger, Local: local}
	if cfg.RabbitMQURL == "" {
		logger.Info().Msg("RABBITMQ_URL not set; change events stay in process")
		return fallback
	}

	producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to connect producer to RabbitMQ; change events stay in process")
		return fallback
	}
	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL, logger)
	if err != nil {
		producer.Close()
		logger.Warn().Err(err).Msg("failed to connect consumer to RabbitMQ; change events stay in process")
		return fallback
	}
	if err := consumer.ConsumeAll(cfg.ChangeExchange, broadcaster.HandleMessage); err != nil {
		consumer.Close()
		producer.Close()
		logger.Warn().Err(err).Msg("failed to consume change events; change events stay in process")
		return fallback
	}
	consumer.NotifyClose(broadcaster.Fail)
	logger.Info().Str("exchange", cfg.ChangeExchange).Msg("change events fanned out through RabbitMQ")

	return &brokerPublisher{
		RelayPublisher: realtime.NewRelayPublisher(producer, broadcaster),
		producer:       producer,
		consumer:       consumer,
	}
}

// brokerPublisher relays change events through RabbitMQ and closes the consumer along
// with the producer.
type brokerPublisher struct {
	*realtime.RelayPublisher
	producer *rabbitmq.EventProducer
	consumer *rabbitmq.Consumer
}

func (p *brokerPublisher) Close() {
	p.consumer.Close()
	p.producer.Close()
}
