package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/furwell/vetclinic-scheduling/internal/api"
	"github.com/furwell/vetclinic-scheduling/internal/clinic"
	"github.com/furwell/vetclinic-scheduling/internal/config"
	"github.com/furwell/vetclinic-scheduling/internal/db"
	"github.com/furwell/vetclinic-scheduling/internal/notify"
	redisclient "github.com/furwell/vetclinic-scheduling/internal/redis"
)

const version = "0.3.0"

func main() {
	logger := newLogger()
	logger.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("clinic time zone")
	}

	logger.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTPPort).
		Str("clinic_tz", cfg.ClinicTZ).
		Msg("configuration loaded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	enqueuer := notify.NewEnqueuer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	defer func() {
		if err := enqueuer.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing notification client")
		}
	}()

	repo := clinic.NewPgRepository(pgPool)
	locker := redisclient.NewRedisVetLocker(rdb, cfg.LockTTL)
	engine := clinic.NewEngine(repo, loc)
	svc := clinic.NewService(repo, engine, locker, enqueuer, logger)
	slots := clinic.NewSlotManager(repo, locker, logger)
	resolver := clinic.NewVetResolver(repo)

	router := api.NewRouter(api.RouterConfig{
		Service:  svc,
		Slots:    slots,
		Resolver: resolver,
		PgPool:   pgPool,
		Redis:    rdb,
		Logger:   logger,
		Env:      cfg.Env,
		Version:  version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	logger.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}
}

func newLogger() zerolog.Logger {
	if os.Getenv("APP_ENV") == "dev" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
