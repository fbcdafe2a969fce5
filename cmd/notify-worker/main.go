package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/furwell/vetclinic-scheduling/internal/config"
	"github.com/furwell/vetclinic-scheduling/internal/notify"
)

func main() {
	logger := newLogger()
	logger.Info().Msg("notify-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}

	logger.Info().
		Str("env", cfg.Env).
		Int("concurrency", cfg.NotifyConcurrency).
		Msg("running notification worker")

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
		},
		asynq.Config{
			Concurrency: cfg.NotifyConcurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mailer := notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	mux := notify.NewMux(mailer, logger)

	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Fatal().Err(err).Msg("notification worker error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("shutting down notify-worker")
	srv.Shutdown()
}

func newLogger() zerolog.Logger {
	if os.Getenv("APP_ENV") == "dev" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
