package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"pennywise/internal/config"
	"pennywise/internal/ledger"
	"pennywise/internal/models"
	"pennywise/internal/persistence"
	"pennywise/internal/receipts"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Msg(err.Error())
	}

	output := io.Writer(os.Stdout)
	if cfg.LogFormat == "human" {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	log.Logger = log.Output(output).With().Timestamp().Logger()

	// Create the data directory
	if err := os.MkdirAll(filepath.Dir(cfg.SQLiteDBPath), os.ModePerm); err != nil {
		log.Fatal().Msg(err.Error())
	}

	store, err := persistence.Connect(cfg.SQLiteDBPath, log.Logger)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}
	defer store.Close()

	ctx := context.Background()

	userKey, ok := os.LookupEnv("USER_KEY")
	if !ok {
		userKey = "default"
	}

	options := []ledger.Option{ledger.WithLogger(log.Logger)}

	if cfg.MinioEndpoint != "" {
		receiptStore, err := receipts.NewMinioStore(ctx, receipts.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatal().Msg(err.Error())
		}

		options = append(options, ledger.WithReceiptStore(receiptStore))
	}

	var l *ledger.Ledger
	state, err := store.Load(ctx, userKey)
	switch {
	case errors.Is(err, models.ErrNotFound):
		l = ledger.New(userKey, options...)
	case err != nil:
		log.Fatal().Msg(err.Error())
	default:
		l = ledger.FromState(state, options...)
	}

	writer := persistence.NewWriter(store, userKey, cfg.DebounceWindow, log.Logger)
	if err := writer.Start(ctx); err != nil {
		log.Fatal().Msg(err.Error())
	}

	unsubscribe, err := writer.Attach(ctx, l)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}
	defer unsubscribe()

	if err := l.EnsureCurrentMonth(); err != nil {
		log.Fatal().Msg(err.Error())
	}

	log.Info().Str("user", userKey).Msg("ledger engine running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Write any pending snapshot before shutting down.
	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := writer.Stop(stopCtx); err != nil {
		log.Error().Msg(err.Error())
	}
}
