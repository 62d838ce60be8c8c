package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	clts "polycopy/clients"
	"polycopy/config"
	"polycopy/internal/app"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Load config from environment variables
	cfg := config.Load()
	if result := cfg.Validate(); !result.Valid {
		for _, verr := range result.Errors {
			logger.Error("invalid configuration",
				zap.String("field", verr.Field),
				zap.String("message", verr.Message),
			)
		}
		logger.Fatal("configuration validation failed", zap.Int("errors", len(result.Errors)))
	}
	logger.Info("starting polycopy", zap.Bool("isProd", cfg.IsProd))

	logger.Info("instantiating clients")
	clients := clts.NewClients(logger, cfg)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	runner := app.NewRunner(clients, cfg)
	if err := runner.Run(ctx); err != nil {
		logger.Fatal("runner failed", zap.Error(err))
	}
}
