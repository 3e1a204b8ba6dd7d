package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"car-listing/internal/client/cli"
	"car-listing/internal/client/config"
	"car-listing/internal/shared/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	logCfg := logger.ConfigFromEnv()
	if logCfg.Level == "" {
		logCfg.Level = "warn"
	}
	logCfg.Output = os.Stderr
	appLogger := logger.New(logCfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	cli.NewApp(cfg, appLogger).Run(ctx)
}
